package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/integration"
	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// DraftingHandler turns incoming items into proposed actions awaiting human
// approval. Unclassifiable items fall back to plan creation so nothing
// silently disappears.
type DraftingHandler struct {
	store    vault.Store
	drafter  integration.Drafter
	ledger   Ledger
	auditLog observability.AuditLog
	policy   ApprovalPolicy

	defaultInvoiceAmount float64
	now                  func() time.Time
}

// NewDraftingHandler wires a DraftingHandler.
func NewDraftingHandler(store vault.Store, drafter integration.Drafter, ledger Ledger, auditLog observability.AuditLog, policy ApprovalPolicy, defaultInvoiceAmount float64) *DraftingHandler {
	return &DraftingHandler{
		store:                store,
		drafter:              drafter,
		ledger:               ledger,
		auditLog:             auditLog,
		policy:               policy,
		defaultInvoiceAmount: defaultInvoiceAmount,
		now:                  time.Now,
	}
}

// Draft processes one incoming item: generate a reply draft, synthesize a
// secondary invoice draft when the body asks for one, then move the source
// forward. Re-running on the same source is a no-op.
func (h *DraftingHandler) Draft(ctx context.Context, item *models.Item) error {
	if h.ledger.Seen(DraftKey(item.Name)) {
		return h.finishMove(item)
	}

	kind := ClassifyKind(item)
	artifact, err := h.drafter.Draft(ctx, item, kind)
	if errors.Is(err, integration.ErrNoTemplate) {
		return h.createPlan(item, err)
	}
	if err != nil {
		// Malformed item of a known kind: leave it in place for human
		// correction, never silently drop it.
		return fmt.Errorf("drafting %s: %w", item.Name, err)
	}

	if !h.draftExists(item.Name, artifact.Kind) {
		draftName, err := h.placeDraft(item, artifact)
		if err != nil {
			return fmt.Errorf("placing draft for %s: %w", item.Name, err)
		}
		h.audit(observability.Entry{
			Actor:      "drafting_handler",
			ActionType: "draft_created",
			Target:     draftName,
			Result:     observability.ResultSuccess,
		})
	}

	if err := h.maybeDraftInvoice(item); err != nil {
		// The reply draft already exists; an invoice failure is logged and
		// must not abort the item.
		h.audit(observability.Entry{
			Actor:      "drafting_handler",
			ActionType: "invoice_draft",
			Target:     item.Name,
			Result:     observability.ResultFailure,
			Error:      err.Error(),
		})
	}

	if _, err := h.ledger.MarkIfUnseen(DraftKey(item.Name)); err != nil {
		return fmt.Errorf("marking %s drafted: %w", item.Name, err)
	}

	if err := h.store.Move(item.Name, item.Stage, models.StagePendingApproval); err != nil {
		return fmt.Errorf("moving %s forward: %w", item.Name, err)
	}

	h.audit(observability.Entry{
		Actor:      "drafting_handler",
		ActionType: "ingest",
		Target:     item.Name,
		Result:     observability.ResultSuccess,
	})
	return nil
}

// finishMove completes the stage transition for a source the ledger already
// records as handled. A crash between the ledger mark and the move leaves
// the source behind in its intake stage; re-delivery lands here and moves it
// forward instead of stranding it. Sources with a plan go to Plans, all
// others to Pending_Approval.
func (h *DraftingHandler) finishMove(item *models.Item) error {
	if !h.store.Exists(item.Stage, item.Name) {
		return nil
	}

	target := models.StagePendingApproval
	if h.planExists(item.Name) {
		target = models.StagePlans
	}

	if err := h.store.Move(item.Name, item.Stage, target); err != nil {
		return fmt.Errorf("moving %s forward: %w", item.Name, err)
	}
	h.audit(observability.Entry{
		Actor:      "drafting_handler",
		ActionType: "ingest",
		Target:     item.Name,
		Result:     observability.ResultSuccess,
		Detail:     "completed interrupted move",
	})
	return nil
}

// planExists reports whether Plans already holds a plan referencing the
// source.
func (h *DraftingHandler) planExists(sourceName string) bool {
	names, err := h.store.List(models.StagePlans)
	if err != nil {
		return false
	}
	for _, name := range names {
		it, err := h.store.Read(models.StagePlans, name)
		if err != nil {
			continue
		}
		src, _ := it.HeaderValue("source")
		t, _ := it.HeaderValue("type")
		if src == sourceName && t == string(models.KindPlan) {
			return true
		}
	}
	return false
}

// placeDraft writes a new draft item into Pending_Approval, or straight into
// Approved when the approval policy says so.
func (h *DraftingHandler) placeDraft(source *models.Item, artifact *integration.DraftArtifact) (string, error) {
	draft := &models.Item{
		Name:   vault.NewName(artifact.Kind, h.now().UTC()),
		Header: artifact.Header,
		Body:   artifact.Body,
	}

	stage := models.StagePendingApproval
	if h.policy != nil && h.policy.AutoApprove(source, draft) {
		stage = models.StageApproved
	}

	if err := h.store.Create(stage, draft); err != nil {
		return "", err
	}
	return draft.Name, nil
}

// maybeDraftInvoice synthesizes the secondary invoice draft when the source
// body asks for an invoice. The draft is guarded twice: by the ledger and by
// a scan of Pending_Approval for a prior draft referencing the same source,
// so a crash between the two can still not double-create.
func (h *DraftingHandler) maybeDraftInvoice(source *models.Item) error {
	if !strings.Contains(strings.ToLower(source.Body), "invoice") {
		return nil
	}

	key := invoiceKey(source)
	if h.ledger.Seen(key) {
		return nil
	}
	if h.invoiceDraftExists(source.Name) {
		_, err := h.ledger.MarkIfUnseen(key)
		return err
	}

	amount, usedFallback := ExtractAmount(source.Body, source.Header, h.defaultInvoiceAmount)
	if usedFallback {
		h.audit(observability.Entry{
			Actor:      "drafting_handler",
			ActionType: "amount_fallback",
			Target:     source.Name,
			Result:     observability.ResultSuccess,
			Error:      fmt.Sprintf("no usable amount found, defaulting to %s", FormatAmount(h.defaultInvoiceAmount)),
		})
	}

	contact, _ := source.HeaderValue("from")
	if contact == "" {
		contact, _ = source.HeaderValue("contact")
	}

	invoice := &models.Item{
		Name: vault.NewName(models.KindInvoiceDraft, h.now().UTC()),
		Header: map[string]string{
			"type":    string(models.KindInvoiceDraft),
			"action":  string(models.ActionInvoiceCreate),
			"contact": contact,
			"amount":  FormatAmount(amount),
			"source":  source.Name,
		},
		Body: fmt.Sprintf(
			"## Invoice\n\nContact: %s\nAmount: $%s\n\n## Status\n\nAwaiting approval\n",
			contact, FormatAmount(amount),
		),
	}

	stage := models.StagePendingApproval
	if h.policy != nil && h.policy.AutoApprove(source, invoice) {
		stage = models.StageApproved
	}

	if err := h.store.Create(stage, invoice); err != nil {
		return fmt.Errorf("creating invoice draft: %w", err)
	}
	if _, err := h.ledger.MarkIfUnseen(key); err != nil {
		return fmt.Errorf("marking invoice drafted: %w", err)
	}

	h.audit(observability.Entry{
		Actor:      "drafting_handler",
		ActionType: "draft_created",
		Target:     invoice.Name,
		Result:     observability.ResultSuccess,
	})
	return nil
}

// invoiceKey records the (source item, correlation id) pair guarding the
// secondary draft. The message id is the correlation when present, else the
// sender.
func invoiceKey(source *models.Item) string {
	correlation, _ := source.HeaderValue("message_id")
	if correlation == "" {
		correlation, _ = source.HeaderValue("from")
	}
	return "invoice:" + source.Name + ":" + correlation
}

// draftExists reports whether Pending_Approval already holds a non-invoice
// draft referencing the source, covering a crash after draft creation but
// before the ledger mark.
func (h *DraftingHandler) draftExists(sourceName string, kind models.ItemKind) bool {
	return h.pendingDraftMatching(func(it *models.Item) bool {
		src, _ := it.HeaderValue("source")
		t, _ := it.HeaderValue("type")
		return src == sourceName && t == string(kind)
	})
}

// invoiceDraftExists reports whether Pending_Approval already holds an
// invoice draft referencing the source.
func (h *DraftingHandler) invoiceDraftExists(sourceName string) bool {
	return h.pendingDraftMatching(func(it *models.Item) bool {
		src, _ := it.HeaderValue("source")
		t, _ := it.HeaderValue("type")
		return src == sourceName && t == string(models.KindInvoiceDraft)
	})
}

func (h *DraftingHandler) pendingDraftMatching(match func(*models.Item) bool) bool {
	names, err := h.store.List(models.StagePendingApproval)
	if err != nil {
		return false
	}
	for _, name := range names {
		it, err := h.store.Read(models.StagePendingApproval, name)
		if err != nil {
			continue
		}
		if match(it) {
			return true
		}
	}
	return false
}

// createPlan is the fallback for items no drafter covers: generate a plan
// item and move the source into Plans.
func (h *DraftingHandler) createPlan(item *models.Item, cause error) error {
	plan := &models.Item{
		Name: vault.NewName(models.KindPlan, h.now().UTC()),
		Header: map[string]string{
			"type":   string(models.KindPlan),
			"source": item.Name,
		},
		Body: fmt.Sprintf(
			"## Plan\n\nReview %s and decide the next step.\n\n## Context\n\n%s\n",
			item.Name, strings.TrimSpace(item.Body),
		),
	}

	if err := h.store.Create(models.StagePlans, plan); err != nil {
		return fmt.Errorf("creating plan for %s: %w", item.Name, err)
	}
	if _, err := h.ledger.MarkIfUnseen(DraftKey(item.Name)); err != nil {
		return fmt.Errorf("marking %s planned: %w", item.Name, err)
	}
	if err := h.store.Move(item.Name, item.Stage, models.StagePlans); err != nil {
		return fmt.Errorf("moving %s to plans: %w", item.Name, err)
	}

	h.audit(observability.Entry{
		Actor:      "drafting_handler",
		ActionType: "plan_created",
		Target:     plan.Name,
		Result:     observability.ResultSuccess,
		Error:      cause.Error(),
	})
	return nil
}

func (h *DraftingHandler) audit(entry observability.Entry) {
	if h.auditLog == nil {
		return
	}
	_ = h.auditLog.Append(entry)
}

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// typeHeaderKinds maps normalized `type` header values to item kinds.
var typeHeaderKinds = map[string]models.ItemKind{
	"email":            models.KindEmail,
	"whatsapp":         models.KindWhatsAppMessage,
	"whatsapp_message": models.KindWhatsAppMessage,
	"mention":          models.KindSocialMention,
	"social_mention":   models.KindSocialMention,
	"tweet":            models.KindSocialMention,
	"file":             models.KindFileDrop,
	"file_drop":        models.KindFileDrop,
	"finance":          models.KindFinanceAlert,
	"finance_alert":    models.KindFinanceAlert,
	"transaction":      models.KindFinanceAlert,
	"email_draft":      models.KindEmailDraft,
	"social_post":      models.KindSocialPost,
	"invoice_draft":    models.KindInvoiceDraft,
	"alert":            models.KindAlert,
	"plan":             models.KindPlan,
}

// bodyKeywordKinds is scanned in order; the first keyword found in the body
// decides the kind. Used only when both the type header and the filename
// prefix are inconclusive.
var bodyKeywordKinds = []struct {
	Keyword string
	Kind    models.ItemKind
}{
	{"subject:", models.KindEmail},
	{"reply-to", models.KindEmail},
	{"whatsapp", models.KindWhatsAppMessage},
	{"mentioned you", models.KindSocialMention},
	{"retweet", models.KindSocialMention},
	{"transaction", models.KindFinanceAlert},
	{"invoice", models.KindFinanceAlert},
}

// ClassifyKind derives an item's kind using, in priority order, the explicit
// type header, the filename prefix convention, then keyword search in the
// body. First match wins.
func ClassifyKind(item *models.Item) models.ItemKind {
	if raw, ok := item.HeaderValue("type"); ok {
		if kind, ok := typeHeaderKinds[strings.ToLower(strings.TrimSpace(raw))]; ok {
			return kind
		}
	}

	if kind := models.KindFromName(item.Name); kind != models.KindUnknown {
		return kind
	}

	lower := strings.ToLower(item.Body)
	for _, kw := range bodyKeywordKinds {
		if strings.Contains(lower, kw.Keyword) {
			return kw.Kind
		}
	}

	return models.KindUnknown
}

// IntakeHandler turns an incoming item into zero or more downstream items.
type IntakeHandler interface {
	Draft(ctx context.Context, item *models.Item) error
}

// ApprovedHandler performs the side effect for an approved item.
type ApprovedHandler interface {
	Execute(ctx context.Context, item *models.Item) error
}

// Router inspects an item's kind and content to decide which handler
// processes it, and drives whole batches through that handler.
type Router struct {
	store     vault.Store
	auditLog  observability.AuditLog
	drafting  IntakeHandler
	execution ApprovedHandler
}

// NewRouter creates a Router dispatching to the given handlers.
func NewRouter(store vault.Store, auditLog observability.AuditLog, drafting IntakeHandler, execution ApprovedHandler) *Router {
	return &Router{
		store:     store,
		auditLog:  auditLog,
		drafting:  drafting,
		execution: execution,
	}
}

// Dispatch processes one flushed batch for a stage, in order. Errors are
// contained per item: one item's failure is logged and the batch continues.
func (r *Router) Dispatch(ctx context.Context, stage models.Stage, names []string) {
	for _, name := range names {
		if err := r.dispatchOne(ctx, stage, name); err != nil {
			r.audit(observability.Entry{
				Actor:      "router",
				ActionType: "route",
				Target:     name,
				Result:     observability.ResultFailure,
				Error:      err.Error(),
			})
		}
	}
}

func (r *Router) dispatchOne(ctx context.Context, stage models.Stage, name string) error {
	item, err := r.store.Read(stage, name)
	if err != nil {
		if vault.IsNotFound(err) {
			// Already moved by a competing delivery path. Nothing to do.
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}

	switch stage {
	case models.StageApproved:
		return r.execution.Execute(ctx, item)
	case models.StageInbox, models.StageNeedsAction, models.StageUpdates:
		return r.drafting.Draft(ctx, item)
	default:
		return fmt.Errorf("stage %s is not routed", stage)
	}
}

func (r *Router) audit(entry observability.Entry) {
	if r.auditLog == nil {
		return
	}
	_ = r.auditLog.Append(entry)
}

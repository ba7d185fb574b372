package core

import (
	"context"
	"fmt"

	"github.com/DevDonzo/DigitalFTE/internal/integration"
	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// ExecutionHandler performs the side effect for approved items. An item's
// name is durably marked in the ledger before its executor runs, so the
// watcher and the recovery sweep observing the same item can never cause
// a double send. When the executor reports a definitive failure the mark is
// released again, and the recovery sweep retries the item; a mark only
// sticks once the side effect happened.
type ExecutionHandler struct {
	store    vault.Store
	registry *integration.ExecutorRegistry
	ledger   Ledger
	auditLog observability.AuditLog
}

// NewExecutionHandler wires an ExecutionHandler.
func NewExecutionHandler(store vault.Store, registry *integration.ExecutorRegistry, ledger Ledger, auditLog observability.AuditLog) *ExecutionHandler {
	return &ExecutionHandler{
		store:    store,
		registry: registry,
		ledger:   ledger,
		auditLog: auditLog,
	}
}

// actionKind resolves the action from the item's header, falling back to the
// filename prefix.
func actionKind(item *models.Item) models.ActionKind {
	if raw, ok := item.HeaderValue("action"); ok {
		if kind := models.ActionKindFromHeader(raw); kind != models.ActionUnknown {
			return kind
		}
	}
	return models.ActionKindFromName(item.Name)
}

// Execute dispatches one approved item. On success the item moves to Done;
// on failure it stays in Approved with the failure logged and its mark
// released, so the recovery sweep retries it. Unknown action kinds are
// logged and left untouched so a human can inspect them.
func (h *ExecutionHandler) Execute(ctx context.Context, item *models.Item) error {
	kind := actionKind(item)
	if kind == models.ActionUnknown {
		h.audit(observability.Entry{
			Actor:      "execution_handler",
			ActionType: "unknown_action",
			Target:     item.Name,
			Result:     observability.ResultFailure,
			Error:      "unknown action type",
		})
		return nil
	}

	executor, ok := h.registry.Lookup(kind)
	if !ok {
		h.audit(observability.Entry{
			Actor:      "execution_handler",
			ActionType: string(kind),
			Target:     item.Name,
			Result:     observability.ResultFailure,
			Error:      fmt.Sprintf("no executor registered for %s", kind),
		})
		return nil
	}

	won, err := h.ledger.MarkIfUnseen(ExecKey(item.Name))
	if err != nil {
		return fmt.Errorf("marking %s executed: %w", item.Name, err)
	}
	if !won {
		// A prior attempt already sent this item. If a crash interrupted
		// its move to Done, finish the move here instead of re-sending.
		if !h.store.Exists(models.StageApproved, item.Name) {
			return nil
		}
		if err := h.store.Move(item.Name, models.StageApproved, models.StageDone); err != nil {
			return fmt.Errorf("moving %s to Done: %w", item.Name, err)
		}
		h.audit(observability.Entry{
			Actor:      "execution_handler",
			ActionType: string(kind),
			Target:     item.Name,
			Result:     observability.ResultSuccess,
			Detail:     "already executed, completed move to Done",
		})
		return nil
	}

	result, err := executor.Execute(ctx, item)
	if err != nil || !result.OK {
		detail := result.Detail
		errMsg := "execution reported failure"
		if err != nil {
			errMsg = err.Error()
		}
		h.audit(observability.Entry{
			Actor:      "execution_handler",
			ActionType: string(kind),
			Target:     item.Name,
			Result:     observability.ResultFailure,
			Detail:     detail,
			Error:      errMsg,
		})
		// The send did not happen, so give the mark back; the recovery
		// sweep delivers the item again and the next attempt can win it.
		if rerr := h.ledger.Release(ExecKey(item.Name)); rerr != nil {
			return fmt.Errorf("releasing execution mark for %s: %w", item.Name, rerr)
		}
		return nil
	}

	if err := h.store.Move(item.Name, models.StageApproved, models.StageDone); err != nil {
		// The side effect happened but the move failed; record it loudly so
		// a human reconciles instead of a retry re-sending.
		h.audit(observability.Entry{
			Actor:      "execution_handler",
			ActionType: string(kind),
			Target:     item.Name,
			Result:     observability.ResultFailure,
			Detail:     result.Detail,
			Error:      fmt.Sprintf("executed but not moved to Done: %v", err),
		})
		return fmt.Errorf("moving %s to Done: %w", item.Name, err)
	}

	h.audit(observability.Entry{
		Actor:      "execution_handler",
		ActionType: string(kind),
		Target:     item.Name,
		Result:     observability.ResultSuccess,
		Detail:     result.Detail,
	})
	return nil
}

func (h *ExecutionHandler) audit(entry observability.Entry) {
	if h.auditLog == nil {
		return
	}
	_ = h.auditLog.Append(entry)
}

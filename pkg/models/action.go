package models

import "strings"

// ActionKind identifies the real-world side effect an approved item asks for.
type ActionKind string

const (
	ActionEmailReply    ActionKind = "email_reply"
	ActionSocialPost    ActionKind = "social_post"
	ActionInvoiceCreate ActionKind = "invoice_create"
	ActionPayment       ActionKind = "payment"
	ActionUnknown       ActionKind = "unknown"
)

// ExecResult is the outcome of dispatching an approved action to an external
// collaborator. Detail is persisted to the audit log verbatim.
type ExecResult struct {
	OK     bool
	Detail string
}

// ActionKindFromHeader maps the `action` frontmatter value to an ActionKind.
// Matching is substring-based, mirroring how approval files are written by
// hand as well as by the drafting handler.
func ActionKindFromHeader(action string) ActionKind {
	action = strings.ToLower(strings.TrimSpace(action))
	switch {
	case action == "":
		return ActionUnknown
	case strings.Contains(action, "email"):
		return ActionEmailReply
	case strings.Contains(action, "tweet"), strings.Contains(action, "post"), strings.Contains(action, "social"):
		return ActionSocialPost
	case strings.Contains(action, "invoice"), strings.Contains(action, "bill"):
		return ActionInvoiceCreate
	case strings.Contains(action, "payment"):
		return ActionPayment
	default:
		return ActionUnknown
	}
}

// ActionKindFromName derives the action kind from a filename prefix, used
// when an approved item carries no `action` header.
func ActionKindFromName(name string) ActionKind {
	switch KindFromName(name) {
	case KindEmailDraft, KindEmail:
		return ActionEmailReply
	case KindSocialPost:
		return ActionSocialPost
	case KindInvoiceDraft:
		return ActionInvoiceCreate
	default:
		return ActionUnknown
	}
}

package models

import "time"

// Stage represents a named bucket in the vault. An item's stage is its
// workflow state: moving a file between stage directories is the state
// transition.
type Stage string

const (
	StageInbox           Stage = "Inbox"
	StageNeedsAction     Stage = "Needs_Action"
	StageUpdates         Stage = "Updates"
	StagePendingApproval Stage = "Pending_Approval"
	StageApproved        Stage = "Approved"
	StageRejected        Stage = "Rejected"
	StagePlans           Stage = "Plans"
	StageDone            Stage = "Done"
	StageLogs            Stage = "Logs"
)

// AllStages lists every stage directory the vault layout contains, in
// workflow order.
var AllStages = []Stage{
	StageInbox,
	StageNeedsAction,
	StageUpdates,
	StagePendingApproval,
	StageApproved,
	StageRejected,
	StagePlans,
	StageDone,
	StageLogs,
}

// DrainedStages are the stages the orchestrator actively watches and
// processes. Every other stage is terminal or human-owned.
var DrainedStages = []Stage{
	StageInbox,
	StageNeedsAction,
	StageUpdates,
	StageApproved,
}

// ItemKind classifies an item for routing. It is derived from the explicit
// `type` header when present, otherwise from the filename prefix, otherwise
// from keywords in the body.
type ItemKind string

const (
	KindEmail           ItemKind = "email"
	KindWhatsAppMessage ItemKind = "whatsapp_message"
	KindSocialMention   ItemKind = "social_mention"
	KindFileDrop        ItemKind = "file_drop"
	KindFinanceAlert    ItemKind = "finance_alert"
	KindEmailDraft      ItemKind = "email_draft"
	KindSocialPost      ItemKind = "social_post"
	KindInvoiceDraft    ItemKind = "invoice_draft"
	KindPlan            ItemKind = "plan"
	KindAlert           ItemKind = "alert"
	KindUnknown         ItemKind = "unknown"
)

// Item is a single unit of work: a named markdown artifact with YAML
// frontmatter and a sectioned body. The name never changes across stage
// transitions, so the ledger and audit log can always correlate by name.
type Item struct {
	Name   string
	Stage  Stage
	Header map[string]string
	Body   string
}

// HeaderValue returns the trimmed header value for key, and whether the key
// was present. Header fields are advisory; callers must treat a missing key
// as a normal condition, not an error.
func (it *Item) HeaderValue(key string) (string, bool) {
	if it.Header == nil {
		return "", false
	}
	v, ok := it.Header[key]
	return v, ok
}

// CreatedAt parses the sortable timestamp embedded in the item name.
// The zero time is returned when the name carries no timestamp.
func (it *Item) CreatedAt() time.Time {
	_, ts, _ := SplitItemName(it.Name)
	return ts
}

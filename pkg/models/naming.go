package models

import (
	"fmt"
	"strings"
	"time"
)

// NameTimestampLayout is the sortable timestamp embedded in generated item
// names, e.g. EMAIL_DRAFT_20260113T120000_a1b2c3.md.
const NameTimestampLayout = "20060102T150405"

// kindPrefixes maps filename prefixes to item kinds. Longer prefixes are
// matched first so EMAIL_DRAFT wins over EMAIL.
var kindPrefixes = []struct {
	Prefix string
	Kind   ItemKind
}{
	{"EMAIL_DRAFT", KindEmailDraft},
	{"INVOICE_DRAFT", KindInvoiceDraft},
	{"TWEET_DRAFT", KindSocialPost},
	{"POST_DRAFT", KindSocialPost},
	{"EMAIL", KindEmail},
	{"WHATSAPP", KindWhatsAppMessage},
	{"MENTION", KindSocialMention},
	{"TWEET", KindSocialMention},
	{"FILE", KindFileDrop},
	{"FINANCE", KindFinanceAlert},
	{"REVENUE", KindFinanceAlert},
	{"ALERT", KindAlert},
	{"PLAN", KindPlan},
}

// KindPrefix returns the canonical filename prefix for a kind, used when
// generating item names. Unknown kinds map to the generic ITEM prefix.
func KindPrefix(kind ItemKind) string {
	for _, kp := range kindPrefixes {
		if kp.Kind == kind {
			return kp.Prefix
		}
	}
	return "ITEM"
}

// KindFromName derives an item kind from its filename prefix. It returns
// KindUnknown when no prefix matches.
func KindFromName(name string) ItemKind {
	upper := strings.ToUpper(name)
	for _, kp := range kindPrefixes {
		if strings.HasPrefix(upper, kp.Prefix+"_") || upper == kp.Prefix+".MD" {
			return kp.Kind
		}
	}
	return KindUnknown
}

// NewItemName builds a filename following the vault convention
// <PREFIX>_<sortable-timestamp>[_<suffix>].md. The suffix disambiguates
// items created within the same second; pass "" to omit it.
func NewItemName(prefix string, ts time.Time, suffix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "ITEM"
	}
	if suffix == "" {
		return fmt.Sprintf("%s_%s.md", prefix, ts.UTC().Format(NameTimestampLayout))
	}
	return fmt.Sprintf("%s_%s_%s.md", prefix, ts.UTC().Format(NameTimestampLayout), suffix)
}

// SplitItemName splits an item name into its prefix and embedded creation
// timestamp. The boolean reports whether a timestamp was found; names that
// do not follow the convention still yield their best-effort prefix.
func SplitItemName(name string) (prefix string, ts time.Time, ok bool) {
	base := strings.TrimSuffix(name, ".md")
	parts := strings.Split(base, "_")
	for i, part := range parts {
		if t, err := time.Parse(NameTimestampLayout, part); err == nil {
			return strings.Join(parts[:i], "_"), t, true
		}
	}
	return base, time.Time{}, false
}

package core

import (
	"strings"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// ApprovalPolicy decides whether a freshly-created draft may skip human
// review and land directly in Approved. The drafting handler consults it for
// every draft it creates.
type ApprovalPolicy interface {
	AutoApprove(source *models.Item, draft *models.Item) bool
}

// manualApprovalPolicy never auto-approves; every draft waits for a human.
type manualApprovalPolicy struct{}

// NewManualApprovalPolicy returns the policy that sends every draft through
// Pending_Approval.
func NewManualApprovalPolicy() ApprovalPolicy {
	return manualApprovalPolicy{}
}

func (manualApprovalPolicy) AutoApprove(*models.Item, *models.Item) bool {
	return false
}

// contactApprovalPolicy auto-approves drafts replying to a fixed allowlist
// of contacts. Contacts are matched case-insensitively against the source
// item's from/contact headers.
type contactApprovalPolicy struct {
	contacts map[string]struct{}
}

// NewContactApprovalPolicy returns a policy auto-approving drafts whose
// source came from one of the given contacts. An empty list behaves like the
// manual policy.
func NewContactApprovalPolicy(contacts []string) ApprovalPolicy {
	set := make(map[string]struct{}, len(contacts))
	for _, c := range contacts {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return &contactApprovalPolicy{contacts: set}
}

func (p *contactApprovalPolicy) AutoApprove(source *models.Item, _ *models.Item) bool {
	if len(p.contacts) == 0 || source == nil {
		return false
	}
	for _, key := range []string{"from", "contact", "author"} {
		if v, ok := source.HeaderValue(key); ok {
			if _, allowed := p.contacts[strings.ToLower(strings.TrimSpace(v))]; allowed {
				return true
			}
		}
	}
	return false
}

// PolicyFromConfig builds the approval policy the configuration asks for.
// Auto-approve stays off unless explicitly enabled with a contact list.
func PolicyFromConfig(cfg *models.OrchestratorConfig) ApprovalPolicy {
	if cfg != nil && cfg.AutoApprove && len(cfg.AutoApproveContacts) > 0 {
		return NewContactApprovalPolicy(cfg.AutoApproveContacts)
	}
	return NewManualApprovalPolicy()
}

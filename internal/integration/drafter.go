// Package integration holds the external collaborators the orchestrator
// core depends on: content drafters and the per-kind action executors that
// perform real-world side effects.
package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// DraftArtifact is the content a Drafter proposes for a source item. The
// drafting handler turns it into a new item in Pending_Approval.
type DraftArtifact struct {
	Kind   models.ItemKind
	Header map[string]string
	Body   string
}

// ErrNoTemplate is returned when the drafter has no generator for the
// item's kind. Callers fall back to plan creation rather than treating it
// as a failure.
var ErrNoTemplate = errors.New("no draft template for item kind")

// Drafter generates a proposed response for an incoming item. The kind is
// supplied by the caller, which owns classification.
type Drafter interface {
	Draft(ctx context.Context, item *models.Item, kind models.ItemKind) (*DraftArtifact, error)
}

// templateDrafter produces drafts from fixed templates, quoting the source
// message back. It stands in for an AI-backed generator behind the same
// interface.
type templateDrafter struct{}

// NewTemplateDrafter creates a Drafter that composes replies from templates.
func NewTemplateDrafter() Drafter {
	return &templateDrafter{}
}

// sourceMessage pulls the text being replied to out of the item body, trying
// the section names producers actually use before falling back to the whole
// body.
func sourceMessage(item *models.Item) string {
	for _, section := range []string{"Current Message", "Original Email", "Message", "Content"} {
		if text, ok := vault.Section(item.Body, section); ok && text != "" {
			return text
		}
	}
	return strings.TrimSpace(item.Body)
}

func (d *templateDrafter) Draft(_ context.Context, item *models.Item, kind models.ItemKind) (*DraftArtifact, error) {
	switch kind {
	case models.KindEmail:
		return d.draftEmailReply(item)
	case models.KindWhatsAppMessage:
		return d.draftMessageReply(item)
	case models.KindSocialMention:
		return d.draftSocialPost(item)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoTemplate, kind)
	}
}

func (d *templateDrafter) draftEmailReply(item *models.Item) (*DraftArtifact, error) {
	hdr := models.ParseEmailHeader(item.Header)
	if !hdr.Valid() {
		return nil, fmt.Errorf("drafting email reply for %s: missing from header", item.Name)
	}

	body := fmt.Sprintf(
		"## Original Email\n\n%s\n\n## Suggested Reply\n\nHi,\n\nThanks for reaching out. I have received your message and will follow up shortly.\n\nBest regards\n\n## Status\n\nAwaiting approval\n",
		sourceMessage(item),
	)

	return &DraftArtifact{
		Kind: models.KindEmailDraft,
		Header: map[string]string{
			"type":    string(models.KindEmailDraft),
			"action":  string(models.ActionEmailReply),
			"to":      hdr.From,
			"subject": replySubject(hdr.Subject),
			"source":  item.Name,
		},
		Body: body,
	}, nil
}

func (d *templateDrafter) draftMessageReply(item *models.Item) (*DraftArtifact, error) {
	hdr := models.ParseWhatsAppHeader(item.Header)
	if !hdr.Valid() {
		return nil, fmt.Errorf("drafting message reply for %s: missing contact header", item.Name)
	}

	body := fmt.Sprintf(
		"## Original Message\n\n%s\n\n## Suggested Reply\n\nThanks for your message, I will get back to you soon.\n\n## Status\n\nAwaiting approval\n",
		sourceMessage(item),
	)

	contact := hdr.Contact
	if contact == "" {
		contact = hdr.From
	}

	return &DraftArtifact{
		Kind: models.KindEmailDraft,
		Header: map[string]string{
			"type":   string(models.KindEmailDraft),
			"action": string(models.ActionEmailReply),
			"to":     contact,
			"source": item.Name,
		},
		Body: body,
	}, nil
}

func (d *templateDrafter) draftSocialPost(item *models.Item) (*DraftArtifact, error) {
	hdr := models.ParseSocialHeader(item.Header)

	body := fmt.Sprintf(
		"## Mention\n\n%s\n\n## Suggested Post\n\nThanks for the mention! More updates coming soon.\n\n## Status\n\nAwaiting approval\n",
		sourceMessage(item),
	)

	header := map[string]string{
		"type":   string(models.KindSocialPost),
		"action": string(models.ActionSocialPost),
		"source": item.Name,
	}
	if hdr.Platform != "" {
		header["platform"] = hdr.Platform
	}
	if hdr.Author != "" {
		header["in_reply_to"] = hdr.Author
	}

	return &DraftArtifact{
		Kind:   models.KindSocialPost,
		Header: header,
		Body:   body,
	}, nil
}

func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "Re: your message"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

package models

import "strings"

// Typed header views. Frontmatter fields are advisory and untrusted, so each
// view records which fields were actually present; handlers decide what to do
// with the gaps instead of crashing on them.

// EmailHeader is the typed view of an email (or email draft) item header.
type EmailHeader struct {
	From      string
	To        string
	Subject   string
	MessageID string
}

// Valid reports whether the header carries enough to draft or send a reply.
func (h EmailHeader) Valid() bool {
	return h.From != "" || h.To != ""
}

// WhatsAppHeader is the typed view of a WhatsApp message item header.
type WhatsAppHeader struct {
	From    string
	Contact string
	ChatID  string
}

func (h WhatsAppHeader) Valid() bool {
	return h.From != "" || h.ChatID != ""
}

// SocialHeader is the typed view of a social mention or post item header.
type SocialHeader struct {
	Platform string
	Author   string
	PostID   string
}

func (h SocialHeader) Valid() bool {
	return h.Platform != "" || h.Author != ""
}

// InvoiceHeader is the typed view of an invoice draft item header.
type InvoiceHeader struct {
	Contact string
	Amount  string
	Source  string
}

func (h InvoiceHeader) Valid() bool {
	return h.Contact != "" && h.Amount != ""
}

// ParseEmailHeader extracts the email view from a raw header map.
func ParseEmailHeader(header map[string]string) EmailHeader {
	return EmailHeader{
		From:      headerGet(header, "from"),
		To:        headerGet(header, "to"),
		Subject:   headerGet(header, "subject"),
		MessageID: headerGet(header, "message_id"),
	}
}

// ParseWhatsAppHeader extracts the WhatsApp view from a raw header map.
func ParseWhatsAppHeader(header map[string]string) WhatsAppHeader {
	return WhatsAppHeader{
		From:    headerGet(header, "from"),
		Contact: headerGet(header, "contact"),
		ChatID:  headerGet(header, "chat_id"),
	}
}

// ParseSocialHeader extracts the social view from a raw header map.
func ParseSocialHeader(header map[string]string) SocialHeader {
	return SocialHeader{
		Platform: headerGet(header, "platform"),
		Author:   headerGet(header, "author"),
		PostID:   headerGet(header, "post_id"),
	}
}

// ParseInvoiceHeader extracts the invoice view from a raw header map.
func ParseInvoiceHeader(header map[string]string) InvoiceHeader {
	return InvoiceHeader{
		Contact: headerGet(header, "contact"),
		Amount:  headerGet(header, "amount"),
		Source:  headerGet(header, "source"),
	}
}

func headerGet(header map[string]string, key string) string {
	if header == nil {
		return ""
	}
	return strings.TrimSpace(header[key])
}

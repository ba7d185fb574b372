package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// Notifier surfaces alerts to a human.
type Notifier interface {
	Notify(alerts []Alert) error
}

// vaultNotifier writes alerts into the Needs_Action stage so they show up in
// the same review surface as regular work items.
type vaultNotifier struct {
	store vault.Store
	now   func() time.Time
}

// NewVaultNotifier creates a Notifier that files alerts as Needs_Action items.
func NewVaultNotifier(store vault.Store) Notifier {
	return &vaultNotifier{store: store, now: time.Now}
}

// Notify writes one markdown item per alert. It returns nil without touching
// the vault if the alerts slice is empty.
func (v *vaultNotifier) Notify(alerts []Alert) error {
	for _, alert := range alerts {
		name := vault.NewName(models.KindAlert, v.now().UTC())
		item := &models.Item{
			Name: name,
			Header: map[string]string{
				"type":      string(models.KindAlert),
				"condition": alert.Condition,
				"severity":  string(alert.Severity),
			},
			Body: fmt.Sprintf("## Alert\n\n%s\n\n## Status\n\nTriggered at %s\n",
				alert.Message, alert.TriggeredAt.Format(time.RFC3339)),
		}
		if err := v.store.Create(models.StageNeedsAction, item); err != nil {
			return fmt.Errorf("filing alert %s: %w", alert.ID, err)
		}
	}
	return nil
}

// webhookNotifier posts alert summaries to an HTTP webhook.
type webhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a Notifier that posts alerts to the given
// webhook URL as a JSON payload.
func NewWebhookNotifier(webhookURL string) Notifier {
	return &webhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Text   string  `json:"text"`
	Alerts []Alert `json:"alerts"`
}

// Notify sends the given alerts to the configured webhook.
// It returns nil without making a request if the alerts slice is empty.
func (w *webhookNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var lines []string
	for _, alert := range alerts {
		lines = append(lines, fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Message))
	}
	payload := webhookPayload{
		Text:   strings.Join(lines, "\n"),
		Alerts: alerts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	resp, err := w.client.Post(w.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// multiNotifier fans alerts out to several notifiers, returning the first
// error but attempting every delivery.
type multiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a Notifier that delivers to every given notifier.
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	return &multiNotifier{notifiers: notifiers}
}

func (m *multiNotifier) Notify(alerts []Alert) error {
	var firstErr error
	for _, n := range m.notifiers {
		if err := n.Notify(alerts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

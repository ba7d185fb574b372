package observability

import (
	"fmt"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	StuckApprovedMinutes int `yaml:"stuck_approved_minutes" json:"stuck_approved_minutes"`
	MaxPendingApproval   int `yaml:"max_pending_approval" json:"max_pending_approval"`
	DegradedWindowHours  int `yaml:"degraded_window_hours" json:"degraded_window_hours"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		StuckApprovedMinutes: 30,
		MaxPendingApproval:   25,
		DegradedWindowHours:  24,
	}
}

// AlertEngine evaluates alert conditions against the vault and audit log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by inspecting stage contents and
// recent audit entries.
type alertEngine struct {
	store      vault.Store
	auditLog   AuditLog
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine over the given store and audit log.
func NewAlertEngine(store vault.Store, auditLog AuditLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		store:      store,
		auditLog:   auditLog,
		thresholds: thresholds,
	}
}

// Evaluate checks all alert conditions, returning any triggered alerts.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := time.Now().UTC()
	var alerts []Alert

	stuck, err := ae.checkStuckApproved(now)
	if err != nil {
		return nil, fmt.Errorf("checking stuck approved items: %w", err)
	}
	alerts = append(alerts, stuck...)

	pending, err := ae.checkPendingBacklog(now)
	if err != nil {
		return nil, fmt.Errorf("checking pending approval backlog: %w", err)
	}
	alerts = append(alerts, pending...)

	degraded, err := ae.checkWatcherDegraded(now)
	if err != nil {
		return nil, fmt.Errorf("checking watcher degradation: %w", err)
	}
	alerts = append(alerts, degraded...)

	return alerts, nil
}

// checkStuckApproved looks for approved items whose execution has been
// failing (or not attempted) longer than the threshold. Age is taken from
// the timestamp embedded in the item name.
func (ae *alertEngine) checkStuckApproved(now time.Time) ([]Alert, error) {
	names, err := ae.store.List(models.StageApproved)
	if err != nil {
		return nil, err
	}

	threshold := time.Duration(ae.thresholds.StuckApprovedMinutes) * time.Minute
	var alerts []Alert
	for _, name := range names {
		_, created, ok := models.SplitItemName(name)
		if !ok {
			continue
		}
		if now.Sub(created) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("stuck-%s", name),
				Condition:   "approved_item_stuck",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("item %s has sat in Approved for more than %d minutes", name, ae.thresholds.StuckApprovedMinutes),
				TriggeredAt: now,
			})
		}
	}
	return alerts, nil
}

// checkPendingBacklog counts items awaiting human review and alerts if the
// queue has outgrown the threshold.
func (ae *alertEngine) checkPendingBacklog(now time.Time) ([]Alert, error) {
	names, err := ae.store.List(models.StagePendingApproval)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	if len(names) > ae.thresholds.MaxPendingApproval {
		alerts = append(alerts, Alert{
			ID:          "pending-backlog",
			Condition:   "pending_approval_backlog",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("Pending_Approval holds %d items, exceeding the maximum of %d", len(names), ae.thresholds.MaxPendingApproval),
			TriggeredAt: now,
		})
	}
	return alerts, nil
}

// checkWatcherDegraded surfaces recent watcher_degraded audit events: the
// system still works via the recovery sweep, but a human should know the
// event-driven path is down.
func (ae *alertEngine) checkWatcherDegraded(now time.Time) ([]Alert, error) {
	since := now.Add(-time.Duration(ae.thresholds.DegradedWindowHours) * time.Hour)
	entries, err := ae.auditLog.Read(EntryFilter{Since: &since, ActionType: "watcher_degraded"})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	last := entries[len(entries)-1]
	return []Alert{{
		ID:          "watcher-degraded",
		Condition:   "watcher_degraded",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("filesystem watcher is degraded since %s; delivery relies on the recovery sweep", last.Timestamp.Format(time.RFC3339)),
		TriggeredAt: now,
	}}, nil
}

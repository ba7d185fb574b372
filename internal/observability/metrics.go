package observability

import (
	"fmt"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// Metrics holds calculated metrics derived from the audit log and the
// current stage contents.
type Metrics struct {
	Ingested     int            `json:"ingested"`
	Drafted      int            `json:"drafted"`
	Executed     int            `json:"executed"`
	Failed       int            `json:"failed"`
	Approved     int            `json:"approved"`
	Rejected     int            `json:"rejected"`
	Recovered    int            `json:"recovered"`
	ByActionType map[string]int `json:"by_action_type"`
	StageCounts  map[string]int `json:"stage_counts"`
	EntryCount   int            `json:"entry_count"`
	OldestEntry  *time.Time     `json:"oldest_entry,omitempty"`
	NewestEntry  *time.Time     `json:"newest_entry,omitempty"`
}

// MetricsCalculator derives metrics from the audit log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an AuditLog
// and counting live stage contents.
type metricsCalculator struct {
	store    vault.Store
	auditLog AuditLog
}

// NewMetricsCalculator creates a new MetricsCalculator over the given store
// and audit log.
func NewMetricsCalculator(store vault.Store, auditLog AuditLog) MetricsCalculator {
	return &metricsCalculator{store: store, auditLog: auditLog}
}

// Calculate reads all audit entries since the given time and aggregates them
// into metrics, along with a per-stage item count.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	entries, err := mc.auditLog.Read(EntryFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading entries for metrics: %w", err)
	}

	m := &Metrics{
		ByActionType: make(map[string]int),
		StageCounts:  make(map[string]int),
	}

	m.EntryCount = len(entries)

	for i, entry := range entries {
		if i == 0 {
			t := entry.Timestamp
			m.OldestEntry = &t
		}
		t := entry.Timestamp
		m.NewestEntry = &t

		switch entry.ActionType {
		case "ingest":
			m.Ingested++
		case "draft_created":
			m.Drafted++
		case "approve":
			m.Approved++
		case "reject":
			m.Rejected++
		case "recovery_sweep":
			m.Recovered++
		default:
			if entry.Actor != "execution_handler" {
				continue
			}
			switch entry.Result {
			case ResultSuccess:
				m.Executed++
				m.ByActionType[entry.ActionType]++
			case ResultFailure:
				m.Failed++
			}
		}
	}

	for _, stage := range models.AllStages {
		names, err := mc.store.List(stage)
		if err != nil {
			return nil, fmt.Errorf("counting stage %s: %w", stage, err)
		}
		m.StageCounts[string(stage)] = len(names)
	}

	return m, nil
}

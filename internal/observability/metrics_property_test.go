package observability

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// For any N ingest entries appended to an audit log, the MetricsCalculator
// reports Ingested == N.
func TestMetricsIngestedMatchesEntries(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestVault(t)
		log := newTestAuditLog(t)

		numEntries := rapid.IntRange(1, 20).Draw(rt, "numEntries")
		baseTime := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		for i := 0; i < numEntries; i++ {
			minuteOffset := rapid.IntRange(0, 10080).Draw(rt, fmt.Sprintf("minuteOffset_%d", i))
			entry := Entry{
				Timestamp:  baseTime.Add(time.Duration(minuteOffset) * time.Minute),
				Actor:      "router",
				ActionType: "ingest",
				Target:     fmt.Sprintf("EMAIL_20260115T100000_i%d.md", i),
				Result:     ResultSuccess,
			}
			if err := log.Append(entry); err != nil {
				t.Fatalf("appending entry: %v", err)
			}
		}

		calc := NewMetricsCalculator(store, log)
		since := baseTime.Add(-time.Hour)
		metrics, err := calc.Calculate(since)
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}

		if metrics.Ingested != numEntries {
			rt.Errorf("Ingested = %d, want %d", metrics.Ingested, numEntries)
		}
	})
}

// For any mix of execution outcomes, Executed counts exactly the successes
// and Failed exactly the failures, and the two always sum to the number of
// execution entries.
func TestMetricsExecutionSplitMatchesOutcomes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestVault(t)
		log := newTestAuditLog(t)

		numEntries := rapid.IntRange(1, 20).Draw(rt, "numEntries")
		baseTime := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		actionTypes := []string{"email_reply", "social_post", "invoice_create", "payment"}

		wantSuccess := 0
		for i := 0; i < numEntries; i++ {
			ok := rapid.Bool().Draw(rt, fmt.Sprintf("ok_%d", i))
			result := ResultFailure
			if ok {
				result = ResultSuccess
				wantSuccess++
			}
			entry := Entry{
				Timestamp:  baseTime.Add(time.Duration(i) * time.Second),
				Actor:      "execution_handler",
				ActionType: rapid.SampledFrom(actionTypes).Draw(rt, fmt.Sprintf("actionType_%d", i)),
				Target:     fmt.Sprintf("EMAIL_DRAFT_20260115T100000_e%d.md", i),
				Result:     result,
			}
			if err := log.Append(entry); err != nil {
				t.Fatalf("appending entry: %v", err)
			}
		}

		calc := NewMetricsCalculator(store, log)
		since := baseTime.Add(-time.Hour)
		metrics, err := calc.Calculate(since)
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}

		if metrics.Executed != wantSuccess {
			rt.Errorf("Executed = %d, want %d", metrics.Executed, wantSuccess)
		}
		if metrics.Failed != numEntries-wantSuccess {
			rt.Errorf("Failed = %d, want %d", metrics.Failed, numEntries-wantSuccess)
		}
		if metrics.Executed+metrics.Failed != numEntries {
			rt.Errorf("Executed+Failed = %d, want %d", metrics.Executed+metrics.Failed, numEntries)
		}
	})
}

// For any mix of entry kinds, EntryCount equals the total number of entries
// appended after the cutoff.
func TestMetricsEntryCountIsTotal(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestVault(t)
		log := newTestAuditLog(t)

		numEntries := rapid.IntRange(1, 20).Draw(rt, "numEntries")
		baseTime := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		actionTypes := []string{"ingest", "draft_created", "approve", "reject", "recovery_sweep", "email_reply"}

		for i := 0; i < numEntries; i++ {
			actionType := rapid.SampledFrom(actionTypes).Draw(rt, fmt.Sprintf("actionType_%d", i))
			actor := "router"
			if actionType == "email_reply" {
				actor = "execution_handler"
			}
			entry := Entry{
				Timestamp:  baseTime.Add(time.Duration(i) * time.Second),
				Actor:      actor,
				ActionType: actionType,
				Result:     ResultSuccess,
			}
			if err := log.Append(entry); err != nil {
				t.Fatalf("appending entry: %v", err)
			}
		}

		calc := NewMetricsCalculator(store, log)
		since := baseTime.Add(-time.Hour)
		metrics, err := calc.Calculate(since)
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}

		if metrics.EntryCount != numEntries {
			rt.Errorf("EntryCount = %d, want %d", metrics.EntryCount, numEntries)
		}
	})
}

package observability

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// For any set of Approved items older than the threshold, the AlertEngine
// raises exactly one stuck alert per item, and none for fresh items.
func TestAlertStuckApprovedCountMatchesOldItems(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestVault(t)
		log := newTestAuditLog(t)
		thresholds := DefaultAlertThresholds()
		engine := NewAlertEngine(store, log, thresholds)

		now := time.Now().UTC()
		numItems := rapid.IntRange(1, 10).Draw(rt, "numItems")

		wantStuck := 0
		for i := 0; i < numItems; i++ {
			stuck := rapid.Bool().Draw(rt, fmt.Sprintf("stuck_%d", i))
			age := time.Duration(rapid.IntRange(0, int(time.Duration(thresholds.StuckApprovedMinutes)*time.Minute/time.Second)-60).Draw(rt, fmt.Sprintf("age_%d", i))) * time.Second
			if stuck {
				age += time.Duration(thresholds.StuckApprovedMinutes)*time.Minute + time.Minute
				wantStuck++
			}
			name := models.NewItemName("EMAIL_DRAFT", now.Add(-age), fmt.Sprintf("p%d", i))
			createItem(t, store, models.StageApproved, name)
		}

		alerts, err := engine.Evaluate()
		if err != nil {
			t.Fatalf("evaluating alerts: %v", err)
		}

		gotStuck := 0
		for _, alert := range alerts {
			if alert.Condition == "approved_item_stuck" {
				gotStuck++
			}
		}
		if gotStuck != wantStuck {
			rt.Errorf("stuck alerts = %d, want %d", gotStuck, wantStuck)
		}
	})
}

// The pending backlog alert fires exactly when the Pending_Approval count
// exceeds the configured maximum.
func TestAlertPendingBacklogThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newTestVault(t)
		log := newTestAuditLog(t)
		thresholds := DefaultAlertThresholds()
		thresholds.MaxPendingApproval = rapid.IntRange(1, 8).Draw(rt, "maxPending")
		engine := NewAlertEngine(store, log, thresholds)

		now := time.Now().UTC()
		numItems := rapid.IntRange(0, 12).Draw(rt, "numItems")
		for i := 0; i < numItems; i++ {
			name := models.NewItemName("EMAIL_DRAFT", now, fmt.Sprintf("q%d", i))
			createItem(t, store, models.StagePendingApproval, name)
		}

		alerts, err := engine.Evaluate()
		if err != nil {
			t.Fatalf("evaluating alerts: %v", err)
		}

		var backlog []Alert
		for _, alert := range alerts {
			if alert.Condition == "pending_approval_backlog" {
				backlog = append(backlog, alert)
			}
		}

		if numItems > thresholds.MaxPendingApproval {
			if len(backlog) != 1 {
				rt.Errorf("expected 1 backlog alert for %d items over max %d, got %d", numItems, thresholds.MaxPendingApproval, len(backlog))
			}
		} else if len(backlog) != 0 {
			rt.Errorf("expected no backlog alert for %d items under max %d, got %d", numItems, thresholds.MaxPendingApproval, len(backlog))
		}
	})
}

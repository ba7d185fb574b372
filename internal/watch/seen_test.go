package watch

import (
	"sync"
	"testing"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

func TestSeenSet_FirstMarkWins(t *testing.T) {
	s := NewSeenSet()

	if s.Seen(models.StageInbox, "EMAIL_1.md") {
		t.Error("expected fresh key to be unseen")
	}
	if !s.MarkIfNew(models.StageInbox, "EMAIL_1.md") {
		t.Error("expected first mark to win")
	}
	if s.MarkIfNew(models.StageInbox, "EMAIL_1.md") {
		t.Error("expected second mark to lose")
	}
	if !s.Seen(models.StageInbox, "EMAIL_1.md") {
		t.Error("expected key to be seen after marking")
	}
}

func TestSeenSet_KeyedByStageAndName(t *testing.T) {
	s := NewSeenSet()

	if !s.MarkIfNew(models.StageInbox, "EMAIL_1.md") {
		t.Fatal("first stage mark should win")
	}
	if !s.MarkIfNew(models.StageApproved, "EMAIL_1.md") {
		t.Error("same name in another stage is a distinct observation")
	}
}

func TestSeenSet_ForgetAllowsRemark(t *testing.T) {
	s := NewSeenSet()

	if !s.MarkIfNew(models.StageApproved, "EMAIL_DRAFT_1.md") {
		t.Fatal("first mark should win")
	}
	s.Forget(models.StageApproved, "EMAIL_DRAFT_1.md")

	if s.Seen(models.StageApproved, "EMAIL_DRAFT_1.md") {
		t.Error("expected forgotten observation to be unseen")
	}
	if !s.MarkIfNew(models.StageApproved, "EMAIL_DRAFT_1.md") {
		t.Error("expected mark to win again after forgetting")
	}
}

func TestSeenSet_ConcurrentObserversOneWinner(t *testing.T) {
	s := NewSeenSet()

	const observers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, observers)
	for i := 0; i < observers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.MarkIfNew(models.StageApproved, "INVOICE_DRAFT_1.md") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Errorf("expected exactly one winner, got %d", won)
	}
}

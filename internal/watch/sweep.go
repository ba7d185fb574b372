package watch

import (
	"context"
	"fmt"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// Sweeper scans stage directories directly, bypassing fsnotify, to catch
// items that existed before startup or whose events were dropped. It shares
// the watcher's seen-set, so both producers together still yield one
// notification per item. Delivery goes through a callback rather than the
// watcher's channel because sweeps run on the consumer's own goroutine.
type Sweeper struct {
	store   vault.Store
	seen    *SeenSet
	deliver func(Notification)
}

// NewSweeper creates a Sweeper delivering through the given callback.
func NewSweeper(store vault.Store, seen *SeenSet, deliver func(Notification)) *Sweeper {
	return &Sweeper{store: store, seen: seen, deliver: deliver}
}

// Sweep lists a stage and delivers a notification for every item not yet
// seen. It returns the names it newly delivered.
func (s *Sweeper) Sweep(ctx context.Context, stage models.Stage) ([]string, error) {
	names, err := s.store.List(stage)
	if err != nil {
		return nil, fmt.Errorf("sweeping stage %s: %w", stage, err)
	}

	var delivered []string
	for _, name := range names {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if !s.seen.MarkIfNew(stage, name) {
			continue
		}
		s.deliver(Notification{Stage: stage, Name: name})
		delivered = append(delivered, name)
	}
	return delivered, nil
}

// Resweep forgets every item still present in the stage and delivers each
// one again. Items in a drained stage are expected to move out once handled,
// so anything still sitting there after a full cycle needs another attempt.
func (s *Sweeper) Resweep(ctx context.Context, stage models.Stage) ([]string, error) {
	names, err := s.store.List(stage)
	if err != nil {
		return nil, fmt.Errorf("resweeping stage %s: %w", stage, err)
	}
	for _, name := range names {
		s.seen.Forget(stage, name)
	}
	return s.Sweep(ctx, stage)
}

// SweepAll sweeps every given stage in order, used at startup to make
// pre-existing items visible.
func (s *Sweeper) SweepAll(ctx context.Context, stages []models.Stage) error {
	for _, stage := range stages {
		if _, err := s.Sweep(ctx, stage); err != nil {
			return err
		}
	}
	return nil
}

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/internal/watch"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// batchTickInterval is the cadence of the control loop's quiescence checks.
const batchTickInterval = 250 * time.Millisecond

// Orchestrator owns the control loop: it wires the watcher and sweeper into
// the batch scheduler, drives flushed batches through the router, and
// guarantees a final flush on shutdown.
type Orchestrator struct {
	cfg      *models.OrchestratorConfig
	store    vault.Store
	router   *Router
	batcher  *Batcher
	seen     *watch.SeenSet
	auditLog observability.AuditLog

	notifyCh chan watch.Notification
}

// NewOrchestrator assembles the control loop around an already-wired router.
func NewOrchestrator(cfg *models.OrchestratorConfig, store vault.Store, router *Router, auditLog observability.AuditLog) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		store:    store,
		router:   router,
		seen:     watch.NewSeenSet(),
		auditLog: auditLog,
		notifyCh: make(chan watch.Notification, 256),
	}
	o.batcher = NewBatcher(cfg.BatchCeiling, cfg.BatchQuiescence, o.dispatch)
	return o
}

// dispatch hands one flushed batch to the router on the calling goroutine.
func (o *Orchestrator) dispatch(stage models.Stage, names []string) {
	o.router.Dispatch(context.Background(), stage, names)
}

// Run executes the control loop until ctx is cancelled. Before exiting it
// flushes every pending in-memory batch so no enqueued item is lost.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.store.EnsureLayout(); err != nil {
		return fmt.Errorf("preparing vault: %w", err)
	}

	var watcher *watch.StageWatcher
	if o.cfg.WatcherEnabled {
		watcher = watch.NewStageWatcher(o.store, models.DrainedStages, o.seen, o.notifyCh)
		if err := watcher.Start(ctx); err != nil {
			// Degraded, not fatal: the sweep below is the delivery path now.
			o.audit(observability.Entry{
				Actor:      "stage_watcher",
				ActionType: "watcher_degraded",
				Result:     observability.ResultFailure,
				Error:      err.Error(),
			})
		}
	}

	sweeper := watch.NewSweeper(o.store, o.seen, func(n watch.Notification) {
		o.batcher.Enqueue(n.Stage, n.Name)
	})

	// Startup sweep catches everything that existed before the process did.
	if err := sweeper.SweepAll(ctx, models.DrainedStages); err != nil && ctx.Err() == nil {
		return fmt.Errorf("startup sweep: %w", err)
	}

	batchTicker := time.NewTicker(batchTickInterval)
	defer batchTicker.Stop()
	sweepTicker := time.NewTicker(o.cfg.SweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.batcher.FlushAll()
			return nil

		case n := <-o.notifyCh:
			o.batcher.Enqueue(n.Stage, n.Name)

		case <-batchTicker.C:
			o.batcher.Tick()

		case <-sweepTicker.C:
			o.recoverySweep(ctx, sweeper, watcher)
		}
	}
}

// recoverySweep runs one periodic sweep pass. Approved is reswept so failed
// executions get another attempt. When the watcher is off or degraded the
// sweep is the only delivery path left, so it covers every drained stage
// instead of Approved alone.
func (o *Orchestrator) recoverySweep(ctx context.Context, sweeper *watch.Sweeper, watcher *watch.StageWatcher) {
	stages := []models.Stage{models.StageApproved}
	if watcher == nil || watcher.Degraded() {
		stages = models.DrainedStages
	}

	delivered := 0
	for _, stage := range stages {
		var names []string
		var err error
		if stage == models.StageApproved {
			names, err = sweeper.Resweep(ctx, stage)
		} else {
			names, err = sweeper.Sweep(ctx, stage)
		}
		if err != nil && ctx.Err() == nil {
			o.audit(observability.Entry{
				Actor:      "recovery_sweep",
				ActionType: "recovery_sweep",
				Result:     observability.ResultFailure,
				Error:      err.Error(),
			})
			return
		}
		delivered += len(names)
	}

	if delivered > 0 {
		o.audit(observability.Entry{
			Actor:      "recovery_sweep",
			ActionType: "recovery_sweep",
			Result:     observability.ResultSuccess,
			Detail:     fmt.Sprintf("delivered %d items", delivered),
		})
	}
}

// RunOnce performs a single non-daemon cycle: sweep every drained stage and
// flush everything it found. Used by the one-shot CLI command.
func (o *Orchestrator) RunOnce(ctx context.Context) error {
	if err := o.store.EnsureLayout(); err != nil {
		return fmt.Errorf("preparing vault: %w", err)
	}

	sweeper := watch.NewSweeper(o.store, o.seen, func(n watch.Notification) {
		o.batcher.Enqueue(n.Stage, n.Name)
	})
	if err := sweeper.SweepAll(ctx, models.DrainedStages); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	o.batcher.FlushAll()
	return nil
}

func (o *Orchestrator) audit(entry observability.Entry) {
	if o.auditLog == nil {
		return
	}
	_ = o.auditLog.Append(entry)
}

package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// StageWatcher observes stage directories through fsnotify and emits one
// logical appeared-notification per item. It never fails the process: when
// fsnotify cannot start, the watcher reports itself degraded and the sweeper
// remains the sole delivery path.
type StageWatcher struct {
	store    vault.Store
	stages   []models.Stage
	seen     *SeenSet
	notifyCh chan<- Notification

	fs       *fsnotify.Watcher
	degraded bool
}

// NewStageWatcher creates a watcher for the given stages, delivering
// notifications through notifyCh and deduplicating through seen.
func NewStageWatcher(store vault.Store, stages []models.Stage, seen *SeenSet, notifyCh chan<- Notification) *StageWatcher {
	return &StageWatcher{
		store:    store,
		stages:   stages,
		seen:     seen,
		notifyCh: notifyCh,
	}
}

// Start initializes fsnotify and begins delivering notifications. A startup
// failure puts the watcher into degraded mode instead of propagating: the
// returned error is informational and the caller should keep running.
func (w *StageWatcher) Start(ctx context.Context) error {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		w.degraded = true
		return fmt.Errorf("starting filesystem watcher: %w", err)
	}

	for _, stage := range w.stages {
		if err := fs.Add(w.store.StagePath(stage)); err != nil {
			fs.Close()
			w.degraded = true
			return fmt.Errorf("watching stage %s: %w", stage, err)
		}
	}

	w.fs = fs
	go w.loop(ctx)
	return nil
}

// Degraded reports whether the watcher failed to start and delivery relies
// on the recovery sweep alone.
func (w *StageWatcher) Degraded() bool {
	return w.degraded
}

func (w *StageWatcher) loop(ctx context.Context) {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Low-level watch errors are tolerated; the sweep catches
			// anything dropped here.
		}
	}
}

// handleEvent collapses low-level events into at most one notification per
// item. Only create and rename-in events can introduce a new item; writes to
// an already-seen name are modification noise and ignored outright.
func (w *StageWatcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	name := filepath.Base(event.Name)
	if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
		return
	}

	stage, ok := w.stageOf(filepath.Dir(event.Name))
	if !ok {
		return
	}

	if !w.seen.MarkIfNew(stage, name) {
		return
	}

	select {
	case w.notifyCh <- Notification{Stage: stage, Name: name}:
	case <-ctx.Done():
	}
}

func (w *StageWatcher) stageOf(dir string) (models.Stage, bool) {
	for _, stage := range w.stages {
		if filepath.Clean(w.store.StagePath(stage)) == filepath.Clean(dir) {
			return stage, true
		}
	}
	return "", false
}

// Package watch feeds the orchestrator with item-appeared notifications.
// Two independent producers, an fsnotify watcher and a directory-scanning
// sweeper, share one mutex-guarded seen-set, so a single physical creation
// yields exactly one logical notification no matter how many paths observe
// it.
package watch

import (
	"sync"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// Notification is one logical item-appeared event.
type Notification struct {
	Stage models.Stage
	Name  string
}

// SeenSet collapses duplicate observations of the same item. Keys are
// (stage, name) pairs so an item moving between watched stages still
// notifies once per stage.
type SeenSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSeenSet creates an empty SeenSet.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// MarkIfNew atomically records the observation and reports whether it was
// the first one. Concurrent observers of the same item cannot both win.
func (s *SeenSet) MarkIfNew(stage models.Stage, name string) bool {
	key := string(stage) + "/" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Forget drops a prior observation so the item can be delivered again.
func (s *SeenSet) Forget(stage models.Stage, name string) {
	key := string(stage) + "/" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
}

// Seen reports whether the observation was already recorded.
func (s *SeenSet) Seen(stage models.Stage, name string) bool {
	key := string(stage) + "/" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

package core

import (
	"sync"
	"time"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// FlushFunc receives one drained batch for a stage, in enqueue order.
type FlushFunc func(stage models.Stage, names []string)

// Batcher buffers appeared-item notifications per stage and releases them
// together, bounding work-per-wakeup and smoothing bursts. A stage flushes
// when its pending count reaches the ceiling or when the quiescence interval
// has elapsed since its last flush, whichever comes first.
type Batcher struct {
	ceiling    int
	quiescence time.Duration
	flush      FlushFunc
	now        func() time.Time

	mu     sync.Mutex
	queues map[models.Stage]*stageQueue
}

// stageQueue is one stage's pending names plus its flush clock.
type stageQueue struct {
	names     []string
	lastFlush time.Time
}

// NewBatcher creates a Batcher delivering batches to flush.
func NewBatcher(ceiling int, quiescence time.Duration, flush FlushFunc) *Batcher {
	if ceiling < 1 {
		ceiling = 1
	}
	return &Batcher{
		ceiling:    ceiling,
		quiescence: quiescence,
		flush:      flush,
		now:        time.Now,
		queues:     make(map[models.Stage]*stageQueue),
	}
}

// Enqueue adds an item name to a stage's pending queue. Duplicate names are
// collapsed, the later enqueue deciding the ordering position. Reaching the
// ceiling flushes the stage immediately.
func (b *Batcher) Enqueue(stage models.Stage, name string) {
	b.mu.Lock()

	q, ok := b.queues[stage]
	if !ok {
		q = &stageQueue{lastFlush: b.now()}
		b.queues[stage] = q
	}

	for i, existing := range q.names {
		if existing == name {
			q.names = append(q.names[:i], q.names[i+1:]...)
			break
		}
	}
	q.names = append(q.names, name)

	if len(q.names) >= b.ceiling {
		names := b.drainLocked(q)
		b.mu.Unlock()
		b.flush(stage, names)
		return
	}
	b.mu.Unlock()
}

// Tick force-flushes every stage whose queue has aged past the quiescence
// interval, so a slow trickle of single items is never stalled. The
// orchestrator calls it on a sub-second cadence.
func (b *Batcher) Tick() {
	b.mu.Lock()
	now := b.now()
	type due struct {
		stage models.Stage
		names []string
	}
	var ready []due
	for stage, q := range b.queues {
		if len(q.names) == 0 {
			continue
		}
		if now.Sub(q.lastFlush) >= b.quiescence {
			ready = append(ready, due{stage: stage, names: b.drainLocked(q)})
		}
	}
	b.mu.Unlock()

	for _, d := range ready {
		b.flush(d.stage, d.names)
	}
}

// FlushAll drains every non-empty queue regardless of age. Called on
// shutdown so no enqueued-but-unflushed item is lost.
func (b *Batcher) FlushAll() {
	b.mu.Lock()
	type due struct {
		stage models.Stage
		names []string
	}
	var ready []due
	for stage, q := range b.queues {
		if len(q.names) == 0 {
			continue
		}
		ready = append(ready, due{stage: stage, names: b.drainLocked(q)})
	}
	b.mu.Unlock()

	for _, d := range ready {
		b.flush(d.stage, d.names)
	}
}

// Pending returns the number of queued names for a stage.
func (b *Batcher) Pending(stage models.Stage) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[stage]
	if !ok {
		return 0
	}
	return len(q.names)
}

// drainLocked empties a queue and resets its flush clock. Caller holds b.mu.
func (b *Batcher) drainLocked(q *stageQueue) []string {
	names := q.names
	q.names = nil
	q.lastFlush = b.now()
	return names
}

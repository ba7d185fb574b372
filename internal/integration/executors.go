package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// ActionExecutor performs the real-world side effect for one action kind.
// Implementations wrap the actual API client; the core only sees the
// ExecResult contract.
type ActionExecutor interface {
	Kind() models.ActionKind
	Execute(ctx context.Context, item *models.Item) (models.ExecResult, error)
}

// ExecutorRegistry holds one executor per action kind.
type ExecutorRegistry struct {
	mu        sync.RWMutex
	executors map[models.ActionKind]ActionExecutor
}

// NewExecutorRegistry creates an empty registry.
func NewExecutorRegistry() *ExecutorRegistry {
	return &ExecutorRegistry{executors: make(map[models.ActionKind]ActionExecutor)}
}

// Register adds an executor, replacing any previous one for the same kind.
func (r *ExecutorRegistry) Register(exec ActionExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[exec.Kind()] = exec
}

// Lookup returns the executor for a kind, if one is registered.
func (r *ExecutorRegistry) Lookup(kind models.ActionKind) (ActionExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executors[kind]
	return exec, ok
}

// Kinds returns the registered action kinds.
func (r *ExecutorRegistry) Kinds() []models.ActionKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]models.ActionKind, 0, len(r.executors))
	for k := range r.executors {
		kinds = append(kinds, k)
	}
	return kinds
}

// WithTimeout wraps an executor so its Execute call is bounded. A timeout
// counts as a failed execution, leaving the item for the next sweep.
func WithTimeout(exec ActionExecutor, timeout time.Duration) ActionExecutor {
	return &timeoutExecutor{inner: exec, timeout: timeout}
}

type timeoutExecutor struct {
	inner   ActionExecutor
	timeout time.Duration
}

func (t *timeoutExecutor) Kind() models.ActionKind {
	return t.inner.Kind()
}

type execOutcome struct {
	result models.ExecResult
	err    error
}

// Execute runs the inner executor in its own goroutine. On timeout the call
// is abandoned rather than hard-cancelled; the inner call runs to its own
// completion so a side effect is never half-interrupted.
func (t *timeoutExecutor) Execute(ctx context.Context, item *models.Item) (models.ExecResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan execOutcome, 1)
	go func() {
		result, err := t.inner.Execute(ctx, item)
		done <- execOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return models.ExecResult{}, fmt.Errorf("executing %s: %w", item.Name, ctx.Err())
	}
}

// outboxExecutor records each executed action as a JSON line in an outbox
// file. A delivery process (or a human) picks the outbox up from there, so
// the orchestrator never needs credentials.
type outboxExecutor struct {
	mu   sync.Mutex
	kind models.ActionKind
	path string
}

// NewOutboxExecutor creates an executor for kind that appends to the given
// outbox file.
func NewOutboxExecutor(kind models.ActionKind, path string) (ActionExecutor, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating outbox directory: %w", err)
	}
	return &outboxExecutor{kind: kind, path: path}, nil
}

type outboxRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Item      string            `json:"item"`
	Header    map[string]string `json:"header,omitempty"`
	Body      string            `json:"body,omitempty"`
}

func (e *outboxExecutor) Kind() models.ActionKind {
	return e.kind
}

func (e *outboxExecutor) Execute(_ context.Context, item *models.Item) (models.ExecResult, error) {
	record := outboxRecord{
		Timestamp: time.Now().UTC(),
		Action:    string(e.kind),
		Item:      item.Name,
		Header:    item.Header,
		Body:      executionPayload(item),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return models.ExecResult{}, fmt.Errorf("marshaling outbox record for %s: %w", item.Name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return models.ExecResult{}, fmt.Errorf("opening outbox %s: %w", e.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return models.ExecResult{}, fmt.Errorf("appending outbox record for %s: %w", item.Name, err)
	}

	return models.ExecResult{OK: true, Detail: fmt.Sprintf("%s queued to outbox", e.kind)}, nil
}

// executionPayload extracts the part of the body the executor actually sends:
// the approved reply or post text, or the full body when no known section is
// present.
func executionPayload(item *models.Item) string {
	for _, section := range []string{"Suggested Reply", "Suggested Post", "Invoice", "Details"} {
		if text, ok := vault.Section(item.Body, section); ok && text != "" {
			return text
		}
	}
	return item.Body
}

// FuncExecutor adapts a plain function into an ActionExecutor, used in tests
// and for loopback wiring.
type FuncExecutor struct {
	ActionKind models.ActionKind
	Fn         func(ctx context.Context, item *models.Item) (models.ExecResult, error)
}

func (f *FuncExecutor) Kind() models.ActionKind {
	return f.ActionKind
}

func (f *FuncExecutor) Execute(ctx context.Context, item *models.Item) (models.ExecResult, error) {
	return f.Fn(ctx, item)
}

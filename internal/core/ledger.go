package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Ledger is the durable record of work already performed. Execution marks
// item names; drafting marks derived keys like "draft:EMAIL_...". A key can
// be marked at most once while it stays marked, so every consumer gets
// at-most-once semantics even when two delivery paths race. A caller that
// learns its work definitively did not happen releases the mark so the next
// delivery can win it again.
type Ledger interface {
	// Seen reports whether the key is currently marked.
	Seen(key string) bool
	// MarkIfUnseen atomically checks and marks the key. It returns true if
	// this call won the mark, false if the key was already present. The mark
	// is flushed to disk before the method returns.
	MarkIfUnseen(key string) (bool, error)
	// Release unmarks the key so a later MarkIfUnseen can win it again.
	// Releasing an unmarked key is a no-op. The release is flushed to disk
	// before the method returns.
	Release(key string) error
	// Keys returns a snapshot of all marked keys.
	Keys() []string
	Close() error
}

// fileLedger stores keys in memory backed by an append-only file, one key
// per line. A release is recorded as the key with a leading "-". The file is
// replayed on open so restarts keep their history.
type fileLedger struct {
	mu   sync.Mutex
	path string
	file *os.File
	keys map[string]struct{}
}

// NewFileLedger opens (or creates) the ledger file at path and replays its
// contents into memory.
func NewFileLedger(path string) (Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	keys := make(map[string]struct{})
	if data, err := os.ReadFile(path); err == nil {
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if released, ok := strings.CutPrefix(line, "-"); ok {
				delete(keys, released)
				continue
			}
			keys[line] = struct{}{}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}

	return &fileLedger{path: path, file: file, keys: keys}, nil
}

func (l *fileLedger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key]
	return ok
}

func (l *fileLedger) MarkIfUnseen(key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("marking ledger key: key is empty")
	}
	if strings.HasPrefix(key, "-") {
		return false, fmt.Errorf("marking ledger key %q: leading dash is reserved", key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.keys[key]; ok {
		return false, nil
	}

	if _, err := l.file.WriteString(key + "\n"); err != nil {
		return false, fmt.Errorf("appending ledger key %s: %w", key, err)
	}
	if err := l.file.Sync(); err != nil {
		return false, fmt.Errorf("syncing ledger: %w", err)
	}

	l.keys[key] = struct{}{}
	return true, nil
}

func (l *fileLedger) Release(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("releasing ledger key: key is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.keys[key]; !ok {
		return nil
	}

	if _, err := l.file.WriteString("-" + key + "\n"); err != nil {
		return fmt.Errorf("appending ledger release %s: %w", key, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing ledger: %w", err)
	}

	delete(l.keys, key)
	return nil
}

func (l *fileLedger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.keys))
	for k := range l.keys {
		keys = append(keys, k)
	}
	return keys
}

func (l *fileLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// DraftKey builds the ledger key guarding secondary-draft creation for a
// source item, so re-ingesting the same item never yields a second draft.
func DraftKey(sourceName string) string {
	return "draft:" + sourceName
}

// ExecKey builds the ledger key guarding execution of an approved item.
func ExecKey(itemName string) string {
	return "exec:" + itemName
}

package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Result values recorded in audit entries.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultPending = "pending"
)

// Entry is a single audit record: one routing or execution decision.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Actor      string    `json:"actor"`
	ActionType string    `json:"action_type"`
	Target     string    `json:"target,omitempty"`
	Result     string    `json:"result"`
	Detail     string    `json:"detail,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// EntryFilter specifies criteria for reading audit entries.
type EntryFilter struct {
	Since      *time.Time
	ActionType string
	Target     string
	Result     string
}

// AuditLog is the append-only record of every routing and execution
// decision. Files rotate by UTC calendar day.
type AuditLog interface {
	Append(entry Entry) error
	Read(filter EntryFilter) ([]Entry, error)
	Close() error
}

// jsonlAuditLog implements AuditLog using one JSONL file per UTC day under
// the given directory (e.g. Logs/2026-08-31.jsonl).
type jsonlAuditLog struct {
	dir string

	mu      sync.Mutex
	file    *os.File
	fileDay string
}

// NewJSONLAuditLog creates an AuditLog writing daily JSONL files under dir.
func NewJSONLAuditLog(dir string) (AuditLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	return &jsonlAuditLog{dir: dir}, nil
}

// Append writes the entry to the current day's file, rotating when the UTC
// day has changed since the last write.
func (l *jsonlAuditLog) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	if entry.Result == "" {
		entry.Result = ResultPending
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	day := entry.Timestamp.Format("2006-01-02")
	if l.file == nil || l.fileDay != day {
		if l.file != nil {
			_ = l.file.Close()
		}
		path := filepath.Join(l.dir, day+".jsonl")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening audit log %s: %w", path, err)
		}
		l.file = f
		l.fileDay = day
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling audit entry: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Read scans every daily file in chronological order and returns entries
// matching the filter. Malformed lines are skipped.
func (l *jsonlAuditLog) Read(filter EntryFilter) ([]Entry, error) {
	files, err := l.logFiles()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, path := range files {
		fileEntries, err := readEntriesFile(path, filter)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fileEntries...)
	}
	return entries, nil
}

// Close closes the currently open daily file, if any.
func (l *jsonlAuditLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileDay = ""
	return err
}

// logFiles lists the daily audit files sorted by name, which for the
// YYYY-MM-DD naming is chronological order.
func (l *jsonlAuditLog) logFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit log directory: %w", err)
	}

	var files []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(l.dir, de.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func readEntriesFile(path string, filter EntryFilter) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // skip malformed lines
		}
		if matchesEntryFilter(entry, filter) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning audit log: %w", err)
	}
	return entries, nil
}

// matchesEntryFilter checks whether an entry satisfies all filter criteria.
func matchesEntryFilter(entry Entry, filter EntryFilter) bool {
	if filter.Since != nil && entry.Timestamp.Before(*filter.Since) {
		return false
	}
	if filter.ActionType != "" && entry.ActionType != filter.ActionType {
		return false
	}
	if filter.Target != "" && entry.Target != filter.Target {
		return false
	}
	if filter.Result != "" && entry.Result != filter.Result {
		return false
	}
	return true
}

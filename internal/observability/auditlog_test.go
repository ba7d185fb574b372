package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestAuditLog_AppendAndRead(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	entries := []Entry{
		{
			Timestamp:  now,
			Actor:      "router",
			ActionType: "ingest",
			Target:     "EMAIL_20260113T120000_a1b2.md",
			Result:     ResultSuccess,
		},
		{
			Timestamp:  now.Add(time.Second),
			Actor:      "execution_handler",
			ActionType: "email_reply",
			Target:     "EMAIL_DRAFT_20260113T120001_c3d4.md",
			Result:     ResultFailure,
			Error:      "smtp unreachable",
		},
	}

	for _, e := range entries {
		if err := log.Append(e); err != nil {
			t.Fatalf("appending entry: %v", err)
		}
	}

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}

	if result[0].ActionType != "ingest" {
		t.Errorf("expected action_type ingest, got %s", result[0].ActionType)
	}
	if result[1].Result != ResultFailure {
		t.Errorf("expected result failure, got %s", result[1].Result)
	}
	if result[1].Error != "smtp unreachable" {
		t.Errorf("expected error detail to round-trip, got %q", result[1].Error)
	}
}

func TestAuditLog_DailyFileNaming(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC()
	if err := log.Append(Entry{Timestamp: now, Actor: "router", ActionType: "ingest", Result: ResultSuccess}); err != nil {
		t.Fatalf("appending entry: %v", err)
	}

	want := filepath.Join(dir, now.Format("2006-01-02")+".jsonl")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected daily file %s to exist: %v", want, err)
	}
}

func TestAuditLog_DefaultsZeroFields(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	if err := log.Append(Entry{Actor: "router", ActionType: "ingest"}); err != nil {
		t.Fatalf("appending entry: %v", err)
	}

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result))
	}
	if result[0].Timestamp.IsZero() {
		t.Error("expected zero timestamp to be defaulted")
	}
	if result[0].Result != ResultPending {
		t.Errorf("expected empty result to default to pending, got %s", result[0].Result)
	}
}

func TestAuditLog_FilterByActionTypeAndResult(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC()
	entries := []Entry{
		{Timestamp: now, Actor: "router", ActionType: "ingest", Result: ResultSuccess},
		{Timestamp: now.Add(time.Second), Actor: "execution_handler", ActionType: "payment", Result: ResultSuccess},
		{Timestamp: now.Add(2 * time.Second), Actor: "execution_handler", ActionType: "payment", Result: ResultFailure},
	}
	for _, e := range entries {
		if err := log.Append(e); err != nil {
			t.Fatalf("appending entry: %v", err)
		}
	}

	result, err := log.Read(EntryFilter{ActionType: "payment", Result: ResultFailure})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 failed payment entry, got %d", len(result))
	}
	if result[0].Result != ResultFailure {
		t.Errorf("expected result failure, got %s", result[0].Result)
	}
}

func TestAuditLog_FilterSince(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		e := Entry{Timestamp: base.Add(time.Duration(i) * time.Hour), Actor: "router", ActionType: "ingest", Result: ResultSuccess}
		if err := log.Append(e); err != nil {
			t.Fatalf("appending entry: %v", err)
		}
	}

	since := base.Add(90 * time.Minute)
	result, err := log.Read(EntryFilter{Since: &since})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries after cutoff, got %d", len(result))
	}
}

func TestAuditLog_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	if err := log.Append(Entry{Actor: "router", ActionType: "ingest", Result: ResultSuccess}); err != nil {
		t.Fatalf("appending entry: %v", err)
	}

	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening daily file: %v", err)
	}
	if _, err := f.WriteString("{not json\n"); err != nil {
		t.Fatalf("writing garbage line: %v", err)
	}
	f.Close()

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected malformed line to be skipped, got %d entries", len(result))
	}
}

func TestAuditLog_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	log, err := NewJSONLAuditLog(dir)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}
	defer log.Close()

	const goroutines = 10
	const entriesPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				e := Entry{Actor: "router", ActionType: "ingest", Result: ResultSuccess}
				if err := log.Append(e); err != nil {
					t.Errorf("concurrent append error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading entries after concurrent appends: %v", err)
	}
	expected := goroutines * entriesPerGoroutine
	if len(result) != expected {
		t.Errorf("expected %d entries, got %d", expected, len(result))
	}
}

package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

func TestExecutorRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewExecutorRegistry()

	if _, ok := registry.Lookup(models.ActionEmailReply); ok {
		t.Error("expected empty registry to miss")
	}

	exec := &FuncExecutor{
		ActionKind: models.ActionEmailReply,
		Fn: func(context.Context, *models.Item) (models.ExecResult, error) {
			return models.ExecResult{OK: true}, nil
		},
	}
	registry.Register(exec)

	got, ok := registry.Lookup(models.ActionEmailReply)
	if !ok || got.Kind() != models.ActionEmailReply {
		t.Errorf("lookup = %v, %v", got, ok)
	}
	if kinds := registry.Kinds(); len(kinds) != 1 {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestOutboxExecutor_AppendsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox", "email.jsonl")
	exec, err := NewOutboxExecutor(models.ActionEmailReply, path)
	if err != nil {
		t.Fatalf("creating outbox executor: %v", err)
	}

	items := []*models.Item{
		{
			Name:   "EMAIL_DRAFT_1.md",
			Header: map[string]string{"to": "a@b.com"},
			Body:   "## Suggested Reply\n\nHi there\n\n## Status\n\nApproved\n",
		},
		{
			Name: "EMAIL_DRAFT_2.md",
			Body: "plain body, no sections\n",
		},
	}
	for _, item := range items {
		result, err := exec.Execute(context.Background(), item)
		if err != nil {
			t.Fatalf("executing %s: %v", item.Name, err)
		}
		if !result.OK {
			t.Fatalf("expected OK result for %s", item.Name)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening outbox: %v", err)
	}
	defer f.Close()

	var records []outboxRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec outboxRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("parsing outbox line: %v", err)
		}
		records = append(records, rec)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 outbox records, got %d", len(records))
	}
	if records[0].Item != "EMAIL_DRAFT_1.md" || records[0].Action != string(models.ActionEmailReply) {
		t.Errorf("first record = %+v", records[0])
	}
	if records[0].Body != "Hi there" {
		t.Errorf("expected reply section as payload, got %q", records[0].Body)
	}
	if records[1].Body != "plain body, no sections\n" {
		t.Errorf("expected full body fallback, got %q", records[1].Body)
	}
}

func TestWithTimeout_TimesOut(t *testing.T) {
	blocked := &FuncExecutor{
		ActionKind: models.ActionEmailReply,
		Fn: func(ctx context.Context, _ *models.Item) (models.ExecResult, error) {
			<-ctx.Done()
			return models.ExecResult{OK: true}, nil
		},
	}
	exec := WithTimeout(blocked, 25*time.Millisecond)

	start := time.Now()
	_, err := exec.Execute(context.Background(), &models.Item{Name: "EMAIL_DRAFT_1.md"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestWithTimeout_PassesThroughResult(t *testing.T) {
	quick := &FuncExecutor{
		ActionKind: models.ActionSocialPost,
		Fn: func(context.Context, *models.Item) (models.ExecResult, error) {
			return models.ExecResult{OK: true, Detail: "posted"}, nil
		},
	}
	exec := WithTimeout(quick, time.Second)

	if exec.Kind() != models.ActionSocialPost {
		t.Errorf("kind = %s", exec.Kind())
	}
	result, err := exec.Execute(context.Background(), &models.Item{Name: "TWEET_1.md"})
	if err != nil {
		t.Fatalf("executing: %v", err)
	}
	if !result.OK || result.Detail != "posted" {
		t.Errorf("result = %+v", result)
	}
}

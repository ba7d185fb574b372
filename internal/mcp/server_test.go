package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- Fake implementations ---

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, nil
}

type fakeAlertEngine struct {
	alerts []observability.Alert
}

func (f *fakeAlertEngine) Evaluate() ([]observability.Alert, error) {
	return f.alerts, nil
}

// --- Test helpers ---

func newTestStore(t *testing.T) vault.Store {
	t.Helper()
	store := vault.NewStore(t.TempDir())
	if err := store.EnsureLayout(); err != nil {
		t.Fatalf("ensuring vault layout: %v", err)
	}
	return store
}

func seedItem(t *testing.T, store vault.Store, stage models.Stage, name string, header map[string]string) {
	t.Helper()
	item := &models.Item{
		Name:   name,
		Header: header,
		Body:   "## Suggested Reply\n\nHi\n",
	}
	if err := store.Create(stage, item); err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeResult parses a tool result into out, preferring structured content.
func decodeResult(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.StructuredContent != nil {
		data, _ := json.Marshal(result.StructuredContent)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshalling structured content: %v", err)
		}
		return
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("unmarshalling result text: %v (text was: %s)", err, text)
	}
}

// --- Tests ---

func TestListItemsAll(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, models.StageInbox, "EMAIL_1.md", map[string]string{"type": "email"})
	seedItem(t, store, models.StagePendingApproval, "EMAIL_DRAFT_1.md", map[string]string{"type": "email_draft"})
	srv := NewServer(store, nil, nil, nil, "test")

	result := callTool(t, srv, "list_items", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out listItemsOutput
	decodeResult(t, result, &out)
	if out.Count != 2 {
		t.Errorf("expected 2 items, got %d", out.Count)
	}
}

func TestListItemsWithStageFilter(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, models.StageInbox, "EMAIL_1.md", map[string]string{"type": "email"})
	seedItem(t, store, models.StagePendingApproval, "EMAIL_DRAFT_1.md", map[string]string{"type": "email_draft"})
	srv := NewServer(store, nil, nil, nil, "test")

	result := callTool(t, srv, "list_items", map[string]any{"stage": "Pending_Approval"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out listItemsOutput
	decodeResult(t, result, &out)
	if out.Count != 1 {
		t.Fatalf("expected 1 item, got %d", out.Count)
	}
	if out.Items[0].Name != "EMAIL_DRAFT_1.md" || out.Items[0].Type != "email_draft" {
		t.Errorf("item = %+v", out.Items[0])
	}
}

func TestListItemsUnknownStage(t *testing.T) {
	srv := NewServer(newTestStore(t), nil, nil, nil, "test")

	result := callTool(t, srv, "list_items", map[string]any{"stage": "Basement"})
	if !result.IsError {
		t.Fatal("expected error for unknown stage")
	}
}

func TestGetItem(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, models.StageInbox, "EMAIL_1.md", map[string]string{"type": "email", "from": "a@b.com"})
	srv := NewServer(store, nil, nil, nil, "test")

	result := callTool(t, srv, "get_item", map[string]any{"stage": "Inbox", "name": "EMAIL_1.md"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out itemOutput
	decodeResult(t, result, &out)
	if out.Name != "EMAIL_1.md" || out.Stage != "Inbox" {
		t.Errorf("item = %+v", out)
	}
	if out.Header["from"] != "a@b.com" {
		t.Errorf("from = %q", out.Header["from"])
	}
}

func TestGetItemNotFound(t *testing.T) {
	srv := NewServer(newTestStore(t), nil, nil, nil, "test")

	result := callTool(t, srv, "get_item", map[string]any{"stage": "Inbox", "name": "EMAIL_99.md"})
	if !result.IsError {
		t.Fatal("expected error result for missing item")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result content")
	}
}

func TestApproveItem(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, models.StagePendingApproval, "EMAIL_DRAFT_1.md", map[string]string{"type": "email_draft"})
	srv := NewServer(store, nil, nil, nil, "test")

	result := callTool(t, srv, "approve_item", map[string]any{"name": "EMAIL_DRAFT_1.md"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	if !store.Exists(models.StageApproved, "EMAIL_DRAFT_1.md") {
		t.Error("expected item in Approved")
	}
	if store.Exists(models.StagePendingApproval, "EMAIL_DRAFT_1.md") {
		t.Error("expected item gone from Pending_Approval")
	}
}

func TestApproveItemNotPending(t *testing.T) {
	srv := NewServer(newTestStore(t), nil, nil, nil, "test")

	result := callTool(t, srv, "approve_item", map[string]any{"name": "EMAIL_DRAFT_1.md"})
	if !result.IsError {
		t.Fatal("expected error approving a missing item")
	}
}

func TestRejectItem(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store, models.StagePendingApproval, "EMAIL_DRAFT_1.md", map[string]string{"type": "email_draft"})
	srv := NewServer(store, nil, nil, nil, "test")

	result := callTool(t, srv, "reject_item", map[string]any{
		"name":   "EMAIL_DRAFT_1.md",
		"reason": "wrong recipient",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	if !store.Exists(models.StageRejected, "EMAIL_DRAFT_1.md") {
		t.Error("expected item in Rejected")
	}
}

func TestGetMetrics(t *testing.T) {
	now := time.Now().UTC()
	mc := &fakeMetricsCalculator{
		metrics: &observability.Metrics{
			Ingested:     5,
			Drafted:      4,
			Executed:     3,
			Failed:       1,
			ByActionType: map[string]int{"email_reply": 3},
			StageCounts:  map[string]int{"Done": 3},
			EntryCount:   42,
			OldestEntry:  &now,
			NewestEntry:  &now,
		},
	}
	srv := NewServer(newTestStore(t), nil, mc, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var m metricsOutput
	decodeResult(t, result, &m)
	if m.Ingested != 5 {
		t.Errorf("expected 5 ingested, got %d", m.Ingested)
	}
	if m.EntryCount != 42 {
		t.Errorf("expected 42 entries, got %d", m.EntryCount)
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	srv := NewServer(newTestStore(t), nil, nil, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when metrics calculator is nil")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result")
	}
}

func TestGetAlerts(t *testing.T) {
	now := time.Now().UTC()
	ae := &fakeAlertEngine{
		alerts: []observability.Alert{
			{
				ID:          "stuck-EMAIL_DRAFT_1.md",
				Condition:   "approved_item_stuck",
				Severity:    observability.SeverityHigh,
				Message:     "EMAIL_DRAFT_1.md has been in Approved for more than 30 minutes",
				TriggeredAt: now,
			},
		},
	}
	srv := NewServer(newTestStore(t), nil, nil, ae, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out getAlertsOutput
	decodeResult(t, result, &out)
	if out.Count != 1 {
		t.Errorf("expected 1 alert, got %d", out.Count)
	}
	if len(out.Alerts) > 0 && out.Alerts[0].Severity != "high" {
		t.Errorf("expected high severity, got %s", out.Alerts[0].Severity)
	}
}

func TestGetAlertsDisabled(t *testing.T) {
	srv := NewServer(newTestStore(t), nil, nil, nil, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when alert engine is nil")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"24h", false},
		{"1h", false},
		{"", true},
		{"x", true},
		{"7x", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

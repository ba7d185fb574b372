// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the orchestrator's vault as MCP tools, so an AI assistant can inspect
// items and drive the approval gate.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps vault and observability services and exposes them as MCP
// tools.
type Server struct {
	server      *gomcp.Server
	store       vault.Store
	auditLog    observability.AuditLog
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over the given vault. metricsCalc and
// alertEngine may be nil if observability is disabled.
func NewServer(store vault.Store, auditLog observability.AuditLog, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		auditLog:    auditLog,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "fte", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listItemsInput struct {
	Stage string `json:"stage,omitempty" jsonschema:"filter by stage (Inbox, Needs_Action, Updates, Pending_Approval, Approved, Rejected, Plans, Done). Defaults to all stages."`
}

type itemSummary struct {
	Name  string `json:"name"`
	Stage string `json:"stage"`
	Type  string `json:"type,omitempty"`
}

type listItemsOutput struct {
	Items []itemSummary `json:"items"`
	Count int           `json:"count"`
}

type getItemInput struct {
	Stage string `json:"stage" jsonschema:"required,the stage directory holding the item"`
	Name  string `json:"name" jsonschema:"required,the item filename (e.g. EMAIL_20250101T120000_abc123.md)"`
}

type itemOutput struct {
	Name   string            `json:"name"`
	Stage  string            `json:"stage"`
	Header map[string]string `json:"header,omitempty"`
	Body   string            `json:"body"`
}

type approveItemInput struct {
	Name string `json:"name" jsonschema:"required,the item filename in Pending_Approval"`
}

type rejectItemInput struct {
	Name   string `json:"name" jsonschema:"required,the item filename in Pending_Approval"`
	Reason string `json:"reason,omitempty" jsonschema:"why the draft was rejected"`
}

type decisionOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Ingested     int            `json:"ingested"`
	Drafted      int            `json:"drafted"`
	Executed     int            `json:"executed"`
	Failed       int            `json:"failed"`
	Approved     int            `json:"approved"`
	Rejected     int            `json:"rejected"`
	Recovered    int            `json:"recovered"`
	ByActionType map[string]int `json:"by_action_type"`
	StageCounts  map[string]int `json:"stage_counts"`
	EntryCount   int            `json:"entry_count"`
	OldestEntry  string         `json:"oldest_entry,omitempty"`
	NewestEntry  string         `json:"newest_entry,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_items",
		Description: "List vault items with an optional stage filter. Returns name, stage, and type for each item.",
	}, s.handleListItems)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_item",
		Description: "Get one item's full header and body by stage and name.",
	}, s.handleGetItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "approve_item",
		Description: "Approve a draft waiting in Pending_Approval. The item moves to Approved and the orchestrator executes it.",
	}, s.handleApproveItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reject_item",
		Description: "Reject a draft waiting in Pending_Approval. The item moves to Rejected and is never executed.",
	}, s.handleRejectItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the audit log, including ingestion, drafting, and execution counts per stage.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (stuck approved items, approval backlog, degraded watcher).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListItems(_ context.Context, _ *gomcp.CallToolRequest, input listItemsInput) (*gomcp.CallToolResult, listItemsOutput, error) {
	stages := models.AllStages
	if input.Stage != "" {
		stage := models.Stage(input.Stage)
		if !validStage(stage) {
			return errorResult(fmt.Sprintf("unknown stage %q", input.Stage)), listItemsOutput{}, nil
		}
		stages = []models.Stage{stage}
	}

	out := listItemsOutput{Items: []itemSummary{}}
	for _, stage := range stages {
		names, err := s.store.List(stage)
		if err != nil {
			return errorResult(fmt.Sprintf("listing stage %s: %s", stage, err)), listItemsOutput{}, nil
		}
		for _, name := range names {
			summary := itemSummary{Name: name, Stage: string(stage)}
			if item, err := s.store.Read(stage, name); err == nil {
				if t, ok := item.HeaderValue("type"); ok {
					summary.Type = t
				}
			}
			out.Items = append(out.Items, summary)
		}
	}
	out.Count = len(out.Items)

	return nil, out, nil
}

func (s *Server) handleGetItem(_ context.Context, _ *gomcp.CallToolRequest, input getItemInput) (*gomcp.CallToolResult, itemOutput, error) {
	if input.Stage == "" || input.Name == "" {
		return errorResult("stage and name are required"), itemOutput{}, nil
	}

	stage := models.Stage(input.Stage)
	if !validStage(stage) {
		return errorResult(fmt.Sprintf("unknown stage %q", input.Stage)), itemOutput{}, nil
	}

	item, err := s.store.Read(stage, input.Name)
	if err != nil {
		return errorResult(fmt.Sprintf("reading %s from %s: %s", input.Name, input.Stage, err)), itemOutput{}, nil
	}

	out := itemOutput{
		Name:   item.Name,
		Stage:  string(item.Stage),
		Header: item.Header,
		Body:   item.Body,
	}
	return nil, out, nil
}

func (s *Server) handleApproveItem(_ context.Context, _ *gomcp.CallToolRequest, input approveItemInput) (*gomcp.CallToolResult, decisionOutput, error) {
	if input.Name == "" {
		return errorResult("name is required"), decisionOutput{}, nil
	}

	if err := s.store.Move(input.Name, models.StagePendingApproval, models.StageApproved); err != nil {
		return errorResult(fmt.Sprintf("approving %s: %s", input.Name, err)), decisionOutput{}, nil
	}

	s.audit(observability.Entry{
		Actor:      "mcp",
		ActionType: "approve",
		Target:     input.Name,
		Result:     observability.ResultSuccess,
	})

	out := decisionOutput{Message: fmt.Sprintf("%s approved and queued for execution", input.Name)}
	return nil, out, nil
}

func (s *Server) handleRejectItem(_ context.Context, _ *gomcp.CallToolRequest, input rejectItemInput) (*gomcp.CallToolResult, decisionOutput, error) {
	if input.Name == "" {
		return errorResult("name is required"), decisionOutput{}, nil
	}

	if err := s.store.Move(input.Name, models.StagePendingApproval, models.StageRejected); err != nil {
		return errorResult(fmt.Sprintf("rejecting %s: %s", input.Name, err)), decisionOutput{}, nil
	}

	s.audit(observability.Entry{
		Actor:      "mcp",
		ActionType: "reject",
		Target:     input.Name,
		Result:     observability.ResultSuccess,
		Detail:     input.Reason,
	})

	out := decisionOutput{Message: fmt.Sprintf("%s rejected", input.Name)}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		Ingested:     metrics.Ingested,
		Drafted:      metrics.Drafted,
		Executed:     metrics.Executed,
		Failed:       metrics.Failed,
		Approved:     metrics.Approved,
		Rejected:     metrics.Rejected,
		Recovered:    metrics.Recovered,
		ByActionType: metrics.ByActionType,
		StageCounts:  metrics.StageCounts,
		EntryCount:   metrics.EntryCount,
	}
	if metrics.OldestEntry != nil {
		out.OldestEntry = metrics.OldestEntry.Format(time.RFC3339)
	}
	if metrics.NewestEntry != nil {
		out.NewestEntry = metrics.NewestEntry.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func (s *Server) audit(entry observability.Entry) {
	if s.auditLog == nil {
		return
	}
	_ = s.auditLog.Append(entry)
}

func validStage(stage models.Stage) bool {
	for _, known := range models.AllStages {
		if known == stage {
			return true
		}
	}
	return false
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		ByActionType: make(map[string]int),
		StageCounts:  make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}

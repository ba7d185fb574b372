// Package observability provides audit logging, metrics calculation, and
// alerting for the orchestrator. Audit entries are persisted as JSON Lines
// (JSONL) in daily files; metrics and alerts are derived on-demand from the
// audit log and the current vault contents.
package observability

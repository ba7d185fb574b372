package cli

import (
	"github.com/DevDonzo/DigitalFTE/internal/core"
	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	// BasePath is the directory holding .fteconfig and the vault.
	BasePath string

	// Config is the loaded orchestrator configuration.
	Config *models.OrchestratorConfig

	// Store is the vault the orchestrator operates on.
	Store vault.Store

	// Orchestrator drives the watch/batch/route control loop.
	Orchestrator *core.Orchestrator

	// AuditLog records every decision and side effect.
	AuditLog observability.AuditLog

	// Observability services. Nil when the audit log could not be opened.
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)

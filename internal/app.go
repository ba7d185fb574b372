// Package internal provides the App struct that wires all components of the
// orchestrator together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DevDonzo/DigitalFTE/internal/cli"
	"github.com/DevDonzo/DigitalFTE/internal/core"
	"github.com/DevDonzo/DigitalFTE/internal/integration"
	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/internal/vault"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// App holds all service dependencies for the orchestrator.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.OrchestratorConfig

	// Vault
	Store vault.Store

	// Core services
	Ledger       core.Ledger
	Policy       core.ApprovalPolicy
	Drafting     *core.DraftingHandler
	Execution    *core.ExecutionHandler
	Router       *core.Router
	Orchestrator *core.Orchestrator

	// Integration services
	Drafter   integration.Drafter
	Executors *integration.ExecutorRegistry

	// Observability
	AuditLog    observability.AuditLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the orchestrator. basePath is
// the directory containing .fteconfig and the vault.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Vault ---
	vaultRoot := cfg.VaultPath
	if !filepath.IsAbs(vaultRoot) {
		vaultRoot = filepath.Join(basePath, vaultRoot)
	}
	app.Store = vault.NewStore(vaultRoot)
	if err := app.Store.EnsureLayout(); err != nil {
		return nil, fmt.Errorf("preparing vault: %w", err)
	}

	// --- Observability ---
	logsDir := filepath.Join(vaultRoot, string(models.StageLogs))
	app.AuditLog, err = observability.NewJSONLAuditLog(logsDir)
	if err != nil {
		// Non-fatal: run without observability if the log can't be created.
		app.AuditLog = nil
	}
	if app.AuditLog != nil {
		app.AlertEngine = observability.NewAlertEngine(app.Store, app.AuditLog, observability.DefaultAlertThresholds())
		app.MetricsCalc = observability.NewMetricsCalculator(app.Store, app.AuditLog)
	}
	notifiers := []observability.Notifier{observability.NewVaultNotifier(app.Store)}
	if cfg.NotifyWebhookURL != "" {
		notifiers = append(notifiers, observability.NewWebhookNotifier(cfg.NotifyWebhookURL))
	}
	app.Notifier = observability.NewMultiNotifier(notifiers...)

	// --- Core services ---
	app.Ledger, err = core.NewFileLedger(filepath.Join(vaultRoot, string(models.StageLogs), ".ledger"))
	if err != nil {
		return nil, fmt.Errorf("opening idempotency ledger: %w", err)
	}

	app.Policy = core.PolicyFromConfig(cfg)
	app.Drafter = integration.NewTemplateDrafter()
	app.Drafting = core.NewDraftingHandler(app.Store, app.Drafter, app.Ledger, app.AuditLog, app.Policy, cfg.DefaultInvoiceAmount)

	// --- Executors ---
	app.Executors = integration.NewExecutorRegistry()
	outboxDir := filepath.Join(basePath, "outbox")
	executorKinds := []struct {
		kind models.ActionKind
		file string
	}{
		{models.ActionEmailReply, "email.jsonl"},
		{models.ActionSocialPost, "social.jsonl"},
		{models.ActionInvoiceCreate, "invoices.jsonl"},
		{models.ActionPayment, "payments.jsonl"},
	}
	for _, ek := range executorKinds {
		exec, err := integration.NewOutboxExecutor(ek.kind, filepath.Join(outboxDir, ek.file))
		if err != nil {
			return nil, fmt.Errorf("creating %s executor: %w", ek.kind, err)
		}
		app.Executors.Register(integration.WithTimeout(exec, cfg.ExecutorTimeout))
	}

	app.Execution = core.NewExecutionHandler(app.Store, app.Executors, app.Ledger, app.AuditLog)
	app.Router = core.NewRouter(app.Store, app.AuditLog, app.Drafting, app.Execution)
	app.Orchestrator = core.NewOrchestrator(cfg, app.Store, app.Router, app.AuditLog)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Store = app.Store
	cli.Orchestrator = app.Orchestrator
	cli.AuditLog = app.AuditLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier
	cli.WorkspaceInit = core.NewWorkspaceInitializer()

	return app, nil
}

// Close releases resources held by the App: the ledger and the audit log.
func (a *App) Close() error {
	var firstErr error
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			firstErr = err
		}
	}
	if a.AuditLog != nil {
		if err := a.AuditLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the workspace directory. It checks the FTE_HOME
// env var, then walks up from the current directory looking for .fteconfig,
// falling back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("FTE_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".fteconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

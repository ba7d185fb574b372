// Package core contains the business logic for the orchestrator: routing,
// batching, drafting, execution, the idempotency ledger, and the recovery
// sweep that ties them together.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// ConfigurationManager loads and validates orchestrator configuration from
// an .fteconfig file.
type ConfigurationManager interface {
	LoadConfig() (*models.OrchestratorConfig, error)
	ValidateConfig(cfg *models.OrchestratorConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .fteconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns an OrchestratorConfig populated with sensible
// defaults.
func DefaultConfig() *models.OrchestratorConfig {
	return &models.OrchestratorConfig{
		VaultPath:            "AI_Employee_Vault",
		BatchCeiling:         50,
		BatchQuiescence:      2 * time.Second,
		SweepInterval:        5 * time.Second,
		ExecutorTimeout:      30 * time.Second,
		DefaultInvoiceAmount: 100.00,
		AutoApprove:          false,
		AutoApproveContacts:  nil,
		WatcherEnabled:       true,
		NotifyWebhookURL:     "",
	}
}

// LoadConfig reads the .fteconfig file from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadConfig() (*models.OrchestratorConfig, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(".fteconfig")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("vault_path", cfg.VaultPath)
	v.SetDefault("batch.ceiling", cfg.BatchCeiling)
	v.SetDefault("batch.quiescence", cfg.BatchQuiescence)
	v.SetDefault("sweep.interval", cfg.SweepInterval)
	v.SetDefault("executor.timeout", cfg.ExecutorTimeout)
	v.SetDefault("drafting.default_invoice_amount", cfg.DefaultInvoiceAmount)
	v.SetDefault("drafting.auto_approve", cfg.AutoApprove)
	v.SetDefault("watcher.enabled", cfg.WatcherEnabled)
	v.SetDefault("notify.webhook_url", cfg.NotifyWebhookURL)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file found, return defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .fteconfig: %w", err)
	}

	// Map nested YAML keys to flat OrchestratorConfig fields.
	cfg.VaultPath = v.GetString("vault_path")
	cfg.BatchCeiling = v.GetInt("batch.ceiling")
	cfg.BatchQuiescence = v.GetDuration("batch.quiescence")
	cfg.SweepInterval = v.GetDuration("sweep.interval")
	cfg.ExecutorTimeout = v.GetDuration("executor.timeout")
	cfg.DefaultInvoiceAmount = v.GetFloat64("drafting.default_invoice_amount")
	cfg.AutoApprove = v.GetBool("drafting.auto_approve")
	cfg.AutoApproveContacts = v.GetStringSlice("drafting.auto_approve_contacts")
	cfg.WatcherEnabled = v.GetBool("watcher.enabled")
	cfg.NotifyWebhookURL = v.GetString("notify.webhook_url")

	return cfg, nil
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a clear error message identifying each problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.OrchestratorConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.VaultPath == "" {
		errs = append(errs, "vault_path must not be empty")
	}

	if cfg.BatchCeiling < 1 {
		errs = append(errs, fmt.Sprintf("batch.ceiling must be at least 1, got %d", cfg.BatchCeiling))
	}

	if cfg.BatchQuiescence <= 0 {
		errs = append(errs, fmt.Sprintf("batch.quiescence must be positive, got %s", cfg.BatchQuiescence))
	}

	if cfg.SweepInterval <= 0 {
		errs = append(errs, fmt.Sprintf("sweep.interval must be positive, got %s", cfg.SweepInterval))
	}

	if cfg.ExecutorTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("executor.timeout must be positive, got %s", cfg.ExecutorTimeout))
	}

	if cfg.DefaultInvoiceAmount <= 0 {
		errs = append(errs, fmt.Sprintf("drafting.default_invoice_amount must be positive, got %.2f", cfg.DefaultInvoiceAmount))
	}

	if cfg.AutoApprove && len(cfg.AutoApproveContacts) == 0 {
		errs = append(errs, "drafting.auto_approve requires at least one entry in drafting.auto_approve_contacts")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

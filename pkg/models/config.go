package models

import "time"

// OrchestratorConfig holds system-wide settings read from .fteconfig via
// Viper. Every field has a default so a missing config file is never an
// error.
type OrchestratorConfig struct {
	VaultPath string `yaml:"vault_path" mapstructure:"vault_path"`

	// Batch scheduler: flush when a stage queue reaches the ceiling or when
	// the quiescence interval elapses, whichever comes first.
	BatchCeiling    int           `yaml:"batch_ceiling" mapstructure:"batch_ceiling"`
	BatchQuiescence time.Duration `yaml:"batch_quiescence" mapstructure:"batch_quiescence"`

	// Interval between recovery sweeps of the Approved stage.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`

	// Bound on any synchronous external-collaborator call made from a
	// handler. Timeout counts as an execution failure.
	ExecutorTimeout time.Duration `yaml:"executor_timeout" mapstructure:"executor_timeout"`

	// Drafting.
	DefaultInvoiceAmount float64  `yaml:"default_invoice_amount" mapstructure:"default_invoice_amount"`
	AutoApprove          bool     `yaml:"auto_approve" mapstructure:"auto_approve"`
	AutoApproveContacts  []string `yaml:"auto_approve_contacts,omitempty" mapstructure:"auto_approve_contacts"`

	// Watcher: when disabled (or when fsnotify fails to start) the recovery
	// sweep is the sole delivery path.
	WatcherEnabled bool `yaml:"watcher_enabled" mapstructure:"watcher_enabled"`

	// Optional webhook for alert notifications.
	NotifyWebhookURL string `yaml:"notify_webhook_url,omitempty" mapstructure:"notify_webhook_url"`
}

package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

// InitConfig holds the parameters for initializing an orchestrator
// workspace.
type InitConfig struct {
	BasePath  string
	VaultName string
}

// InitResult holds a summary of what was created vs. skipped.
type InitResult struct {
	Created []string
	Skipped []string
}

// WorkspaceInitializer prepares a directory as an orchestrator workspace:
// the vault with all stage directories, the configuration file, and the
// outbox directory executors append to.
type WorkspaceInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type workspaceInitializer struct{}

// NewWorkspaceInitializer creates a new WorkspaceInitializer.
func NewWorkspaceInitializer() WorkspaceInitializer {
	return &workspaceInitializer{}
}

const fteconfigTemplate = `# Digital FTE orchestrator configuration.
vault_path: {{.VaultName}}

batch:
  ceiling: 50
  quiescence: 2s

sweep:
  interval: 5s

executor:
  timeout: 30s

drafting:
  default_invoice_amount: 100.00
  auto_approve: false
  auto_approve_contacts: []

watcher:
  enabled: true

notify:
  webhook_url: ""
`

const vaultReadme = `# {{.VaultName}}

This directory is the working memory of the orchestrator. Each stage is a
directory; each item is a markdown file with YAML frontmatter.

- Inbox, Needs_Action, Updates: incoming items to be drafted
- Pending_Approval: drafts waiting for a human decision
- Approved: approved drafts, executed exactly once
- Rejected: drafts a human declined
- Plans: items nothing could classify, turned into plans
- Done: executed items
- Logs: daily audit logs in JSONL

Move a file from Pending_Approval to Approved (or run "fte approve") to
release it for execution.
`

const gitignoreContent = `outbox/
Logs/
`

// Init creates the workspace structure. It is safe to run on an existing
// workspace: files and directories that already exist are skipped and not
// overwritten.
func (wi *workspaceInitializer) Init(config InitConfig) (*InitResult, error) {
	result := &InitResult{}

	if config.VaultName == "" {
		config.VaultName = "AI_Employee_Vault"
	}
	if config.BasePath == "" {
		config.BasePath = "."
	}

	vaultRoot := filepath.Join(config.BasePath, config.VaultName)
	dirs := []string{
		config.BasePath,
		vaultRoot,
	}
	for _, stage := range models.AllStages {
		dirs = append(dirs, filepath.Join(vaultRoot, string(stage)))
	}
	dirs = append(dirs, filepath.Join(config.BasePath, "outbox"))

	for _, dir := range dirs {
		created, err := ensureWorkspaceDir(dir)
		if err != nil {
			return nil, fmt.Errorf("initializing workspace: creating directory %s: %w", dir, err)
		}
		if created {
			result.Created = append(result.Created, dir)
		} else {
			result.Skipped = append(result.Skipped, dir)
		}
	}

	files := []struct {
		target   string
		template string
	}{
		{filepath.Join(config.BasePath, ".fteconfig"), fteconfigTemplate},
		{filepath.Join(vaultRoot, "README.md"), vaultReadme},
		{filepath.Join(config.BasePath, ".gitignore"), gitignoreContent},
	}
	for _, f := range files {
		if err := wi.writeRendered(f.target, f.template, config, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// ensureWorkspaceDir creates a directory if it does not exist. Returns true
// if created.
func ensureWorkspaceDir(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return false, err
	}
	return true, nil
}

// writeRendered renders a template and writes it to target unless the file
// already exists. Records created/skipped in result.
func (wi *workspaceInitializer) writeRendered(target, tmplContent string, data interface{}, result *InitResult) error {
	if _, err := os.Stat(target); err == nil {
		result.Skipped = append(result.Skipped, target)
		return nil
	}

	tmpl, err := template.New(filepath.Base(target)).Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("initializing workspace: parsing template for %s: %w", target, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("initializing workspace: rendering %s: %w", target, err)
	}

	if err := os.WriteFile(target, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("initializing workspace: writing %s: %w", target, err)
	}
	result.Created = append(result.Created, target)
	return nil
}

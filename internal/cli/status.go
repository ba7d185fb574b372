package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
	"github.com/spf13/cobra"
)

var statusStage string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display vault items grouped by stage",
	Long: `Display every item in the vault organized by pipeline stage.

Optionally filter to a single stage using --stage (e.g. --stage Pending_Approval).
Each item is listed with its type when the frontmatter carries one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("vault not initialized")
		}

		stages := models.AllStages
		if statusStage != "" {
			stage := models.Stage(statusStage)
			if !knownStage(stage) {
				return fmt.Errorf("unknown stage %q", statusStage)
			}
			stages = []models.Stage{stage}
		}

		empty := true
		for _, stage := range stages {
			names, err := Store.List(stage)
			if err != nil {
				return fmt.Errorf("listing stage %s: %w", stage, err)
			}
			if len(names) == 0 && statusStage == "" {
				continue
			}
			empty = false
			printStageGroup(stage, names)
			fmt.Println()
		}

		if empty {
			fmt.Println("The vault is empty.")
		}

		if statusStage == "" {
			printAuditTail(5)
		}
		return nil
	},
}

// printAuditTail shows the most recent audit entries from the last day.
func printAuditTail(limit int) {
	if AuditLog == nil {
		return
	}
	since := time.Now().UTC().Add(-24 * time.Hour)
	entries, err := AuditLog.Read(observability.EntryFilter{Since: &since})
	if err != nil || len(entries) == 0 {
		return
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	fmt.Println("Recent activity:")
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-18s %s", e.Timestamp.Format("15:04:05"), e.ActionType, e.Target)
		if e.Result == observability.ResultFailure {
			line += "  [failed]"
		}
		fmt.Println(line)
	}
}

// printStageGroup prints a table of items under a stage heading.
func printStageGroup(stage models.Stage, names []string) {
	fmt.Printf("== %s (%d) ==\n", strings.ToUpper(string(stage)), len(names))
	for _, name := range names {
		line := "  " + name
		if item, err := Store.Read(stage, name); err == nil {
			if t, ok := item.HeaderValue("type"); ok {
				line = fmt.Sprintf("  %-50s %s", name, t)
			}
		}
		fmt.Println(line)
	}
}

func knownStage(stage models.Stage) bool {
	for _, known := range models.AllStages {
		if known == stage {
			return true
		}
	}
	return false
}

func init() {
	statusCmd.Flags().StringVar(&statusStage, "stage", "", "Show only one stage (e.g. Pending_Approval)")
	rootCmd.AddCommand(statusCmd)
}

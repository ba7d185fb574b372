package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display pipeline metrics",
	Long: `Display aggregated metrics derived from the audit log.

Metrics include ingestion, drafting, and execution counts, approval
decisions, recovery sweeps, and the current number of items per stage.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		// Table format.
		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Audit entries:", metrics.EntryCount)
		fmt.Printf("  %-24s %d\n", "Items ingested:", metrics.Ingested)
		fmt.Printf("  %-24s %d\n", "Drafts created:", metrics.Drafted)
		fmt.Printf("  %-24s %d\n", "Approved:", metrics.Approved)
		fmt.Printf("  %-24s %d\n", "Rejected:", metrics.Rejected)
		fmt.Printf("  %-24s %d\n", "Executed:", metrics.Executed)
		fmt.Printf("  %-24s %d\n", "Failed:", metrics.Failed)
		fmt.Printf("  %-24s %d\n", "Swept by recovery:", metrics.Recovered)

		if len(metrics.ByActionType) > 0 {
			fmt.Println("\n  Executions by action:")
			for action, count := range metrics.ByActionType {
				fmt.Printf("    %-20s %d\n", action+":", count)
			}
		}

		if len(metrics.StageCounts) > 0 {
			fmt.Println("\n  Items per stage:")
			for stage, count := range metrics.StageCounts {
				if count == 0 {
					continue
				}
				fmt.Printf("    %-20s %d\n", stage+":", count)
			}
		}

		if metrics.OldestEntry != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest entry:", metrics.OldestEntry.Format(time.RFC3339))
		}
		if metrics.NewestEntry != nil {
			fmt.Printf("  %-24s %s\n", "Newest entry:", metrics.NewestEntry.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}

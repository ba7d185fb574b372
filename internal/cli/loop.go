package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

var loopDryRun bool

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run one orchestration cycle and exit",
	Long: `Sweep every intake stage once, route everything found, and exit.

Useful for cron-style deployments and for draining a vault without
keeping the daemon running. Items already handled are skipped through
the same ledger the daemon uses.

Use --dry-run to list what would be processed without routing anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil {
			return fmt.Errorf("orchestrator not initialized")
		}

		found := map[models.Stage][]string{}
		fetched := 0
		for _, stage := range models.DrainedStages {
			names, err := Store.List(stage)
			if err != nil {
				return fmt.Errorf("listing stage %s: %w", stage, err)
			}
			found[stage] = names
			fetched += len(names)
		}

		if loopDryRun {
			if fetched == 0 {
				fmt.Println("Dry run: nothing to process.")
				return nil
			}
			fmt.Printf("Dry run: %d item(s) would be processed:\n", fetched)
			for _, stage := range models.DrainedStages {
				for _, name := range found[stage] {
					fmt.Printf("  %s/%s\n", stage, name)
				}
			}
			return nil
		}

		if err := Orchestrator.RunOnce(context.Background()); err != nil {
			return fmt.Errorf("running cycle: %w", err)
		}

		// An item counts as processed once it has left the stage it was
		// found in; whatever stayed put was either already handled or needs
		// a human (unknown action, failed execution).
		processed := 0
		for stage, names := range found {
			for _, name := range names {
				if !Store.Exists(stage, name) {
					processed++
				}
			}
		}

		fmt.Println("Cycle completed:")
		fmt.Printf("  Items found:     %d\n", fetched)
		fmt.Printf("  Items processed: %d\n", processed)
		fmt.Printf("  Left in place:   %d\n", fetched-processed)

		pending, err := Store.List(models.StagePendingApproval)
		if err != nil {
			return fmt.Errorf("listing pending approvals: %w", err)
		}
		if len(pending) > 0 {
			fmt.Printf("\n%d item(s) awaiting approval:\n", len(pending))
			for _, name := range pending {
				fmt.Printf("  %s\n", name)
			}
		} else {
			fmt.Println("\nNothing awaiting approval.")
		}
		return nil
	},
}

func init() {
	loopCmd.Flags().BoolVar(&loopDryRun, "dry-run", false, "List items without processing them")
	rootCmd.AddCommand(loopCmd)
}

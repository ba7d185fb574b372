package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/DevDonzo/DigitalFTE/internal/core"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the orchestrator daemon",
	Long: `Run the orchestrator control loop until interrupted.

The daemon watches the vault's intake stages, batches new items, routes
them through drafting and execution, and sweeps the Approved stage for
recovery. On SIGINT or SIGTERM it flushes pending batches before exiting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Orchestrator == nil {
			return fmt.Errorf("orchestrator not initialized")
		}

		unlock, err := core.AcquireRunLock(filepath.Join(Store.Root(), ".fte.lock"))
		if err != nil {
			return err
		}
		defer unlock()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("fte %s watching vault at %s\n", appVersion, Store.Root())
		if err := Orchestrator.Run(ctx); err != nil {
			return fmt.Errorf("running orchestrator: %w", err)
		}
		fmt.Println("orchestrator stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevDonzo/DigitalFTE/internal/observability"
	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

var approveAll bool

var approveCmd = &cobra.Command{
	Use:   "approve [item...]",
	Short: "Approve drafts waiting in Pending_Approval",
	Long: `Move one or more drafts from Pending_Approval to Approved.

The running orchestrator picks approved items up and executes them.
Use --all to approve everything currently pending.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("vault not initialized")
		}

		names := args
		if approveAll {
			pending, err := Store.List(models.StagePendingApproval)
			if err != nil {
				return fmt.Errorf("listing pending approvals: %w", err)
			}
			names = pending
		}
		if len(names) == 0 {
			return fmt.Errorf("nothing to approve: name an item or pass --all")
		}

		for _, name := range names {
			if err := Store.Move(name, models.StagePendingApproval, models.StageApproved); err != nil {
				return fmt.Errorf("approving %s: %w", name, err)
			}
			auditDecision("approve", name, "")
			fmt.Printf("approved %s\n", name)
		}
		return nil
	},
}

// auditDecision records a human approval decision. A missing audit log is
// tolerated so decisions still work on a partially initialized vault.
func auditDecision(action, name, detail string) {
	if AuditLog == nil {
		return
	}
	_ = AuditLog.Append(observability.Entry{
		Actor:      "human",
		ActionType: action,
		Target:     name,
		Result:     observability.ResultSuccess,
		Detail:     detail,
	})
}

func init() {
	approveCmd.Flags().BoolVar(&approveAll, "all", false, "Approve every pending draft")
	rootCmd.AddCommand(approveCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
)

var rejectReason string

var rejectCmd = &cobra.Command{
	Use:   "reject [item...]",
	Short: "Reject drafts waiting in Pending_Approval",
	Long: `Move one or more drafts from Pending_Approval to Rejected.

Rejected drafts are never executed. Record why with --reason; the reason
lands in the audit log next to the decision.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("vault not initialized")
		}

		for _, name := range args {
			if err := Store.Move(name, models.StagePendingApproval, models.StageRejected); err != nil {
				return fmt.Errorf("rejecting %s: %w", name, err)
			}
			auditDecision("reject", name, rejectReason)
			fmt.Printf("rejected %s\n", name)
		}
		return nil
	},
}

func init() {
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Why the draft was rejected")
	rootCmd.AddCommand(rejectCmd)
}

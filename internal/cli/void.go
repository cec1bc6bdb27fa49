package cli

import (
	"context"

	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/spf13/cobra"
)

func newVoidCmd(app *App) *cobra.Command {
	var (
		companyID string
		reason    string
		actor     domain.Actor
	)
	cmd := &cobra.Command{
		Use:   "void <transaction-id>",
		Short: "Void a posted transaction by posting its reversal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				result, err := rt.services.Reversal.VoidByReversal(ctx, companyID, args[0], actor, reason)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&reason, "reason", "", "why the transaction is voided")
	addActorFlags(cmd, &actor)
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func addActorFlags(cmd *cobra.Command, actor *domain.Actor) {
	cmd.Flags().StringVar(&actor.UserID, "actor", "", "acting user id")
	cmd.Flags().StringVar(&actor.Role, "role", "", "acting user's role, recorded in the audit trail")
	cmd.Flags().BoolVar(&actor.IsOwner, "owner", false, "acting user owns the company")
	_ = cmd.MarkFlagRequired("actor")
}

package cli

import (
	"context"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/spf13/cobra"
)

func newAuditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the audit trail",
	}
	cmd.AddCommand(newAuditListCmd(app))
	return cmd
}

func newAuditListCmd(app *App) *cobra.Command {
	var companyID, entityID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries of a company, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				if rt.audit == nil {
					return apperrors.New(apperrors.KindValidation, "the configured audit sink cannot be read back")
				}
				entries, err := rt.audit.ListAuditEntries(ctx, companyID, entityID)
				if err != nil {
					return apperrors.Wrap(apperrors.KindPersistence, err, "failed to list audit entries")
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&entityID, "entity", "", "only entries about this transaction, number or period")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

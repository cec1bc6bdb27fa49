package cli

import (
	"context"

	"github.com/SscSPs/bookkeeping_ledger/internal/dto"
	"github.com/spf13/cobra"
)

func newTxnCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Read posted transactions",
	}
	cmd.AddCommand(newTxnGetCmd(app), newTxnListCmd(app))
	return cmd
}

func newTxnGetCmd(app *App) *cobra.Command {
	var companyID string
	cmd := &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Show one transaction with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				txn, err := rt.services.Posting.GetTransaction(ctx, companyID, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), dto.ToTransactionResponse(txn))
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newTxnListCmd(app *App) *cobra.Command {
	var (
		companyID string
		params    dto.ListTransactionsParams
		token     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a company's transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token != "" {
				params.NextToken = &token
			}
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				page, err := rt.services.Posting.ListTransactions(ctx, companyID, params)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), page)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().IntVar(&params.Limit, "limit", 20, "page size (max 100)")
	cmd.Flags().StringVar(&token, "token", "", "nextToken from the previous page")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

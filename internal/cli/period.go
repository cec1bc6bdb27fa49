package cli

import (
	"context"
	"time"

	"github.com/SscSPs/bookkeeping_ledger/internal/apperrors"
	"github.com/SscSPs/bookkeeping_ledger/internal/core/domain"
	"github.com/SscSPs/bookkeeping_ledger/internal/dto"
	"github.com/spf13/cobra"
)

func newPeriodCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "period",
		Short: "Manage accounting periods and their lock log",
		Long: `Periods gate postings by date. A period's state is the latest entry of its
append-only lock log; a date covered by no period is OPEN.

Subcommands:
  create     - Define a period over an inclusive date range
  state      - Show the state governing a date
  transition - Append OPEN, SOFT_CLOSED or LOCKED to a period's lock log
  history    - Show a period's lock log`,
	}
	cmd.AddCommand(
		newPeriodCreateCmd(app),
		newPeriodStateCmd(app),
		newPeriodTransitionCmd(app),
		newPeriodHistoryCmd(app),
	)
	return cmd
}

func newPeriodCreateCmd(app *App) *cobra.Command {
	var (
		req  dto.CreatePeriodRequest
		name string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Define a period over an inclusive date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" {
				req.Name = &name
			}
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				period, err := rt.services.Period.CreatePeriod(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), period)
			})
		},
	}
	cmd.Flags().StringVar(&req.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	addActorFlags(cmd, &req.Actor)
	for _, f := range []string{"company", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newPeriodStateCmd(app *App) *cobra.Command {
	var companyID, date string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the state governing a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.Parse(domain.DateLayout, date)
			if err != nil {
				return apperrors.Wrap(apperrors.KindValidation, err, "invalid --date")
			}
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				state, err := rt.services.Period.GetPeriodStateForDate(ctx, companyID, day)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), state)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&date, "date", "", "day to check, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newPeriodTransitionCmd(app *App) *cobra.Command {
	var (
		req   dto.TransitionPeriodRequest
		state string
	)
	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Append a state to a period's lock log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.NextState = domain.PeriodState(state)
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				lock, err := rt.services.Period.TransitionPeriod(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), lock)
			})
		},
	}
	cmd.Flags().StringVar(&req.CompanyID, "company", "", "company id")
	cmd.Flags().StringVar(&req.PeriodID, "period", "", "period id")
	cmd.Flags().StringVar(&state, "to", "", "next state: OPEN, SOFT_CLOSED or LOCKED")
	cmd.Flags().StringVar(&req.ActorID, "actor", "", "acting user id")
	cmd.Flags().StringVar(&req.Reason, "reason", "", "why the state changes")
	cmd.Flags().StringVar(&req.CorrelationID, "correlation", "", "correlation id; generated when empty")
	for _, f := range []string{"company", "period", "to", "actor"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newPeriodHistoryCmd(app *App) *cobra.Command {
	var companyID, periodID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a period's lock log, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				locks, err := rt.services.Period.ListPeriodLocks(ctx, companyID, periodID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), locks)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&periodID, "period", "", "period id")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

func periodsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Manage fiscal periods",
	}
	cmd.AddCommand(
		periodsCreateCmd(c),
		periodsListCmd(c),
		periodTransitionCmd(c, "close", "Close a period to new postings", (*usecase.PeriodUseCase).ClosePeriod),
		periodTransitionCmd(c, "lock", "Lock a closed period permanently", (*usecase.PeriodUseCase).LockPeriod),
	)
	return cmd
}

func periodsCreateCmd(c *cli) *cobra.Command {
	var name, start, end string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an open fiscal period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startDate, err := parseDate(start)
			if err != nil {
				return err
			}
			endDate, err := parseDate(end)
			if err != nil {
				return err
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			period, err := ledger.Periods.CreatePeriod(ctx, usecase.CreatePeriodInput{
				Name:      name,
				StartDate: startDate,
				EndDate:   endDate,
				CreatedBy: c.user,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toPeriodView(period))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Period name, e.g. 2024-03")
	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func periodsListCmd(c *cli) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List fiscal periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			periods, err := ledger.Periods.ListPeriods(ctx, limit, offset)
			if err != nil {
				return err
			}
			views := make([]periodView, 0, len(periods))
			for _, p := range periods {
				views = append(views, toPeriodView(p))
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of periods")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of periods to skip")
	return cmd
}

type periodTransition func(uc *usecase.PeriodUseCase, ctx context.Context, id, user string) (*domain.FiscalPeriod, error)

func periodTransitionCmd(c *cli, use, short string, transition periodTransition) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PERIOD_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			period, err := transition(ledger.Periods, ctx, args[0], c.user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toPeriodView(period))
		},
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

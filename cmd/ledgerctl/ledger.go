package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errBalancesDrifted = errors.New("stored balances differ from posted lines")

func ledgerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger integrity checks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify that posted debits equal posted credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			report, err := ledger.Integrity.CheckConsistency(ctx)
			if report != nil {
				if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
					return perr
				}
			}
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Recompute account balances from posted lines and report drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			report, err := ledger.Integrity.Reconcile(ctx)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Discrepancies) > 0 {
				return errBalancesDrifted
			}
			return nil
		},
	})

	return cmd
}


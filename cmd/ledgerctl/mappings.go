package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/iho/ledgerpost/internal/integration"
)

func mappingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Map posting roles to account codes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set ROLE CODE",
		Short: "Point a posting role at an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, code := args[0], args[1]
			if !slices.Contains(integration.Roles, role) {
				return fmt.Errorf("unknown role %q, expected one of %v", role, integration.Roles)
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			if _, err := ledger.Accounts.GetAccountByCode(ctx, code); err != nil {
				return fmt.Errorf("account %s: %w", code, err)
			}
			if err := ledger.Stores.Mappings.Set(ctx, role, code); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{role: code})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show every role and its account; unmapped roles are empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			mapped, err := ledger.Stores.Mappings.List(ctx)
			if err != nil {
				return err
			}
			out := make(map[string]string, len(integration.Roles))
			for _, role := range integration.Roles {
				out[role] = mapped[role]
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})

	return cmd
}

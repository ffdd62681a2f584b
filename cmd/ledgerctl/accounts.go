package main

import (
	"github.com/spf13/cobra"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

func accountsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(accountsCreateCmd(c), accountsListCmd(c), accountsDeactivateCmd(c))
	return cmd
}

func accountsCreateCmd(c *cli) *cobra.Command {
	var input usecase.CreateAccountInput
	var category string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			input.Category = domain.Category(category)
			input.CreatedBy = c.user
			account, err := ledger.Accounts.CreateAccount(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toAccountView(account))
		},
	}

	cmd.Flags().StringVar(&input.Code, "code", "", "Account code")
	cmd.Flags().StringVar(&input.Name, "name", "", "Account name")
	cmd.Flags().StringVar(&category, "category", "", "asset, liability, equity, income, cost_of_sales, expense, other_income or other_expense")
	cmd.Flags().StringVar(&input.ParentCode, "parent", "", "Parent grouping account code")
	cmd.Flags().BoolVar(&input.Grouping, "grouping", false, "Create a grouping account that cannot carry lines")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func accountsListCmd(c *cli) *cobra.Command {
	var input usecase.ListAccountsInput

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			accounts, err := ledger.Accounts.ListAccounts(ctx, input)
			if err != nil {
				return err
			}
			views := make([]accountView, 0, len(accounts))
			for _, a := range accounts {
				views = append(views, toAccountView(a))
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().IntVar(&input.Limit, "limit", 50, "Maximum number of accounts")
	cmd.Flags().IntVar(&input.Offset, "offset", 0, "Number of accounts to skip")
	return cmd
}

func accountsDeactivateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate CODE",
		Short: "Stop an account from receiving new lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			account, err := ledger.Accounts.DeactivateAccount(ctx, args[0], c.user)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toAccountView(account))
		},
	}
}

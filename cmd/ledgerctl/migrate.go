package main

import (
	"github.com/spf13/cobra"

	"github.com/iho/ledgerpost/internal/infrastructure/postgres"
)

func migrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, c.log); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"status": "migrated"})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, c.log); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"status": "rolled back"})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			status, err := postgres.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath, c.log)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	})

	return cmd
}

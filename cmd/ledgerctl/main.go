// Command ledgerctl is the operator CLI for the ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	postgresRepo "github.com/iho/ledgerpost/internal/adapter/repository/postgres"
	"github.com/iho/ledgerpost/internal/app"
	"github.com/iho/ledgerpost/internal/infrastructure/config"
	"github.com/iho/ledgerpost/internal/infrastructure/logger"
	"github.com/iho/ledgerpost/internal/infrastructure/postgres"
)

// cli holds what the commands share. The ledger is opened on first use so
// that commands like migrate never build it.
type cli struct {
	user    string
	timeout time.Duration
	log     zerolog.Logger

	cfg    *config.Config
	pool   *pgxpool.Pool
	ledger *app.Ledger
}

func (c *cli) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *cli) open(ctx context.Context) (*app.Ledger, error) {
	if c.ledger != nil {
		return c.ledger, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, 2, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.pool = pool
	c.ledger = app.NewLedger(app.PostgresStores(pool), app.Options{
		Logger:  c.log,
		Retrier: postgresRepo.NewRetrier(postgresRepo.WithRetrierLogger(c.log)),
		VATRate: cfg.VATRate,
	})
	return c.ledger, nil
}

func (c *cli) close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// context bounds one command by --timeout.
func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Ledger operator CLI",
		Long:          `Manage accounts, fiscal periods, role mappings, journal entries and posting failures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&c.user, "user", defaultUser(), "User recorded on audited changes")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Command timeout")

	root.AddCommand(
		migrateCmd(c),
		accountsCmd(c),
		mappingsCmd(c),
		periodsCmd(c),
		entriesCmd(c),
		failuresCmd(c),
		ledgerCmd(c),
	)
	return root
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "ledgerctl"
}

func main() {
	c := &cli{log: logger.NewWithWriter(logger.Config{Level: "warn", Format: "console", Service: "ledgerctl"}, os.Stderr)}
	defer c.close()

	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		c.close()
		os.Exit(1)
	}
}

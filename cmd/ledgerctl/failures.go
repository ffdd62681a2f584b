package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/iho/ledgerpost/internal/domain"
)

var errStillFailing = errors.New("event still fails to post")

func failuresCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "Inspect and retry events that failed to post",
	}
	cmd.AddCommand(failuresListCmd(c), failuresRetryCmd(c))
	return cmd
}

func failuresListCmd(c *cli) *cobra.Command {
	var limit, offset int
	var payload bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open failures, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			failures, err := ledger.Failures.ListOpenFailures(ctx, limit, offset)
			if err != nil {
				return err
			}
			views := make([]failureView, 0, len(failures))
			for _, f := range failures {
				views = append(views, toFailureView(f, payload))
			}
			return printJSON(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of failures")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of failures to skip")
	cmd.Flags().BoolVar(&payload, "payload", false, "Include the stored event payload")
	return cmd
}

type retryResult struct {
	Posted bool       `json:"posted"`
	Entry  *entryView `json:"entry,omitempty"`
	Error  string     `json:"error,omitempty"`
}

func failuresRetryCmd(c *cli) *cobra.Command {
	var (
		key   domain.EventKey
		limit int
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Retry one failure by key, or the oldest open failures without one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}

			if key.SourceType == "" && key.SourceID == "" && key.EventType == "" {
				report, err := ledger.Dispatcher.RetryOpen(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			}
			if key.SourceType == "" || key.SourceID == "" || key.EventType == "" {
				return errors.New("--source-type, --source-id and --event-type go together")
			}

			entry, retryErr := ledger.Dispatcher.Retry(ctx, key)
			if errors.Is(retryErr, domain.ErrFailureNotFound) {
				return retryErr
			}
			res := retryResult{Posted: retryErr == nil}
			if retryErr != nil {
				res.Error = retryErr.Error()
			}
			if entry != nil {
				v := toEntryView(entry)
				res.Entry = &v
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if retryErr != nil {
				return errStillFailing
			}
			return nil
		},
	}

	cmd.Flags().Var(sourceTypeFlag{&key.SourceType}, "source-type", "Source type of the failure to retry")
	cmd.Flags().StringVar(&key.SourceID, "source-id", "", "Source id of the failure to retry")
	cmd.Flags().StringVar(&key.EventType, "event-type", "", "Event type of the failure to retry")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of open failures to retry")
	return cmd
}

// sourceTypeFlag lets a domain.SourceType be bound as a pflag value.
type sourceTypeFlag struct{ p *domain.SourceType }

func (f sourceTypeFlag) String() string {
	if f.p == nil {
		return ""
	}
	return string(*f.p)
}

func (f sourceTypeFlag) Set(s string) error {
	*f.p = domain.SourceType(s)
	return nil
}

func (sourceTypeFlag) Type() string { return "string" }

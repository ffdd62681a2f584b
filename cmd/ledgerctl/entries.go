package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/ledgerpost/internal/domain"
	"github.com/iho/ledgerpost/internal/usecase"
)

func entriesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Inspect, post and reverse journal entries",
	}
	cmd.AddCommand(entriesShowCmd(c), entriesCreateCmd(c), entriesPostCmd(c), entriesReverseCmd(c))
	return cmd
}

func entriesShowCmd(c *cli) *cobra.Command {
	var byNumber bool

	cmd := &cobra.Command{
		Use:   "show ENTRY",
		Short: "Show an entry with its lines, by id or with --number by journal number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			var entry *domain.JournalEntry
			if byNumber {
				entry, err = ledger.Journal.GetEntryByNumber(ctx, args[0])
			} else {
				entry, err = ledger.Journal.GetEntry(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toEntryView(entry))
		},
	}

	cmd.Flags().BoolVar(&byNumber, "number", false, "Look the entry up by journal number")
	return cmd
}

func entriesCreateCmd(c *cli) *cobra.Command {
	var (
		date        string
		description string
		lines       []string
		post        bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a manual entry from --line CODE:DEBIT:CREDIT[:DESCRIPTION] flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entryDate, err := parseDate(date)
			if err != nil {
				return err
			}
			input := usecase.CreateEntryInput{
				EntryDate:   entryDate,
				EntryType:   domain.EntryTypeManual,
				SourceType:  domain.SourceManual,
				Description: description,
				AutoPost:    post,
				CreatedBy:   c.user,
			}
			for _, raw := range lines {
				line, err := parseLine(raw)
				if err != nil {
					return err
				}
				input.Lines = append(input.Lines, line)
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			entry, err := ledger.Journal.CreateEntry(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toEntryView(entry))
		},
	}

	cmd.Flags().StringVar(&date, "date", time.Now().UTC().Format(time.DateOnly), "Entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "Entry description")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "Journal line as CODE:DEBIT:CREDIT[:DESCRIPTION], repeatable")
	cmd.Flags().BoolVar(&post, "post", false, "Post the entry immediately instead of leaving a draft")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func entriesPostCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "post ENTRY_ID",
		Short: "Post a draft entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			entry, err := ledger.Journal.Post(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toEntryView(entry))
		},
	}
}

func entriesReverseCmd(c *cli) *cobra.Command {
	var date, description string

	cmd := &cobra.Command{
		Use:   "reverse ENTRY_ID",
		Short: "Post the mirror of an entry and mark it reversed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := usecase.ReverseInput{EntryID: args[0], User: c.user, Description: description}
			if date != "" {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				input.ReversalDate = &d
			}

			ctx, cancel := c.context(cmd)
			defer cancel()

			ledger, err := c.open(ctx)
			if err != nil {
				return err
			}
			entry, err := ledger.Reversal.Reverse(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toEntryView(entry))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Reversal date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&description, "description", "", "Reversal description")
	return cmd
}

// parseLine reads CODE:DEBIT:CREDIT with an optional trailing description.
func parseLine(raw string) (usecase.LineInput, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 3 {
		return usecase.LineInput{}, fmt.Errorf("invalid line %q, expected CODE:DEBIT:CREDIT[:DESCRIPTION]", raw)
	}

	amount := func(s string) (decimal.Decimal, error) {
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q in line %q", s, raw)
		}
		return d, nil
	}

	debit, err := amount(parts[1])
	if err != nil {
		return usecase.LineInput{}, err
	}
	credit, err := amount(parts[2])
	if err != nil {
		return usecase.LineInput{}, err
	}

	line := usecase.LineInput{AccountCode: parts[0], Debit: debit, Credit: credit}
	if len(parts) == 4 {
		line.Description = parts[3]
	}
	return line, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v4"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
)

func newSummaryCommand(root *rootConfig) *ff.Command {
	defaults := export.DefaultOptions()

	fs := ff.NewFlagSet("summary").SetParent(root.flags)
	separator := fs.String('s', "sep", defaults.Separator, "field separator of the file")
	encoding := fs.String('e', "encoding", defaults.Encoding, "encoding of the file")

	return &ff.Command{
		Name:      "summary",
		Usage:     "image2csv summary [FLAGS] <file.csv>...",
		ShortHelp: "total converted transactions per month",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			if err := root.setupLogging(); err != nil {
				return err
			}
			if len(args) == 0 {
				return errors.New("no CSV files given")
			}

			opts := export.Options{Separator: *separator, Encoding: *encoding}
			var transactions []export.Transaction
			for _, path := range args {
				txs, err := readTransactions(path, opts)
				if err != nil {
					return err
				}
				for _, tx := range txs {
					if !tx.Parsed {
						root.printer.warn("%s:%d: value %q is not an amount, skipped", path, tx.Line, tx.Amount)
					}
				}
				transactions = append(transactions, txs...)
			}

			summary := export.Summarize(transactions)
			tw := tabwriter.NewWriter(root.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "month\ttransactions\ttotal\t")
			for _, m := range summary.ByMonth {
				fmt.Fprintf(tw, "%s\t%d\t%s\t\n", m.Month, m.Count, m.Total.StringFixed(2))
			}
			fmt.Fprintf(tw, "all\t%d\t%s\t\n", summary.Count, summary.Total.StringFixed(2))
			if len(summary.Unparsed) > 0 {
				fmt.Fprintf(tw, "unparsed\t%d\t\t\n", len(summary.Unparsed))
			}
			return tw.Flush()
		},
	}
}

func readTransactions(path string, opts export.Options) ([]export.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txs, err := export.ReadTransactions(f, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return txs, nil
}

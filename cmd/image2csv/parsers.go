package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/peterbourgon/ff/v4"

	"github.com/marcelomendoncasoares/image2csv/internal/statement"
)

func newParsersCommand(root *rootConfig) *ff.Command {
	return &ff.Command{
		Name:      "parsers",
		Usage:     "image2csv parsers",
		ShortHelp: "list the available parsers",
		Flags:     ff.NewFlagSet("parsers").SetParent(root.flags),
		Exec: func(ctx context.Context, args []string) error {
			tw := tabwriter.NewWriter(root.stdout, 0, 4, 2, ' ', 0)
			for _, v := range statement.Vendors() {
				fmt.Fprintf(tw, "%s\t%s\n", v.Name, v.Description)
			}
			return tw.Flush()
		},
	}
}

func newVersionCommand(root *rootConfig) *ff.Command {
	return &ff.Command{
		Name:      "version",
		Usage:     "image2csv version",
		ShortHelp: "print the version",
		Flags:     ff.NewFlagSet("version").SetParent(root.flags),
		Exec: func(ctx context.Context, args []string) error {
			fmt.Fprintln(root.stdout, version)
			return nil
		},
	}
}

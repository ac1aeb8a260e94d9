package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/peterbourgon/ff/v4"

	"github.com/marcelomendoncasoares/image2csv/internal/extract"
	"github.com/marcelomendoncasoares/image2csv/internal/fixture"
	"github.com/marcelomendoncasoares/image2csv/internal/scanning"
	"github.com/marcelomendoncasoares/image2csv/internal/statement"
)

type checkConfig struct {
	root   *rootConfig
	engine engineConfig
	parser string
	clock  statement.TimeSource
}

func newCheckCommand(root *rootConfig) *ff.Command {
	cfg := &checkConfig{root: root, clock: statement.SystemClock{}}

	fs := ff.NewFlagSet("check").SetParent(root.flags)
	fs.StringVar(&cfg.parser, 'p', "parser", "", "parser name (default: the folder name)")
	cfg.engine.register(fs)

	return &ff.Command{
		Name:      "check",
		Usage:     "image2csv check [FLAGS] <sample folder>...",
		ShortHelp: "compare a parser's output with the expected results of sample folders",
		LongHelp: "Every folder holds screenshots and a " + fixture.DescriptorFile + " file " +
			"with the expected records. Folders are named after their parser unless --parser is set.",
		Flags: fs,
		Exec:  cfg.exec,
	}
}

func (c *checkConfig) exec(ctx context.Context, args []string) error {
	if err := c.root.setupLogging(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("no sample folders given")
	}

	scanner, err := c.engine.newScanner()
	if err != nil {
		return err
	}
	defer scanner.Close()

	failed := 0
	for _, dir := range args {
		if err := c.checkFolder(ctx, scanner, dir); err != nil {
			c.root.printer.fail("%s: %v", dir, err)
			failed++
		}
	}
	if failed > 0 {
		c.root.printer.fail("%d of %d sample folders failed.", failed, len(args))
		return errReported
	}
	c.root.printer.success("All %d sample folders match.", len(args))
	return nil
}

func (c *checkConfig) checkFolder(ctx context.Context, scanner scanning.Scanner, dir string) error {
	want, err := fixture.Load(dir, c.clock)
	if err != nil {
		return err
	}

	name := c.parser
	if name == "" {
		name = filepath.Base(filepath.Clean(dir))
	}
	parser, diagnostics, err := statement.New(name, c.clock)
	if err != nil {
		return err
	}
	for _, d := range diagnostics {
		c.root.printer.warn("%s: %s", dir, d)
	}

	pipeline := statement.NewPipeline(parser, extract.NewExtractor(scanner, c.engine.extractConfig()), dir)
	table, err := pipeline.Table(ctx, false)
	if err != nil {
		return err
	}

	for _, d := range pipeline.Diagnostics() {
		c.root.printer.warn("%s: %s", dir, d)
	}

	if unique := table.DropDuplicates().Len(); unique != want.Expected.Len() {
		return fmt.Errorf("after dropping duplicates: %w",
			&fixture.MismatchError{ExpectedRows: want.Expected.Len(), ActualRows: unique})
	}

	report, err := want.Compare(table)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		c.root.printer.warn("%s: %s", dir, w)
	}
	c.root.printer.success("%s: %d records match.", dir, table.Len())
	return nil
}

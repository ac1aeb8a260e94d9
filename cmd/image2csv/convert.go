package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
	"github.com/marcelomendoncasoares/image2csv/internal/extract"
	"github.com/marcelomendoncasoares/image2csv/internal/statement"
)

type convertConfig struct {
	root           *rootConfig
	engine         engineConfig
	output         string
	parser         string
	vendorFlags    map[string]*bool
	dropDuplicates bool
	append         bool
	separator      string
	encoding       string
	clock          statement.TimeSource
}

func newConvertCommand(root *rootConfig) *ff.Command {
	cfg := &convertConfig{
		root:        root,
		vendorFlags: map[string]*bool{},
		clock:       statement.SystemClock{},
	}
	defaults := export.DefaultOptions()

	fs := ff.NewFlagSet("convert").SetParent(root.flags)
	fs.StringVar(&cfg.output, 'o', "output", "", "output file, .xlsx for a workbook (default <parser>_<YYYYmmdd_HHMMSS>.csv)")
	fs.StringVar(&cfg.parser, 'p', "parser", "", "parser name, see the parsers command")
	for _, v := range statement.Vendors() {
		cfg.vendorFlags[v.Name] = fs.BoolLong(v.Name, "use the "+v.Name+" parser")
	}
	fs.BoolVar(&cfg.dropDuplicates, 'd', "drop-duplicates", "drop repeated transactions")
	fs.BoolVar(&cfg.append, 0, "append", "append to the output file instead of replacing it")
	fs.StringVar(&cfg.separator, 's', "sep", defaults.Separator, "field separator")
	fs.StringVar(&cfg.encoding, 'e', "encoding", defaults.Encoding, "output encoding, e.g. latin1, utf-8, cp1252")
	cfg.engine.register(fs)

	return &ff.Command{
		Name:      "convert",
		Usage:     "image2csv convert [FLAGS] <image or directory>...",
		ShortHelp: "convert statement screenshots into a CSV file",
		Flags:     fs,
		Exec:      cfg.exec,
	}
}

// parserName resolves --parser and the per-vendor shortcut flags
func (c *convertConfig) parserName() (string, error) {
	names := []string{}
	if c.parser != "" {
		names = append(names, c.parser)
	}
	for _, name := range statement.Names() {
		if *c.vendorFlags[name] {
			names = append(names, name)
		}
	}

	switch len(names) {
	case 0:
		return "", fmt.Errorf("choose a parser with --parser: %s", strings.Join(statement.Names(), ", "))
	case 1:
		return names[0], nil
	default:
		return "", fmt.Errorf("only one parser can be used at a time, got %s", strings.Join(names, ", "))
	}
}

func (c *convertConfig) outputPath(parser string) string {
	if c.output != "" {
		return c.output
	}
	return fmt.Sprintf("%s_%s.csv", parser, c.clock.Now().Format("20060102_150405"))
}

func (c *convertConfig) exec(ctx context.Context, args []string) error {
	if err := c.root.setupLogging(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errors.New("no input images or directories")
	}

	name, err := c.parserName()
	if err != nil {
		return err
	}
	parser, diags, err := statement.New(name, c.clock)
	if err != nil {
		return err
	}
	for _, d := range diags {
		c.root.printer.warn("%s", d)
	}

	opts := export.Options{Separator: c.separator, Encoding: c.encoding}
	if err := opts.Validate(); err != nil {
		return err
	}

	scanner, err := c.engine.newScanner()
	if err != nil {
		return err
	}
	defer scanner.Close()

	extractor := extract.NewExtractor(scanner, c.engine.extractConfig())
	return c.convert(ctx, statement.NewPipeline(parser, extractor, args...), opts)
}

// convert runs the pipeline and writes its table
func (c *convertConfig) convert(ctx context.Context, pipeline *statement.Pipeline, opts export.Options) error {
	started := time.Now()
	table, err := pipeline.Table(ctx, c.dropDuplicates)
	if errors.Is(err, statement.ErrEmptyResults) {
		c.root.printer.fail("No results after image conversion. Check that the images match the %s parser.", pipeline.Parser().Name())
		return errReported
	}
	if err != nil {
		return err
	}
	for _, d := range pipeline.Diagnostics() {
		c.root.printer.warn("%s", d)
	}

	path := c.outputPath(pipeline.Parser().Name())
	if c.append {
		err = export.AppendFile(path, table, opts, c.dropDuplicates)
	} else {
		err = export.WriteFile(path, table, opts)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	images, _ := pipeline.Images(ctx)
	c.root.printer.success("Converted %d records from %d images into %s in %s.",
		table.Len(), len(images), path, time.Since(started).Round(time.Millisecond))
	return nil
}

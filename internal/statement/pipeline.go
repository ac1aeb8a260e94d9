package statement

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
)

// TextExtractor recognizes the text of every image under the given paths,
// one text per image, in order
type TextExtractor interface {
	Extract(ctx context.Context, paths ...string) ([]string, error)
}

// Pipeline runs extraction, formatting and parsing for one set of inputs.
// Each stage is computed at most once and reused; failed stages are retried
// on the next call. A Pipeline is meant for a single consumer.
type Pipeline struct {
	parser    Parser
	extractor TextExtractor
	paths     []string

	images     []string
	imagesDone bool

	lines     []string
	linesDone bool

	records     []Record
	recordsDone bool

	diagnostics Diagnostics
}

// NewPipeline creates a Pipeline over the given files and directories
func NewPipeline(parser Parser, extractor TextExtractor, paths ...string) *Pipeline {
	return &Pipeline{
		parser:    parser,
		extractor: extractor,
		paths:     paths,
	}
}

// Parser returns the parser of the pipeline
func (p *Pipeline) Parser() Parser {
	return p.parser
}

// Images returns the raw text of every image
func (p *Pipeline) Images(ctx context.Context) ([]string, error) {
	if p.imagesDone {
		return p.images, nil
	}

	images, err := p.extractor.Extract(ctx, p.paths...)
	if err != nil {
		return nil, err
	}

	p.images, p.imagesDone = images, true
	return p.images, nil
}

// Lines returns the formatted lines of every image, flattened in image order
func (p *Pipeline) Lines(ctx context.Context) ([]string, error) {
	if p.linesDone {
		return p.lines, nil
	}

	images, err := p.Images(ctx)
	if err != nil {
		return nil, err
	}

	formatter := p.parser.Formatter()
	lines := []string{}
	for _, text := range images {
		lines = append(lines, formatter.Format(text)...)
	}

	p.lines, p.linesDone = lines, true
	return p.lines, nil
}

// Records returns the parsed records. ErrEmptyResults is returned, on every
// call, when nothing was parsed.
func (p *Pipeline) Records(ctx context.Context) ([]Record, error) {
	if !p.recordsDone {
		lines, err := p.Lines(ctx)
		if err != nil {
			return nil, err
		}

		p.records = p.parser.ParseTextLines(lines)
		p.recordsDone = true
		p.checkValues()
		slog.Info("Parsed statement", "parser", p.parser.Name(), "images", len(p.images), "lines", len(lines), "records", len(p.records))
	}

	if len(p.records) == 0 {
		return nil, ErrEmptyResults
	}
	return p.records, nil
}

// checkValues flags amounts that did not normalize to a decimal number
func (p *Pipeline) checkValues() {
	for i, r := range p.records {
		value, ok := r.Get("value")
		if !ok {
			continue
		}
		if _, err := decimal.NewFromString(value); err != nil {
			p.diagnostics.Add("record %d: value %q is not a number", i+1, value)
		}
	}
}

// Diagnostics returns the warnings raised while parsing
func (p *Pipeline) Diagnostics() Diagnostics {
	return p.diagnostics
}

// Table returns the records as a table, optionally without repeated rows
func (p *Pipeline) Table(ctx context.Context, dropDuplicates bool) (*export.Table, error) {
	records, err := p.Records(ctx)
	if err != nil {
		return nil, err
	}

	table, err := export.FromRecords(records)
	if err != nil {
		return nil, err
	}
	if dropDuplicates {
		table = table.DropDuplicates()
	}
	return table, nil
}

// Export writes the table to path
func (p *Pipeline) Export(ctx context.Context, path string, dropDuplicates bool, opts export.Options) error {
	table, err := p.Table(ctx, dropDuplicates)
	if err != nil {
		return err
	}
	return export.WriteFile(path, table, opts)
}

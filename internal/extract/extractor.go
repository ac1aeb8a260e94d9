package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/marcelomendoncasoares/image2csv/internal/scanning"
)

// ExtractionError reports an image that could not be read or recognized.
// It aborts the whole batch.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting text from %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor turns image paths into recognized text
type Extractor struct {
	scanner scanning.Scanner
	cfg     Config
}

// NewExtractor creates a new Extractor. A zero Config falls back to DefaultConfig.
func NewExtractor(scanner scanning.Scanner, cfg Config) *Extractor {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultConfig().Extensions
	}
	return &Extractor{
		scanner: scanner,
		cfg:     cfg,
	}
}

// Resolve expands paths with the extractor's discovery settings
func (e *Extractor) Resolve(paths ...string) (ImageSet, error) {
	return Resolve(e.cfg, paths...)
}

// ExtractFile recognizes the text of a single image
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}

	text, err := e.scanner.ScanText(ctx, data, scanning.ContentTypeFor(path))
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	return text, nil
}

// Extract resolves the paths and recognizes every image concurrently.
// The result has one text per image in ImageSet order. The first failure
// cancels the remaining work and is returned without partial results.
func (e *Extractor) Extract(ctx context.Context, paths ...string) ([]string, error) {
	images, err := e.Resolve(paths...)
	if err != nil {
		return nil, err
	}
	return e.ExtractImages(ctx, images)
}

// ExtractImages recognizes an already resolved ImageSet
func (e *Extractor) ExtractImages(ctx context.Context, images ImageSet) ([]string, error) {
	texts := make([]string, len(images))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.workers())

	for i, path := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := e.ExtractFile(ctx, path)
			if err != nil {
				return err
			}
			texts[i] = text
			slog.Debug("Extracted image text", "path", path, "chars", len(text))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

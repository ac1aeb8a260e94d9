package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
	"github.com/marcelomendoncasoares/image2csv/internal/extract"
	"github.com/marcelomendoncasoares/image2csv/internal/scanning"
	"github.com/marcelomendoncasoares/image2csv/internal/statement"
)

var (
	// ErrNoFiles is returned when a conversion has no images
	ErrNoFiles = errors.New("no files uploaded")
	// ErrInvalidFormat is returned for an output format other than csv or xlsx
	ErrInvalidFormat = errors.New("invalid output format")
	// ErrInvalidOptions is returned for a bad separator or encoding
	ErrInvalidOptions = errors.New("invalid export options")
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var contentTypes = map[string]string{
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// IDGenerator generates unique IDs for conversions
type IDGenerator interface {
	Generate() string
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Upload is an image received in a request
type Upload struct {
	Filename string
	Data     []byte
}

// ConvertRequest describes one conversion
type ConvertRequest struct {
	Parser         string
	Files          []Upload
	DropDuplicates bool
	Format         string
	Options        export.Options
}

// ConvertResult is the exported table of a conversion
type ConvertResult struct {
	Conversion  *Conversion
	ContentType string
	Data        []byte
}

// Service converts uploaded screenshots
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	extractCfg  extract.Config
	idGenerator IDGenerator
	timeSource  statement.TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// db may be nil to keep no history.
func NewService(db DB, scanner scanning.Scanner, storage Storage, extractCfg extract.Config) *Service {
	return NewServiceWithDeps(db, scanner, storage, extractCfg, uuidGenerator{}, statement.SystemClock{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, extractCfg extract.Config, idGen IDGenerator, timeSrc statement.TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		extractCfg:  extractCfg,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRun            = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaceRun.ReplaceAllString(base, " "))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "image"
	}
	return base + strings.ToLower(ext)
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return FormatCSV, nil
	}
	if _, ok := contentTypes[format]; !ok {
		return "", fmt.Errorf("%w %q, use csv or xlsx", ErrInvalidFormat, format)
	}
	return format, nil
}

// Convert stores the uploads, runs the named parser over them and exports
// the table. The uploads are removed once the conversion ends.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*ConvertResult, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}
	format, err := normalizeFormat(req.Format)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		if err := req.Options.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}

	parser, diags, err := statement.New(req.Parser, s.timeSource)
	if err != nil {
		return nil, err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()
	defer func() {
		if err := s.storage.Delete(id); err != nil {
			slog.Warn("Failed to delete uploads", "conversion", id, "error", err)
		}
	}()

	paths := make([]string, 0, len(req.Files))
	for i, f := range req.Files {
		path, err := s.storage.Save(id, fmt.Sprintf("%03d_%s", i+1, sanitizeFilename(f.Filename)), f.Data)
		if err != nil {
			return nil, fmt.Errorf("saving file: %w", err)
		}
		paths = append(paths, path)
	}

	pipeline := statement.NewPipeline(parser, extract.NewExtractor(s.scanner, s.extractCfg), paths...)
	table, err := pipeline.Table(ctx, req.DropDuplicates)
	if err != nil {
		slog.Error("Failed to convert images",
			"conversion", id,
			"parser", parser.Name(),
			"files", len(req.Files),
			"error", err,
		)
		return nil, err
	}
	diags = append(diags, pipeline.Diagnostics()...)

	conversion := &Conversion{
		ID:        id,
		Parser:    parser.Name(),
		Images:    len(paths),
		Records:   table.Len(),
		Format:    format,
		Filename:  fmt.Sprintf("%s_%s.%s", parser.Name(), now.Format("20060102_150405"), format),
		Warnings:  diags,
		CreatedAt: now,
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, conversion.Filename, table, req.Options); err != nil {
		return nil, fmt.Errorf("exporting table: %w", err)
	}

	if s.db != nil {
		if err := s.db.SaveConversion(conversion); err != nil {
			slog.Warn("Failed to save conversion", "conversion", id, "error", err)
		}
	}

	return &ConvertResult{
		Conversion:  conversion,
		ContentType: contentTypes[format],
		Data:        buf.Bytes(),
	}, nil
}

// ListConversions returns the conversion history, empty when none is kept
func (s *Service) ListConversions() ([]*Conversion, error) {
	if s.db == nil {
		return []*Conversion{}, nil
	}
	conversions, err := s.db.ListConversions()
	if err != nil {
		return nil, fmt.Errorf("listing conversions: %w", err)
	}
	return conversions, nil
}

// GetConversion retrieves a conversion by ID
func (s *Service) GetConversion(id string) (*Conversion, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversionNotFound, id)
	}
	conversion, err := s.db.GetConversion(id)
	if err != nil {
		return nil, fmt.Errorf("getting conversion: %w", err)
	}
	return conversion, nil
}

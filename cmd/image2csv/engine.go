package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"

	"github.com/marcelomendoncasoares/image2csv/internal/extract"
	"github.com/marcelomendoncasoares/image2csv/internal/scanning"
)

// engineConfig holds the OCR and discovery flags of the commands that read images
type engineConfig struct {
	engine          string
	lang            string
	psm             int
	tesseractConfig string
	geminiKey       string
	geminiModel     string
	ollamaURL       string
	ollamaModel     string
	cachePath       string
	workers         int
	extensions      string
	caseInsensitive bool
}

func (c *engineConfig) register(fs *ff.FlagSet) {
	defaults := scanning.DefaultOptions()
	fs.StringVar(&c.engine, 0, "engine", "tesseract", "OCR engine: tesseract, gemini or ollama")
	fs.StringVar(&c.lang, 0, "lang", defaults.Language, "tesseract language(s), e.g. por or por+eng")
	fs.IntVar(&c.psm, 0, "psm", defaults.PageSegMode, "tesseract page segmentation mode")
	fs.StringVar(&c.tesseractConfig, 0, "tesseract-config", "", "extra tesseract options, e.g. \"-c preserve_interword_spaces=1 --dpi 300\"")
	fs.StringVar(&c.geminiKey, 0, "gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
	fs.StringVar(&c.geminiModel, 0, "gemini-model", "", "Google Gemini model name")
	fs.StringVar(&c.ollamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	fs.StringVar(&c.ollamaModel, 0, "ollama-model", "", "Ollama vision model name")
	fs.StringVar(&c.cachePath, 0, "cache", "", "cache recognized text in this database file")
	fs.IntVar(&c.workers, 0, "workers", 0, "concurrent OCR calls (0 picks one from the CPU count)")
	fs.StringVar(&c.extensions, 0, "ext", strings.Join(extract.DefaultConfig().Extensions, ","), "image extensions discovered inside directories")
	fs.BoolVar(&c.caseInsensitive, 0, "case-insensitive", "match image extensions ignoring case")
}

func (c *engineConfig) options() scanning.Options {
	return scanning.Options{
		Language:    c.lang,
		PageSegMode: c.psm,
		ExtraConfig: c.tesseractConfig,
	}
}

func (c *engineConfig) extractConfig() extract.Config {
	cfg := extract.DefaultConfig()
	if exts := splitList(c.extensions); len(exts) > 0 {
		cfg.Extensions = exts
	}
	cfg.CaseInsensitive = c.caseInsensitive
	cfg.Workers = c.workers
	return cfg
}

// splitList splits a comma separated flag value, ignoring blanks and leading dots
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimPrefix(strings.TrimSpace(item), ".")
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// newScanner builds the selected engine, wrapped with the text cache when one is configured
func (c *engineConfig) newScanner() (scanning.Scanner, error) {
	var (
		scanner     scanning.Scanner
		fingerprint string
		err         error
	)

	switch c.engine {
	case "tesseract":
		slog.Info("Initializing Tesseract scanner...", "lang", c.lang, "psm", c.psm)
		scanner, err = scanning.NewTesseract(c.options())
		fingerprint = scanning.Fingerprint(c.engine, c.options())
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := c.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", c.geminiModel)
		scanner, err = scanning.NewGemini(apiKey, c.geminiModel)
		fingerprint = c.engine + "|" + c.geminiModel
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", c.ollamaURL, "model", c.ollamaModel)
		scanner, err = scanning.NewOllama(c.ollamaURL, c.ollamaModel)
		fingerprint = c.engine + "|" + c.ollamaModel
	default:
		return nil, fmt.Errorf("invalid engine %q, use tesseract, gemini or ollama", c.engine)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s: %w", c.engine, err)
	}

	if c.cachePath == "" {
		return scanner, nil
	}

	cache, err := scanning.NewBoltCache(c.cachePath)
	if err != nil {
		scanner.Close()
		return nil, err
	}
	slog.Info("Caching recognized text", "path", c.cachePath)
	return scanning.NewCachedScanner(scanner, cache, fingerprint), nil
}

package scanning

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the Scanner interface using the tesseract library.
// A new client is created for every page so concurrent calls never share state.
type Tesseract struct {
	languages      []string
	pageSegMode    int
	variables      map[gosseract.SettableVariable]string
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// NewTesseract locates the engine, applies the options and checks the language data
func NewTesseract(opts Options) (*Tesseract, error) {
	if _, err := LocateTesseract(); err != nil {
		return nil, err
	}

	t, err := newTesseract(opts)
	if err != nil {
		return nil, err
	}

	if t.tessdataPrefix == "" {
		if err := checkLanguages(t.languages, installedLanguages); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func newTesseract(opts Options) (*Tesseract, error) {
	if opts.Language == "" {
		opts.Language = DefaultOptions().Language
	}

	t := &Tesseract{
		languages:     splitLanguages(opts.Language),
		pageSegMode:   opts.PageSegMode,
		variables:     map[gosseract.SettableVariable]string{},
		clientFactory: gosseract.NewClient,
	}
	if err := t.applyExtraConfig(opts.ExtraConfig); err != nil {
		return nil, err
	}
	if t.pageSegMode < 0 || t.pageSegMode > int(gosseract.PSM_RAW_LINE) {
		return nil, configError("psm", "page segmentation mode %d out of range", t.pageSegMode)
	}

	return t, nil
}

func splitLanguages(language string) []string {
	var langs []string
	for _, lang := range strings.Split(language, "+") {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}

// applyExtraConfig understands the subset of the tesseract command line that maps
// onto library settings
func (t *Tesseract) applyExtraConfig(extra string) error {
	args := strings.Fields(extra)
	for i := 0; i < len(args); i++ {
		arg := args[i]

		value := func() (string, error) {
			if i+1 >= len(args) {
				return "", configError(arg, "missing value")
			}
			i++
			return args[i], nil
		}

		switch arg {
		case "-c":
			v, err := value()
			if err != nil {
				return err
			}
			name, setting, ok := strings.Cut(v, "=")
			if !ok || name == "" {
				return configError(arg, "expected name=value, got %q", v)
			}
			t.variables[gosseract.SettableVariable(name)] = setting
		case "--dpi":
			v, err := value()
			if err != nil {
				return err
			}
			if _, err := strconv.Atoi(v); err != nil {
				return configError(arg, "invalid dpi %q", v)
			}
			t.variables["user_defined_dpi"] = v
		case "--psm":
			v, err := value()
			if err != nil {
				return err
			}
			psm, err := strconv.Atoi(v)
			if err != nil {
				return configError(arg, "invalid page segmentation mode %q", v)
			}
			t.pageSegMode = psm
		case "-l":
			v, err := value()
			if err != nil {
				return err
			}
			t.languages = splitLanguages(v)
		case "--tessdata-dir":
			v, err := value()
			if err != nil {
				return err
			}
			t.tessdataPrefix = v
		default:
			return configError(arg, "unsupported option")
		}
	}
	return nil
}

// ScanText recognizes the text of every page, joined by a newline
func (t *Tesseract) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	pages, err := preparePages(imageData, contentType)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := t.recognize(page)
		if err != nil {
			return "", fmt.Errorf("recognizing page %d: %w", i+1, err)
		}
		texts = append(texts, text)
	}

	return strings.Join(texts, "\n"), nil
}

func (t *Tesseract) recognize(pngData []byte) (string, error) {
	client := t.clientFactory()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return "", fmt.Errorf("setting tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.pageSegMode)); err != nil {
		return "", fmt.Errorf("setting page segmentation mode: %w", err)
	}
	for name, value := range t.variables {
		if err := client.SetVariable(name, value); err != nil {
			return "", fmt.Errorf("setting variable %s: %w", name, err)
		}
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("loading image: %w", err)
	}

	return client.Text()
}

// Close is a no-op, clients are released after every page
func (t *Tesseract) Close() error {
	return nil
}

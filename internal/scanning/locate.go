package scanning

import (
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractCandidates lists where the tesseract executable is usually installed,
// in lookup order
var TesseractCandidates = []string{
	"tesseract",                // PATH
	"/usr/bin/tesseract",       // Linux
	"/usr/local/bin/tesseract", // macOS
	"/opt/homebrew/bin/tesseract",
	`C:\Program Files\Tesseract-OCR\tesseract.exe`,
	`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
}

// LocateTesseract returns the first candidate that resolves to an executable.
// With no candidates, TesseractCandidates is used.
func LocateTesseract(candidates ...string) (string, error) {
	if len(candidates) == 0 {
		candidates = TesseractCandidates
	}
	for _, candidate := range candidates {
		path, err := exec.LookPath(candidate)
		if err == nil {
			return path, nil
		}
		slog.Debug("Tesseract candidate not usable", "candidate", candidate, "error", err)
	}
	return "", &ConfigurationError{
		Setting: "tesseract",
		Err: fmt.Errorf("%w: add the tesseract executable to the PATH environment variable (tried %s)",
			ErrEngineNotFound, strings.Join(candidates, ", ")),
	}
}

// checkLanguages verifies that every requested language has trained data installed
func checkLanguages(requested []string, available func() ([]string, error)) error {
	installed, err := available()
	if err != nil {
		// Not fatal: tesseract reports the missing data again on first use.
		slog.Warn("Could not list installed tesseract languages", "error", err)
		return nil
	}
	for _, lang := range requested {
		if !slices.Contains(installed, lang) {
			return configError("language", "no trained data for %q (installed: %s)", lang, strings.Join(installed, ", "))
		}
	}
	return nil
}

func installedLanguages() ([]string, error) {
	return gosseract.GetAvailableLanguages()
}

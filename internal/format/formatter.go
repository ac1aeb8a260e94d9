// Package format cleans raw OCR text into the lines a statement grammar runs over.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var multipleNewlines = regexp.MustCompile(`\n+`)

// Replacement is a literal substring substitution
type Replacement struct {
	Old string
	New string
}

// Config describes how a Formatter trims and cleans text
type Config struct {
	// MinChars drops lines shorter than this many characters
	MinChars int
	// RemoveBeforeMatch drops everything up to and including the first line matching it
	RemoveBeforeMatch string
	// RemoveAfterMatch drops the last line matching it and everything after
	RemoveAfterMatch string
	// KeepMultipleNewlines disables collapsing runs of newlines
	KeepMultipleNewlines bool
	// NoSplit keeps the whole text as a single line
	NoSplit bool
	// SplitChar separates lines, "\n" when empty
	SplitChar string
	// Replacements are applied in order to every kept line
	Replacements []Replacement
}

// DefaultConfig returns the basic line cleanup
func DefaultConfig() Config {
	return Config{
		MinChars:  3,
		SplitChar: "\n",
	}
}

// Formatter splits raw text into cleaned lines. It is safe for concurrent use.
type Formatter struct {
	cfg          Config
	removeBefore *regexp.Regexp
	removeAfter  *regexp.Regexp
}

// New compiles the anchor patterns of cfg
func New(cfg Config) (*Formatter, error) {
	f := &Formatter{cfg: cfg}
	if f.cfg.SplitChar == "" {
		f.cfg.SplitChar = "\n"
	}

	var err error
	if f.removeBefore, err = compileAnchor(cfg.RemoveBeforeMatch); err != nil {
		return nil, fmt.Errorf("compiling remove-before pattern: %w", err)
	}
	if f.removeAfter, err = compileAnchor(cfg.RemoveAfterMatch); err != nil {
		return nil, fmt.Errorf("compiling remove-after pattern: %w", err)
	}
	return f, nil
}

// MustNew is like New but panics on an invalid pattern
func MustNew(cfg Config) *Formatter {
	f, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return f
}

// compileAnchor makes pattern only match at the start of a line
func compileAnchor(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + pattern + `)`)
}

// Config returns the configuration the formatter was built with
func (f *Formatter) Config() Config {
	return f.cfg
}

// Format applies, in order: newline collapsing, splitting, remove-before and
// remove-after trimming, the length filter and the replacements.
func (f *Formatter) Format(text string) []string {
	if !f.cfg.KeepMultipleNewlines {
		text = multipleNewlines.ReplaceAllString(text, "\n")
	}

	var lines []string
	if f.cfg.NoSplit {
		lines = []string{text}
	} else {
		lines = strings.Split(text, f.cfg.SplitChar)
	}

	if f.removeBefore != nil {
		for i, line := range lines {
			if f.removeBefore.MatchString(line) {
				lines = lines[i+1:]
				break
			}
		}
	}

	if f.removeAfter != nil {
		for i := len(lines) - 1; i >= 0; i-- {
			if f.removeAfter.MatchString(lines[i]) {
				lines = lines[:i]
				break
			}
		}
	}

	formatted := make([]string, 0, len(lines))
	for _, line := range lines {
		if utf8.RuneCountInString(line) < f.cfg.MinChars {
			continue
		}
		for _, r := range f.cfg.Replacements {
			if r.Old == "" {
				continue
			}
			line = strings.ReplaceAll(line, r.Old, r.New)
		}
		formatted = append(formatted, line)
	}
	return formatted
}

// Package statement turns the OCR text of statement screenshots into records.
package statement

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/marcelomendoncasoares/image2csv/internal/format"
)

// ErrEmptyResults is returned when parsing produced no record at all,
// usually because the wrong parser was chosen for the images
var ErrEmptyResults = errors.New("no results after image conversion")

// ErrUnknownParser is returned when a parser name is not registered
var ErrUnknownParser = errors.New("unknown parser")

// Parser turns formatted lines into records for one vendor layout
type Parser interface {
	// Name is the registry name of the parser
	Name() string
	// Formatter prepares raw OCR text for the grammar
	Formatter() *format.Formatter
	// ParseTextLines returns one record per grammar match, in match order
	ParseTextLines(lines []string) []Record
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// SystemClock is the TimeSource backed by the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Diagnostics are non fatal warnings for the caller to show
type Diagnostics []string

// Add appends a formatted warning
func (d *Diagnostics) Add(format string, args ...any) {
	*d = append(*d, fmt.Sprintf(format, args...))
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// grammar scans text for the named groups of a vendor regex
type grammar struct {
	re *regexp.Regexp
}

func newGrammar(pattern string) grammar {
	return grammar{re: regexp.MustCompile(pattern)}
}

// scan returns one record per non-overlapping match, left to right. Named
// groups become fields in declaration order; an optional group that did not
// participate is an empty string.
func (g grammar) scan(text string) []Record {
	names := g.re.SubexpNames()

	var records []Record
	for _, m := range g.re.FindAllStringSubmatchIndex(text, -1) {
		record := make(Record, 0, len(names)-1)
		for i, name := range names {
			if i == 0 || name == "" {
				continue
			}
			value := ""
			if m[2*i] >= 0 {
				value = text[m[2*i]:m[2*i+1]]
			}
			record = append(record, Field{Name: name, Value: value})
		}
		records = append(records, record)
	}
	return records
}

// normalizeValue turns a Brazilian amount ("1.234,56") into a decimal point
// number ("1234.56")
func normalizeValue(value string) string {
	return strings.ReplaceAll(strings.ReplaceAll(value, ".", ""), ",", ".")
}

func collapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

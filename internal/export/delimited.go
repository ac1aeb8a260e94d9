package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options controls delimited text output
type Options struct {
	// Separator is the single character between fields
	Separator string
	// Encoding is an IANA or WHATWG encoding name such as "latin1" or "utf-8"
	Encoding string
}

// DefaultOptions returns comma separated latin1 output, what spreadsheet
// software in Brazil opens without an import dialog
func DefaultOptions() Options {
	return Options{
		Separator: ",",
		Encoding:  "latin1",
	}
}

func (o Options) separator() (rune, error) {
	sep := o.Separator
	if sep == "" {
		sep = ","
	}
	r, size := utf8.DecodeRuneInString(sep)
	if size != len(sep) {
		return 0, fmt.Errorf("separator must be a single character, got %q", sep)
	}
	if r == '"' || r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid separator %q", sep)
	}
	return r, nil
}

// Validate checks the separator and the encoding name
func (o Options) Validate() error {
	if _, err := o.separator(); err != nil {
		return err
	}
	_, err := ResolveEncoding(o.Encoding)
	return err
}

// ResolveEncoding looks an encoding up by its IANA name or alias, falling back
// to WHATWG labels (e.g. "cp1252")
func ResolveEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}
	enc, err = htmlindex.Get(name)
	if err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// WriteDelimited writes a header row and one line per row. Every field is
// quoted and there is no index column.
func WriteDelimited(w io.Writer, t *Table, opts Options) error {
	sep, err := opts.separator()
	if err != nil {
		return err
	}
	enc, err := ResolveEncoding(opts.Encoding)
	if err != nil {
		return err
	}

	tw := transform.NewWriter(w, enc.NewEncoder())
	bw := bufio.NewWriter(tw)

	write := func(row []string) error {
		for i, field := range row {
			if i > 0 {
				bw.WriteRune(sep)
			}
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
			bw.WriteByte('"')
		}
		_, err := bw.WriteString("\n")
		return err
	}

	if err := write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding as %s: %w", opts.Encoding, err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("encoding as %s: %w", opts.Encoding, err)
	}
	return nil
}

// ReadDelimited parses text written by WriteDelimited back into a table
func ReadDelimited(r io.Reader, opts Options) (*Table, error) {
	sep, err := opts.separator()
	if err != nil {
		return nil, err
	}
	enc, err := ResolveEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.Comma = sep

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return &Table{Columns: header, Rows: rows}, nil
}

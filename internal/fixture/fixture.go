// Package fixture loads reference results for a folder of sample screenshots
// and compares parser output against them.
package fixture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
)

// DescriptorFile is the name of the descriptor inside a fixture folder
const DescriptorFile = "__expected_results__.json"

// Clock provides the date placeholders are resolved against
type Clock interface {
	Now() time.Time
}

// Descriptor is the content of DescriptorFile
type Descriptor struct {
	// MustMatch columns fail the comparison on any difference
	MustMatch []string `json:"must_match"`
	// PartialMatch columns only produce a warning with the share of differing cells
	PartialMatch []string `json:"partial_match"`
	// OptionalMatch columns are not compared
	OptionalMatch []string `json:"optional_match"`
	// Replacements map a placeholder value to a template over .Today,
	// e.g. {{ .Today.Format "02/01/2006" }}
	Replacements map[string]string `json:"replacements"`
	// ExpectedResults are the records, in order
	ExpectedResults []orderedObject `json:"expected_results"`
}

// Fixture is a folder of screenshots with its expected table
type Fixture struct {
	Dir        string
	Descriptor Descriptor
	Expected   *export.Table
}

// Load reads the descriptor of dir and resolves its placeholders
func Load(dir string, clock Clock) (*Fixture, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}
	return Parse(dir, data, clock)
}

// Parse decodes descriptor data for the fixture in dir
func Parse(dir string, data []byte, clock Clock) (*Fixture, error) {
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}

	replacements, err := resolveReplacements(desc.Replacements, clock.Now())
	if err != nil {
		return nil, err
	}

	expected := &export.Table{}
	for i, obj := range desc.ExpectedResults {
		if i == 0 {
			expected.Columns = obj.keys
		} else if !sameKeys(expected.Columns, obj.keys) {
			return nil, &export.SchemaMismatchError{Row: i, Want: expected.Columns, Got: obj.keys}
		}

		row := make([]string, len(expected.Columns))
		for c, name := range expected.Columns {
			value := obj.values[name]
			if replaced, ok := replacements[value]; ok {
				value = replaced
			}
			row[c] = value
		}
		expected.Rows = append(expected.Rows, row)
	}

	for _, name := range append(append([]string{}, desc.MustMatch...), desc.PartialMatch...) {
		if len(expected.Rows) > 0 {
			if _, ok := expected.Column(name); !ok {
				return nil, fmt.Errorf("descriptor column %q is not in the expected results", name)
			}
		}
	}

	return &Fixture{Dir: dir, Descriptor: desc, Expected: expected}, nil
}

func resolveReplacements(templates map[string]string, now time.Time) (map[string]string, error) {
	data := struct{ Today time.Time }{Today: now}

	resolved := make(map[string]string, len(templates))
	for placeholder, text := range templates {
		tmpl, err := template.New(placeholder).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing replacement %q: %w", placeholder, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("resolving replacement %q: %w", placeholder, err)
		}
		resolved[placeholder] = buf.String()
	}
	return resolved, nil
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[k] = struct{}{}
	}
	for _, k := range b {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}

// orderedObject is a flat JSON object of strings that remembers key order
type orderedObject struct {
	keys   []string
	values map[string]string
}

func (o *orderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected an object, got %s", strings.TrimSpace(string(data)))
	}

	o.values = map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var value *string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if _, dup := o.values[key]; !dup {
			o.keys = append(o.keys, key)
		}
		o.values[key] = ""
		if value != nil {
			o.values[key] = *value
		}
	}
	_, err = dec.Token()
	return err
}

package export

import (
	"fmt"
	"slices"
	"strings"
)

// Record is anything with an ordered set of named string fields
type Record interface {
	Names() []string
	Values() []string
}

// Table is a row oriented view of records. The columns of the first record
// define the schema.
type Table struct {
	Columns []string
	Rows    [][]string
}

// SchemaMismatchError reports a row whose fields differ from the table columns
type SchemaMismatchError struct {
	Row  int
	Want []string
	Got  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("row %d has fields [%s], expected [%s]",
		e.Row, strings.Join(e.Got, ", "), strings.Join(e.Want, ", "))
}

// FromRecords builds a table, rejecting records whose field names differ
// from the first one
func FromRecords[R Record](records []R) (*Table, error) {
	t := &Table{}
	for i, record := range records {
		names := record.Names()
		if i == 0 {
			t.Columns = slices.Clone(names)
		} else if !slices.Equal(names, t.Columns) {
			return nil, &SchemaMismatchError{Row: i, Want: t.Columns, Got: names}
		}
		t.Rows = append(t.Rows, slices.Clone(record.Values()))
	}
	return t, nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the values of a column
func (t *Table) Column(name string) ([]string, bool) {
	idx := slices.Index(t.Columns, name)
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// Select returns a table with only the given columns, in that order
func (t *Table) Select(columns ...string) (*Table, error) {
	indexes := make([]int, len(columns))
	for i, name := range columns {
		indexes[i] = slices.Index(t.Columns, name)
		if indexes[i] < 0 {
			return nil, fmt.Errorf("unknown column %q", name)
		}
	}

	selected := &Table{Columns: slices.Clone(columns), Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		selected.Rows[r] = make([]string, len(indexes))
		for i, idx := range indexes {
			selected.Rows[r][i] = row[idx]
		}
	}
	return selected, nil
}

// DropDuplicates returns a table without repeated rows. The first occurrence
// of each row is kept and the order of the remaining rows is preserved.
func (t *Table) DropDuplicates() *Table {
	seen := make(map[string]struct{}, len(t.Rows))
	deduped := &Table{Columns: slices.Clone(t.Columns)}
	for _, row := range t.Rows {
		key := fmt.Sprintf("%q", row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped.Rows = append(deduped.Rows, slices.Clone(row))
	}
	return deduped
}

// Append returns the rows of t followed by the rows of other, which must have
// the same columns
func (t *Table) Append(other *Table) (*Table, error) {
	if len(t.Columns) == 0 {
		return other.clone(), nil
	}
	if len(other.Columns) > 0 && !slices.Equal(t.Columns, other.Columns) {
		return nil, &SchemaMismatchError{Row: len(t.Rows), Want: t.Columns, Got: other.Columns}
	}
	merged := t.clone()
	for _, row := range other.Rows {
		merged.Rows = append(merged.Rows, slices.Clone(row))
	}
	return merged, nil
}

// Equal reports whether both tables have the same columns and rows
func (t *Table) Equal(other *Table) bool {
	if !slices.Equal(t.Columns, other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], other.Rows[i]) {
			return false
		}
	}
	return true
}

func (t *Table) clone() *Table {
	c := &Table{Columns: slices.Clone(t.Columns), Rows: make([][]string, 0, len(t.Rows))}
	for _, row := range t.Rows {
		c.Rows = append(c.Rows, slices.Clone(row))
	}
	return c
}

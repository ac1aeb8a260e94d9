package fixture

import (
	"fmt"
	"math"
	"strings"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
)

// Mismatch is a must-match cell that differs from the expected value
type Mismatch struct {
	Row      int
	Column   string
	Expected string
	Actual   string
}

// MismatchError fails a comparison
type MismatchError struct {
	ExpectedRows int
	ActualRows   int
	Mismatches   []Mismatch
}

func (e *MismatchError) Error() string {
	if e.ExpectedRows != e.ActualRows {
		return fmt.Sprintf("expected %d records, got %d", e.ExpectedRows, e.ActualRows)
	}
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, fmt.Sprintf("row %d %s: expected %q, got %q", m.Row+1, m.Column, m.Expected, m.Actual))
	}
	return fmt.Sprintf("%d mismatched values: %s", len(e.Mismatches), strings.Join(parts, "; "))
}

// Comparison is the outcome of a successful comparison
type Comparison struct {
	// PartialDiffPercent is the share of partial-match cells that differ, rounded to two decimals
	PartialDiffPercent float64
	Warnings           []string
}

// Compare checks actual against the expected results. Row counts and every
// must-match cell have to be equal; partial-match differences only warn.
func (f *Fixture) Compare(actual *export.Table) (Comparison, error) {
	var report Comparison
	expected := f.Expected

	if expected.Len() != actual.Len() {
		return report, &MismatchError{ExpectedRows: expected.Len(), ActualRows: actual.Len()}
	}

	mismatchErr := &MismatchError{ExpectedRows: expected.Len(), ActualRows: actual.Len()}
	for _, column := range f.Descriptor.MustMatch {
		want, _ := expected.Column(column)
		got, ok := actual.Column(column)
		if !ok {
			return report, fmt.Errorf("parsed records have no %q column", column)
		}
		for i := range want {
			if want[i] != got[i] {
				mismatchErr.Mismatches = append(mismatchErr.Mismatches, Mismatch{
					Row: i, Column: column, Expected: want[i], Actual: got[i],
				})
			}
		}
	}
	if len(mismatchErr.Mismatches) > 0 {
		return report, mismatchErr
	}

	cells, differing := 0, 0
	for _, column := range f.Descriptor.PartialMatch {
		want, _ := expected.Column(column)
		got, ok := actual.Column(column)
		if !ok {
			return report, fmt.Errorf("parsed records have no %q column", column)
		}
		for i := range want {
			cells++
			if want[i] != got[i] {
				differing++
			}
		}
	}

	if differing > 0 {
		report.PartialDiffPercent = math.Round(float64(differing)*100*100/float64(cells)) / 100
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"Partial match on columns [%s]. Values are %.2f%% different from expected.",
			strings.Join(f.Descriptor.PartialMatch, ", "), report.PartialDiffPercent))
	}
	return report, nil
}

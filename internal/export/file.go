package export

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// Write writes the table as a workbook when path ends in .xlsx, as delimited
// text otherwise
func Write(w io.Writer, path string, t *Table, opts Options) error {
	if isXLSX(path) {
		return WriteXLSX(w, t)
	}
	return WriteDelimited(w, t, opts)
}

// WriteFile writes the table to path, replacing it atomically
func WriteFile(path string, t *Table, opts Options) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, path, t, opts); err != nil {
		tmp.Close()
		return err
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("setting output file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving output file: %w", err)
	}
	return nil
}

// ReadFile reads a table written by WriteFile
func ReadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if isXLSX(path) {
		return ReadXLSX(f)
	}
	return ReadDelimited(f, opts)
}

// AppendFile adds the rows of t to an existing output with the same columns,
// creating it when missing. With dropDuplicates, rows repeated across the old
// and new content are written once.
func AppendFile(path string, t *Table, opts Options, dropDuplicates bool) error {
	existing, err := ReadFile(path, opts)
	if errors.Is(err, fs.ErrNotExist) {
		existing = &Table{}
	} else if err != nil {
		return err
	}

	merged, err := existing.Append(t)
	if err != nil {
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if dropDuplicates {
		merged = merged.DropDuplicates()
	}
	return WriteFile(path, merged, opts)
}

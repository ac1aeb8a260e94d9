package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// Config controls image discovery and the extraction pool
type Config struct {
	// Extensions discovered inside directories, without the leading dot
	Extensions []string
	// CaseInsensitive makes ".JPG" match "jpg"
	CaseInsensitive bool
	// Workers bounds concurrent OCR calls; zero picks a default from the CPU count
	Workers int
}

// DefaultConfig returns the discovery settings for phone screenshots
func DefaultConfig() Config {
	return Config{
		Extensions: []string{"jpg", "jpeg", "png"},
	}
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return min(32, runtime.NumCPU()+4)
}

func (c Config) matches(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return false
	}
	if c.CaseInsensitive {
		return slices.ContainsFunc(c.Extensions, func(e string) bool {
			return strings.EqualFold(e, ext)
		})
	}
	return slices.Contains(c.Extensions, ext)
}

// ImageSet is an ordered list of image paths. Duplicates are kept.
type ImageSet []string

// Resolve expands the given paths into an ImageSet. Files are taken as given,
// directories are walked recursively in lexical order keeping the configured
// extensions. The result is flat.
func Resolve(cfg Config, paths ...string) (ImageSet, error) {
	var images ImageSet
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: err}
		}

		if !info.IsDir() {
			images = append(images, path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && cfg.matches(p) {
				images = append(images, p)
			}
			return nil
		})
		if err != nil {
			return nil, &ExtractionError{Path: path, Err: fmt.Errorf("walking directory: %w", err)}
		}
	}
	return images, nil
}

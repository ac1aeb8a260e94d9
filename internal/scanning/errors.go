package scanning

import (
	"errors"
	"fmt"
)

// ErrEngineNotFound is returned when no OCR executable can be located
var ErrEngineNotFound = errors.New("ocr engine not found")

// ConfigurationError reports an OCR environment or option problem detected at startup.
// It is fatal and never retried.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ocr configuration %q: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configError(setting string, format string, args ...any) error {
	return &ConfigurationError{Setting: setting, Err: fmt.Errorf(format, args...)}
}

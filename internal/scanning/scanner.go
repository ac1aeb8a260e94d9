package scanning

import (
	"context"

	"github.com/otiai10/gosseract/v2"
)

// DefaultPageSegMode assumes a single column of text of variable sizes,
// which is the layout of a statement screenshot.
const DefaultPageSegMode = int(gosseract.PSM_SINGLE_COLUMN)

// Options holds the call-level OCR configuration shared by every worker
type Options struct {
	// Language is a tesseract language code, "+" separated for several (e.g. "por+eng")
	Language string
	// PageSegMode is the tesseract page segmentation mode
	PageSegMode int
	// ExtraConfig is applied after the page segmentation mode
	ExtraConfig string
}

// DefaultOptions returns the options used for statement screenshots
func DefaultOptions() Options {
	return Options{
		Language:    "por",
		PageSegMode: DefaultPageSegMode,
	}
}

// Scanner defines the interface for image to text recognition
type Scanner interface {
	// ScanText recognizes the text of an image/PDF
	ScanText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// transcriptionPrompt is the shared prompt used by all LLM providers
const transcriptionPrompt = `You are transcribing a screenshot of a banking or benefits card app. Read every line of text in the image and reproduce it exactly as it appears, from top to bottom.

Rules:
- Output one line of text per visual line in the image, in reading order
- Keep numbers, currency symbols, dates, times, punctuation and accents exactly as shown
- Do not translate, summarize, correct or reorder anything
- Do not add any text before or after the transcription
- Do not use markdown code blocks`

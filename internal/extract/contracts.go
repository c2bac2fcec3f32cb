package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int    // pages in the document, including skipped blank ones
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "image-ocr"
	Duration   time.Duration
	Warnings   []string
}

// ImageOCR is the optional fallback collaborator for documents with no text
// layer. Backends may be unavailable; callers must treat ErrOCRUnavailable as
// a normal outcome, not a crash.
type ImageOCR interface {
	ExtractImage(ctx context.Context, image []byte) (string, error)
}

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"menud/constants"
	"menud/internal/common"
)

// PDFExtractor reads the text layer of a PDF page by page.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

// Extract opens the document, collects per-page text in document order, skips
// pages whose stripped text is empty, and joins the rest with a blank line.
// An empty join means a scanned/image-only document and is reported as
// ErrNoExtractableText so the caller can try the OCR fallback.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		e.logger.Error("extract.pdf.missing", "path", path, "error", err)
		return TextExtractionResult{}, fmt.Errorf("%w: %s", common.ErrNotFound, path)
	}

	pages, total, warnings, err := e.readPages(ctx, path)
	if err != nil {
		return TextExtractionResult{}, err
	}

	text := joinPageTexts(pages)
	res := TextExtractionResult{
		Text:       text,
		Pages:      total,
		SourceType: constants.PDF,
		Method:     "pdf-text",
		Duration:   time.Since(start),
		Warnings:   warnings,
	}
	if text == "" {
		e.logger.Info("extract.pdf.no_text_layer", "path", path, "pages", total)
		return res, common.ErrNoExtractableText
	}

	e.logger.Info("extract.pdf.ok",
		"path", path,
		"pages", total,
		"text_len", len(text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// readPages isolates the third-party parser so a panic on a malformed file
// surfaces as ErrCorruptDocument instead of taking the process down.
func (e *PDFExtractor) readPages(ctx context.Context, path string) (pages []string, total int, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", common.ErrCorruptDocument, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		e.logger.Error("extract.pdf.open_failed", "path", path, "error", err)
		return nil, 0, nil, fmt.Errorf("%w: %v", common.ErrCorruptDocument, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.pdf.close_failed", "path", path, "error", cerr)
		}
	}()

	total = reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, total, warnings, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages, total, warnings, nil
}

// joinPageTexts joins non-empty page texts with a blank-line separator.
func joinPageTexts(pages []string) string {
	return strings.TrimSpace(strings.Join(pages, "\n\n"))
}

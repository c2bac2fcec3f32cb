// Package pipeline drives an uploaded menu document through extraction,
// structuring, normalization, and persistence as one synchronous run per
// request.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"menud/constants"
	"menud/internal/common"
	"menud/internal/extract"
	"menud/internal/llm"
	"menud/internal/normalize"
	"menud/internal/repository"
)

// Upload describes one incoming document. Content is consumed exactly once.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Result reports a completed run.
type Result struct {
	MenuID           int64
	Stage            constants.UploadStage
	ExtractionMethod string
	Pages            int
	Warnings         []string
	Duration         time.Duration
}

type Processor struct {
	extractor  extract.TextExtractor
	ocr        extract.ImageOCR
	structurer llm.MenuStructurer
	repo       repository.MenuRepository
	scratchDir string
	logger     *slog.Logger
}

func NewProcessor(
	extractor extract.TextExtractor,
	ocr extract.ImageOCR,
	structurer llm.MenuStructurer,
	repo repository.MenuRepository,
	scratchDir string,
	logger *slog.Logger,
) *Processor {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		extractor:  extractor,
		ocr:        ocr,
		structurer: structurer,
		repo:       repo,
		scratchDir: scratchDir,
		logger:     logger,
	}
}

// Process runs the full pipeline for one upload. The upload is spooled to a
// private scratch file that is removed on every path, success or failure, so
// concurrent requests never share filesystem state.
func (p *Processor) Process(ctx context.Context, up Upload) (Result, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()
	res := Result{Stage: constants.StageReceived}

	log := p.logger.With("req_id", rid, "filename", up.Filename)
	log.Info("pipeline.received")

	ext := constants.NormalizeExt(filepath.Ext(up.Filename))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		res.Stage = constants.StageFailed
		return res, common.NewAppError("UNSUPPORTED_TYPE",
			fmt.Sprintf("unsupported file extension %q", ext), common.ErrInvalidInput)
	}

	scratch, err := p.spool(up.Content, ext)
	if err != nil {
		res.Stage = constants.StageFailed
		return res, common.NewAppError("SPOOL_FAILED", "could not store upload", err)
	}
	defer func() {
		if rmErr := os.Remove(scratch); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn("pipeline.scratch_remove_failed", "path", scratch, "error", rmErr)
		}
	}()

	text, method, pages, warnings, err := p.extractText(ctx, log, scratch, format)
	if err != nil {
		res.Stage = constants.StageFailed
		return res, err
	}
	res.Stage = constants.StageExtracted
	res.ExtractionMethod = method
	res.Pages = pages
	res.Warnings = warnings
	log.Info("pipeline.stage", "stage", res.Stage, "method", method, "text_len", len(text))

	structured, err := p.structurer.Structure(ctx, text)
	if err != nil {
		res.Stage = constants.StageFailed
		return res, err
	}
	res.Stage = constants.StageStructured
	log.Info("pipeline.stage", "stage", res.Stage, "json_bytes", len(structured))

	menu, err := p.validateAndNormalize(structured)
	if err != nil {
		res.Stage = constants.StageFailed
		return res, err
	}
	res.Stage = constants.StageNormalized
	log.Info("pipeline.stage", "stage", res.Stage, "sections", len(menu.MenuSections))

	menuID, err := p.repo.Persist(ctx, menu)
	if err != nil {
		res.Stage = constants.StageFailed
		return res, err
	}
	res.Stage = constants.StagePersisted
	res.MenuID = menuID

	res.Stage = constants.StageDone
	res.Duration = time.Since(start)
	log.Info("pipeline.done", "menu_id", menuID, "elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}

// spool copies the upload into a unique scratch file and returns its path.
func (p *Processor) spool(r io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp(p.scratchDir, "menud-upload-*."+ext)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return path, nil
}

// extractText picks the extraction path by format. A PDF with no usable text
// layer falls back to image OCR over the raw bytes; if the OCR backend is not
// configured that surfaces as the extraction failure.
func (p *Processor) extractText(ctx context.Context, log *slog.Logger, path, format string) (text, method string, pages int, warnings []string, err error) {
	if format == constants.PDF {
		result, exErr := p.extractor.Extract(ctx, path)
		if exErr == nil {
			return result.Text, result.Method, result.Pages, result.Warnings, nil
		}
		if !errors.Is(exErr, common.ErrNoExtractableText) && !errors.Is(exErr, common.ErrCorruptDocument) {
			return "", "", 0, nil, exErr
		}
		log.Warn("pipeline.pdf_fallback", "error", exErr)
		warnings = append(warnings, "no text layer, fell back to OCR")
	}

	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", "", 0, nil, common.NewAppError("READ_FAILED", "could not read upload", readErr)
	}
	ocrText, ocrErr := p.ocr.ExtractImage(ctx, raw)
	if ocrErr != nil {
		return "", "", 0, nil, ocrErr
	}
	return ocrText, "image-ocr", 1, warnings, nil
}

// validateAndNormalize checks the structured JSON against the menu schema,
// strips diacritics from every string leaf, and decodes the result. Any shape
// problem is the model's fault, not the caller's, and maps to ErrMalformedData.
func (p *Processor) validateAndNormalize(structured []byte) (*llm.StructuredMenu, error) {
	if err := llm.ValidateMenu(structured); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedData, err)
	}

	var doc any
	if err := json.Unmarshal(structured, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedData, err)
	}
	normalized, err := json.Marshal(normalize.Deep(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedData, err)
	}

	var menu llm.StructuredMenu
	if err := json.Unmarshal(normalized, &menu); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedData, err)
	}
	return &menu, nil
}

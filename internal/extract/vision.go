package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"

	"menud/internal/common"
)

// VisionOCR implements ImageOCR on Google Cloud Vision document text
// detection, the backend the upload pipeline falls back to for scanned
// menus.
type VisionOCR struct {
	client  *vision.ImageAnnotatorClient
	timeout time.Duration
	logger  *slog.Logger
}

type VisionConfig struct {
	CredentialsFile string // empty -> application default credentials
	Timeout         time.Duration
}

func NewVisionOCR(ctx context.Context, cfg VisionConfig, logger *slog.Logger) (*VisionOCR, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	var (
		client *vision.ImageAnnotatorClient
		err    error
	)
	if cfg.CredentialsFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &VisionOCR{client: client, timeout: cfg.Timeout, logger: logger}, nil
}

func (v *VisionOCR) Close() error {
	return v.client.Close()
}

func (v *VisionOCR) ExtractImage(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", common.ErrNoExtractableText
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	img, err := vision.NewImageFromReader(bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("vision image: %w", err)
	}

	start := time.Now()
	doc, err := v.client.DetectDocumentText(ctx, img, nil)
	if err != nil {
		v.logger.Error("extract.ocr.vision_error", "error", err)
		return "", fmt.Errorf("vision detect: %w", err)
	}
	if doc == nil || strings.TrimSpace(doc.Text) == "" {
		v.logger.Info("extract.ocr.no_text", "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.ErrNoExtractableText
	}

	text := strings.TrimSpace(doc.Text)
	v.logger.Info("extract.ocr.ok", "text_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

// UnavailableOCR is the ImageOCR used when no backend is configured. It keeps
// the fallback pluggable without ever succeeding.
type UnavailableOCR struct{}

func (UnavailableOCR) ExtractImage(context.Context, []byte) (string, error) {
	return "", common.ErrOCRUnavailable
}

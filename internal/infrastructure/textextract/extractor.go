package textextract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
)

type Config struct {
	// Tesseract is the OCR binary invoked for image documents.
	Tesseract string
	// Lang is the tesseract language pack; tax documents here are a mix of
	// English and French.
	Lang string
}

func (c Config) withDefaults() Config {
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "eng+fra"
	}
	return c
}

// Extractor pulls plain text out of stored documents: embedded page text for
// PDFs, OCR for images. Errors are returned as-is; the usecases decide to
// degrade them to empty text.
type Extractor struct {
	storage ports.ObjectStorage
	runner  Runner
	cfg     Config
}

func NewExtractor(storage ports.ObjectStorage, cfg Config) *Extractor {
	return &Extractor{
		storage: storage,
		runner:  execRunner{},
		cfg:     cfg.withDefaults(),
	}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("open stored document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read stored document: %w", err)
	}

	switch doc.MimeType {
	case "application/pdf":
		return pdfText(raw)
	case "image/png", "image/jpeg":
		return e.imageOCR(ctx, raw)
	default:
		return "", fmt.Errorf("no text extraction for mime type %q", doc.MimeType)
	}
}

func pdfText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func (e *Extractor) imageOCR(ctx context.Context, raw []byte) (string, error) {
	// tesseract wants a file on disk; stage the bytes in a temp file.
	tmp, err := os.CreateTemp("", "intake-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create ocr temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write ocr temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close ocr temp file: %w", err)
	}

	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, tmp.Name(), "stdout", "-l", e.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

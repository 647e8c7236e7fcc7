package textextract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

type storageFake struct {
	objects map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = raw
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type runnerFake struct {
	stdout []byte
	err    error

	name string
	args []string
}

func (f *runnerFake) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	return f.stdout, nil, f.err
}

func newExtractorWithRunner(storage *storageFake, runner Runner, cfg Config) *Extractor {
	e := NewExtractor(storage, cfg)
	e.runner = runner
	return e
}

func TestExtractImageRunsTesseract(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"intake-1/abc": []byte("png bytes"),
	}}
	runner := &runnerFake{stdout: []byte("Permis de conduire")}
	extractor := newExtractorWithRunner(storage, runner, Config{})

	doc := &domain.Document{ID: "doc-1", StorageKey: "intake-1/abc", MimeType: "image/png"}
	text, err := extractor.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Permis de conduire" {
		t.Fatalf("unexpected text %q", text)
	}
	if runner.name != "tesseract" {
		t.Fatalf("expected tesseract invocation, got %q", runner.name)
	}

	// Default language pack covers English and French documents.
	lang := runner.args[len(runner.args)-1]
	if lang != "eng+fra" {
		t.Fatalf("expected eng+fra language, got %q", lang)
	}
}

func TestExtractImageOCRFailure(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"intake-1/abc": []byte("jpeg bytes"),
	}}
	runner := &runnerFake{err: errors.New("binary not found")}
	extractor := newExtractorWithRunner(storage, runner, Config{})

	doc := &domain.Document{ID: "doc-1", StorageKey: "intake-1/abc", MimeType: "image/jpeg"}
	if _, err := extractor.Extract(context.Background(), doc); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExtractUnsupportedMime(t *testing.T) {
	storage := &storageFake{objects: map[string][]byte{
		"intake-1/abc": []byte("bytes"),
	}}
	extractor := newExtractorWithRunner(storage, &runnerFake{}, Config{})

	doc := &domain.Document{ID: "doc-1", StorageKey: "intake-1/abc", MimeType: "text/plain"}
	if _, err := extractor.Extract(context.Background(), doc); err == nil {
		t.Fatalf("expected error for unsupported mime type")
	}
}

func TestExtractMissingObject(t *testing.T) {
	extractor := newExtractorWithRunner(&storageFake{objects: map[string][]byte{}}, &runnerFake{}, Config{})

	doc := &domain.Document{ID: "doc-1", StorageKey: "intake-1/missing", MimeType: "application/pdf"}
	if _, err := extractor.Extract(context.Background(), doc); err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Tesseract != "tesseract" || cfg.Lang != "eng+fra" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	custom := Config{Tesseract: "/opt/tesseract", Lang: "fra"}.withDefaults()
	if custom.Tesseract != "/opt/tesseract" || custom.Lang != "fra" {
		t.Fatalf("expected overrides preserved, got %+v", custom)
	}
}

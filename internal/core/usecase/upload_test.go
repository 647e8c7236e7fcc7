package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

func seedIntake(t *testing.T, repo *intakeRepoMem) *domain.Intake {
	t.Helper()
	intake := &domain.Intake{
		ID:         "intake-1",
		ClientID:   "client-1",
		FiscalYear: 2025,
		Status:     domain.IntakeOpen,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), intake, nil); err != nil {
		t.Fatalf("seed intake: %v", err)
	}
	return intake
}

func TestUploadSuccess(t *testing.T) {
	intakes := newIntakeRepoMem(newItemRepoMem())
	docs := newDocRepoMem()
	storage := newStorageMem()
	queue := &queueMem{}
	uc := NewUploadUseCase(intakes, docs, storage, queue)
	intake := seedIntake(t, intakes)

	doc, err := uc.Upload(context.Background(), intake.ID, "t4.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.DocKind != domain.KindUnknown {
		t.Fatalf("expected unclassified document, got %s", doc.DocKind)
	}
	if doc.SizeBytes != int64(len("pdf bytes")) {
		t.Fatalf("unexpected size %d", doc.SizeBytes)
	}
	if !strings.HasPrefix(doc.StorageKey, intake.ID+"/") {
		t.Fatalf("expected key under intake prefix, got %s", doc.StorageKey)
	}
	if !strings.HasSuffix(doc.StorageKey, doc.SHA256) {
		t.Fatalf("expected content-addressed key, got %s", doc.StorageKey)
	}
	if string(storage.objects[doc.StorageKey]) != "pdf bytes" {
		t.Fatalf("stored bytes mismatch")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected upload event for %s, got %v", doc.ID, queue.published)
	}
}

func TestUploadUnknownIntake(t *testing.T) {
	uc := NewUploadUseCase(newIntakeRepoMem(newItemRepoMem()), newDocRepoMem(), newStorageMem(), &queueMem{})

	_, err := uc.Upload(context.Background(), "missing", "t4.pdf", "application/pdf", strings.NewReader("x"))
	if !domain.IsKind(err, domain.ErrIntakeNotFound) {
		t.Fatalf("expected intake not found, got %v", err)
	}
}

func TestUploadRejectsUnsupportedMime(t *testing.T) {
	intakes := newIntakeRepoMem(newItemRepoMem())
	uc := NewUploadUseCase(intakes, newDocRepoMem(), newStorageMem(), &queueMem{})
	intake := seedIntake(t, intakes)

	for _, mime := range []string{"text/plain", "application/zip", ""} {
		_, err := uc.Upload(context.Background(), intake.ID, "notes.txt", mime, strings.NewReader("x"))
		if !domain.IsKind(err, domain.ErrUnsupportedMedia) {
			t.Fatalf("mime %q: expected unsupported media, got %v", mime, err)
		}
	}
}

func TestUploadDuplicateWithinIntake(t *testing.T) {
	intakes := newIntakeRepoMem(newItemRepoMem())
	docs := newDocRepoMem()
	uc := NewUploadUseCase(intakes, docs, newStorageMem(), &queueMem{})
	intake := seedIntake(t, intakes)

	if _, err := uc.Upload(context.Background(), intake.ID, "a.pdf", "application/pdf", strings.NewReader("same bytes")); err != nil {
		t.Fatalf("first Upload() error = %v", err)
	}

	// Same bytes under a different filename are still a duplicate.
	_, err := uc.Upload(context.Background(), intake.ID, "b.pdf", "application/pdf", strings.NewReader("same bytes"))
	if !domain.IsKind(err, domain.ErrDuplicateUpload) {
		t.Fatalf("expected duplicate upload, got %v", err)
	}
}

func TestUploadSameBytesDifferentIntakes(t *testing.T) {
	intakes := newIntakeRepoMem(newItemRepoMem())
	docs := newDocRepoMem()
	uc := NewUploadUseCase(intakes, docs, newStorageMem(), &queueMem{})

	first := seedIntake(t, intakes)
	second := &domain.Intake{ID: "intake-2", ClientID: "client-2", FiscalYear: 2025, Status: domain.IntakeOpen, CreatedAt: time.Now().UTC()}
	if err := intakes.Create(context.Background(), second, nil); err != nil {
		t.Fatalf("seed intake: %v", err)
	}

	if _, err := uc.Upload(context.Background(), first.ID, "a.pdf", "application/pdf", strings.NewReader("same bytes")); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := uc.Upload(context.Background(), second.ID, "a.pdf", "application/pdf", strings.NewReader("same bytes")); err != nil {
		t.Fatalf("dedup must be per intake, got %v", err)
	}
}

func TestUploadSurvivesQueueOutage(t *testing.T) {
	intakes := newIntakeRepoMem(newItemRepoMem())
	docs := newDocRepoMem()
	uc := NewUploadUseCase(intakes, docs, newStorageMem(), &queueMem{err: errors.New("broker down")})
	intake := seedIntake(t, intakes)

	doc, err := uc.Upload(context.Background(), intake.ID, "t4.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if _, err := docs.GetByID(context.Background(), doc.ID); err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
}

func TestUploadStorageFailureAborts(t *testing.T) {
	intakes := newIntakeRepoMem(newItemRepoMem())
	docs := newDocRepoMem()
	storage := newStorageMem()
	storage.saveErr = errors.New("disk full")
	uc := NewUploadUseCase(intakes, docs, storage, &queueMem{})
	intake := seedIntake(t, intakes)

	_, err := uc.Upload(context.Background(), intake.ID, "t4.pdf", "application/pdf", strings.NewReader("pdf bytes"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(docs.order) != 0 {
		t.Fatalf("document must not be recorded when storage fails")
	}
}

package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

type UploadUseCase struct {
	intakes ports.IntakeRepository
	docs    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewUploadUseCase(
	intakes ports.IntakeRepository,
	docs ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *UploadUseCase {
	return &UploadUseCase{
		intakes: intakes,
		docs:    docs,
		storage: storage,
		queue:   queue,
	}
}

// Upload validates and stores one document for an intake. Bytes are hashed
// for per-intake dedup and stored under a content-addressed key before the
// record is written. The document always starts out unclassified.
func (uc *UploadUseCase) Upload(ctx context.Context, intakeID, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	intake, err := uc.intakes.GetByID(ctx, intakeID)
	if err != nil {
		return nil, err
	}

	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedMedia, "upload document", fmt.Errorf("mime type %q, only PDF, PNG and JPEG are accepted", mimeType))
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}

	sum := sha256.Sum256(raw)
	hashHex := hex.EncodeToString(sum[:])

	duplicate, err := uc.docs.ExistsByHash(ctx, intake.ID, hashHex)
	if err != nil {
		return nil, fmt.Errorf("check duplicate hash: %w", err)
	}
	if duplicate {
		return nil, domain.WrapError(domain.ErrDuplicateUpload, "upload document", fmt.Errorf("hash %s already uploaded for intake %s", hashHex, intake.ID))
	}

	storageKey := intake.ID + "/" + hashHex
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:         uuid.NewString(),
		IntakeID:   intake.ID,
		Filename:   filename,
		SHA256:     hashHex,
		MimeType:   mimeType,
		SizeBytes:  int64(len(raw)),
		StorageKey: storageKey,
		DocKind:    domain.KindUnknown,
		UploadedAt: time.Now().UTC(),
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	// The event only feeds the optional auto-processing worker; publish
	// failures are logged, not returned.
	if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
		slog.Warn("publish_upload_event_failed", "document_id", doc.ID, "error", err)
	}

	return doc, nil
}

package ports

import (
	"context"
	"io"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

// ClientRepository persists client records.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
}

// IntakeRepository persists intakes and their derived status.
type IntakeRepository interface {
	// Create persists an intake together with its checklist items in one
	// write. Either both land or neither does; a partial checklist must
	// never become visible.
	Create(ctx context.Context, intake *domain.Intake, items []domain.ChecklistItem) error
	GetByID(ctx context.Context, id string) (*domain.Intake, error)
	UpdateStatus(ctx context.Context, id string, status domain.IntakeStatus) error
}

// ChecklistItemRepository reads and advances the checklist slots of an
// intake. Slots are only ever created alongside their intake.
type ChecklistItemRepository interface {
	ListByIntake(ctx context.Context, intakeID string) ([]domain.ChecklistItem, error)
	// AdvanceItem compare-and-swaps one item's status. It reports false when
	// the item no longer holds `from`, which keeps a racing request from
	// double-advancing the same slot.
	AdvanceItem(ctx context.Context, itemID string, from, to domain.ChecklistItemStatus) (bool, error)
}

// DocumentRepository persists uploaded documents, their classification and
// extracted fields.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	// ListByIntake returns an intake's documents in upload order.
	ListByIntake(ctx context.Context, intakeID string) ([]domain.Document, error)
	ExistsByHash(ctx context.Context, intakeID, sha256Hex string) (bool, error)
	UpdateKind(ctx context.Context, id string, kind domain.DocumentKind) error
	SaveFields(ctx context.Context, id string, fields domain.Fields) error
}

// ObjectStorage stores source document bytes under a content-addressed key.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document upload events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor pulls best-effort plain text out of a stored document.
// Failures are ordinary errors; callers degrade them to empty text instead
// of failing the request.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// FieldExtractor infers structured fields from document text. The schema is
// selected by document kind. A nil map without error means the model
// produced nothing usable.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, kind domain.DocumentKind, text string) (domain.Fields, error)
}

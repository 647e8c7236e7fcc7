package ports

import (
	"context"
	"io"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

// ClientService registers and lists clients.
type ClientService interface {
	Create(ctx context.Context, name, email string, tier domain.ComplexityTier) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
}

// IntakeService opens intakes with their checklist snapshot and reads
// checklist state.
type IntakeService interface {
	Create(ctx context.Context, clientID string, fiscalYear int) (*domain.Intake, []domain.ChecklistItem, error)
	Checklist(ctx context.Context, intakeID string) (*domain.Intake, []domain.ChecklistItem, error)
}

// DocumentIngestor is the inbound contract for document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, intakeID, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentLifecycle drives documents through classification and extraction,
// advancing the owning intake's checklist as a side effect.
type DocumentLifecycle interface {
	ClassifyDocument(ctx context.Context, documentID string) (*domain.Document, domain.IntakeStatus, error)
	ClassifyIntake(ctx context.Context, intakeID string) ([]domain.Document, domain.IntakeStatus, error)
	ExtractDocument(ctx context.Context, documentID string) (*domain.Document, domain.IntakeStatus, error)
	ExtractIntake(ctx context.Context, intakeID string) ([]domain.Document, domain.IntakeStatus, error)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfortin/tax-intake/internal/core/checklist"
	"github.com/mfortin/tax-intake/internal/core/classify"
	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
)

// LifecycleUseCase drives a document through classification and field
// extraction, advancing the owning intake's checklist along the way.
//
// Classification and extraction are best-effort enrichments: OCR or model
// failures degrade the result (kind unknown, absent fields) but never fail
// the request. Only not-found and precondition violations surface as errors.
type LifecycleUseCase struct {
	intakes    ports.IntakeRepository
	docs       ports.DocumentRepository
	items      ports.ChecklistItemRepository
	classifier *classify.Classifier
	text       ports.TextExtractor
	fields     ports.FieldExtractor
}

func NewLifecycleUseCase(
	intakes ports.IntakeRepository,
	docs ports.DocumentRepository,
	items ports.ChecklistItemRepository,
	classifier *classify.Classifier,
	text ports.TextExtractor,
	fields ports.FieldExtractor,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		intakes:    intakes,
		docs:       docs,
		items:      items,
		classifier: classifier,
		text:       text,
		fields:     fields,
	}
}

func (uc *LifecycleUseCase) ClassifyDocument(ctx context.Context, documentID string) (*domain.Document, domain.IntakeStatus, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}

	if err := uc.classifyOne(ctx, doc); err != nil {
		return nil, "", err
	}

	status, err := uc.recomputeStatus(ctx, doc.IntakeID)
	if err != nil {
		return nil, "", err
	}
	return doc, status, nil
}

func (uc *LifecycleUseCase) ClassifyIntake(ctx context.Context, intakeID string) ([]domain.Document, domain.IntakeStatus, error) {
	intake, err := uc.intakes.GetByID(ctx, intakeID)
	if err != nil {
		return nil, "", err
	}

	docs, err := uc.docs.ListByIntake(ctx, intake.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list intake documents: %w", err)
	}

	classified := make([]domain.Document, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.DocKind != domain.KindUnknown {
			continue
		}
		if err := uc.classifyOne(ctx, doc); err != nil {
			return nil, "", err
		}
		classified = append(classified, *doc)
	}

	status, err := uc.recomputeStatus(ctx, intake.ID)
	if err != nil {
		return nil, "", err
	}
	return classified, status, nil
}

func (uc *LifecycleUseCase) ExtractDocument(ctx context.Context, documentID string) (*domain.Document, domain.IntakeStatus, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, "", err
	}

	if err := uc.extractOne(ctx, doc); err != nil {
		return nil, "", err
	}

	status, err := uc.recomputeStatus(ctx, doc.IntakeID)
	if err != nil {
		return nil, "", err
	}
	return doc, status, nil
}

func (uc *LifecycleUseCase) ExtractIntake(ctx context.Context, intakeID string) ([]domain.Document, domain.IntakeStatus, error) {
	intake, err := uc.intakes.GetByID(ctx, intakeID)
	if err != nil {
		return nil, "", err
	}

	docs, err := uc.docs.ListByIntake(ctx, intake.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list intake documents: %w", err)
	}

	extracted := make([]domain.Document, 0, len(docs))
	for i := range docs {
		doc := &docs[i]
		if doc.DocKind == domain.KindUnknown || doc.Extracted != nil {
			continue
		}
		if err := uc.extractOne(ctx, doc); err != nil {
			return nil, "", err
		}
		extracted = append(extracted, *doc)
	}

	status, err := uc.recomputeStatus(ctx, intake.ID)
	if err != nil {
		return nil, "", err
	}
	return extracted, status, nil
}

// classifyOne resolves and persists the document's kind, then receives the
// matching checklist slot. A kind of unknown is a valid outcome, not an
// error.
func (uc *LifecycleUseCase) classifyOne(ctx context.Context, doc *domain.Document) error {
	kind := uc.classifier.Document(ctx, doc)

	if err := uc.docs.UpdateKind(ctx, doc.ID, kind); err != nil {
		return fmt.Errorf("persist document kind: %w", err)
	}
	doc.DocKind = kind

	if err := uc.markReceived(ctx, doc.IntakeID, kind); err != nil {
		return err
	}
	return nil
}

// extractOne runs field extraction for an already classified document and
// persists whatever came back, nil included. Extraction failures degrade to
// absent fields so the intake keeps moving.
func (uc *LifecycleUseCase) extractOne(ctx context.Context, doc *domain.Document) error {
	if doc.DocKind == domain.KindUnknown {
		return domain.WrapError(domain.ErrNotClassified, "extract document", fmt.Errorf("document %s has no known kind", doc.ID))
	}

	text, err := uc.text.Extract(ctx, doc)
	if err != nil {
		slog.Warn("text_extraction_failed", "document_id", doc.ID, "filename", doc.Filename, "error", err)
		text = ""
	}

	fields, err := uc.fields.ExtractFields(ctx, doc.DocKind, text)
	if err != nil {
		slog.Warn("field_extraction_failed", "document_id", doc.ID, "doc_kind", doc.DocKind, "error", err)
		fields = nil
	}

	if err := uc.docs.SaveFields(ctx, doc.ID, fields); err != nil {
		return fmt.Errorf("persist extracted fields: %w", err)
	}
	doc.Extracted = fields

	if err := uc.markExtracted(ctx, doc.IntakeID, doc.DocKind, fields); err != nil {
		return err
	}
	return nil
}

// markReceived advances the oldest missing checklist slot of the classified
// kind. Unknown classifications and surplus documents change nothing.
func (uc *LifecycleUseCase) markReceived(ctx context.Context, intakeID string, kind domain.DocumentKind) error {
	if kind == domain.KindUnknown {
		return nil
	}
	return uc.advanceSlot(ctx, intakeID, kind, domain.ItemMissing, domain.ItemReceived)
}

// markExtracted advances the oldest received slot of the kind, but only when
// extraction actually produced fields.
func (uc *LifecycleUseCase) markExtracted(ctx context.Context, intakeID string, kind domain.DocumentKind, fields domain.Fields) error {
	if fields == nil {
		return nil
	}
	return uc.advanceSlot(ctx, intakeID, kind, domain.ItemReceived, domain.ItemExtracted)
}

func (uc *LifecycleUseCase) advanceSlot(ctx context.Context, intakeID string, kind domain.DocumentKind, from, to domain.ChecklistItemStatus) error {
	items, err := uc.items.ListByIntake(ctx, intakeID)
	if err != nil {
		return fmt.Errorf("list checklist items: %w", err)
	}

	idx, ok := checklist.NextSlot(items, kind, from)
	if !ok {
		return nil
	}

	// A lost race here just means another request advanced the slot first;
	// the document stays recorded either way.
	if _, err := uc.items.AdvanceItem(ctx, items[idx].ID, from, to); err != nil {
		return fmt.Errorf("advance checklist item: %w", err)
	}
	return nil
}

func (uc *LifecycleUseCase) recomputeStatus(ctx context.Context, intakeID string) (domain.IntakeStatus, error) {
	items, err := uc.items.ListByIntake(ctx, intakeID)
	if err != nil {
		return "", fmt.Errorf("list checklist items: %w", err)
	}

	status := checklist.Aggregate(items)
	if err := uc.intakes.UpdateStatus(ctx, intakeID, status); err != nil {
		return "", fmt.Errorf("update intake status: %w", err)
	}
	return status, nil
}

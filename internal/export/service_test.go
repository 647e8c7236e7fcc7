package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

type intakeRepoFake struct {
	intake *domain.Intake
	err    error
}

func (f *intakeRepoFake) Create(context.Context, *domain.Intake, []domain.ChecklistItem) error {
	return nil
}
func (f *intakeRepoFake) GetByID(context.Context, string) (*domain.Intake, error) {
	return f.intake, f.err
}
func (f *intakeRepoFake) UpdateStatus(context.Context, string, domain.IntakeStatus) error {
	return nil
}

type itemRepoFake struct {
	items []domain.ChecklistItem
}

func (f *itemRepoFake) ListByIntake(context.Context, string) ([]domain.ChecklistItem, error) {
	return f.items, nil
}
func (f *itemRepoFake) AdvanceItem(context.Context, string, domain.ChecklistItemStatus, domain.ChecklistItemStatus) (bool, error) {
	return false, nil
}

type docRepoFake struct {
	docs []domain.Document
}

func (f *docRepoFake) Create(context.Context, *domain.Document) error { return nil }
func (f *docRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, nil
}
func (f *docRepoFake) ListByIntake(context.Context, string) ([]domain.Document, error) {
	return f.docs, nil
}
func (f *docRepoFake) ExistsByHash(context.Context, string, string) (bool, error) {
	return false, nil
}
func (f *docRepoFake) UpdateKind(context.Context, string, domain.DocumentKind) error { return nil }
func (f *docRepoFake) SaveFields(context.Context, string, domain.Fields) error       { return nil }

func TestIntakeSummaryXLSX(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	intakes := &intakeRepoFake{intake: &domain.Intake{ID: "intake-1", Status: domain.IntakeReceived, CreatedAt: now}}
	items := &itemRepoFake{items: []domain.ChecklistItem{
		{ID: "item-1", IntakeID: "intake-1", DocKind: domain.KindT4, Status: domain.ItemExtracted, CreatedAt: now},
		{ID: "item-2", IntakeID: "intake-1", DocKind: domain.KindID, Status: domain.ItemReceived, CreatedAt: now},
	}}
	docs := &docRepoFake{docs: []domain.Document{
		{
			ID: "doc-1", IntakeID: "intake-1", Filename: "t4.pdf", MimeType: "application/pdf",
			SizeBytes: 2048, DocKind: domain.KindT4, UploadedAt: now,
			Extracted: domain.Fields{"employer_name": "Acme Inc", "box_14_employment_income": 61250.0},
		},
		{
			ID: "doc-2", IntakeID: "intake-1", Filename: "id.png", MimeType: "image/png",
			SizeBytes: 512, DocKind: domain.KindID, UploadedAt: now,
		},
	}}

	svc := NewService(intakes, items, docs, nil)
	raw, err := svc.IntakeSummaryXLSX(context.Background(), "intake-1")
	if err != nil {
		t.Fatalf("IntakeSummaryXLSX() error = %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer workbook.Close()

	kind, err := workbook.GetCellValue("Checklist", "A2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if kind != "T4" {
		t.Fatalf("expected T4 in checklist, got %q", kind)
	}

	fields, err := workbook.GetCellValue("Documents", "F2")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	// Keys are sorted, so the rendering is deterministic.
	if fields != "box_14_employment_income=61250; employer_name=Acme Inc" {
		t.Fatalf("unexpected fields cell %q", fields)
	}
}

func TestIntakeSummaryXLSXUnknownIntake(t *testing.T) {
	intakes := &intakeRepoFake{err: domain.WrapError(domain.ErrIntakeNotFound, "get intake", errors.New("intake missing"))}
	svc := NewService(intakes, &itemRepoFake{}, &docRepoFake{}, nil)

	if _, err := svc.IntakeSummaryXLSX(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatFieldsStable(t *testing.T) {
	got := formatFields(map[string]any{"b": 2, "a": "x", "c": nil})
	if got != "a=x; b=2; c=" {
		t.Fatalf("formatFields() = %q", got)
	}
	if formatFields(nil) != "" {
		t.Fatalf("expected empty string for nil fields")
	}
}

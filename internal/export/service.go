package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mfortin/tax-intake/internal/core/ports"
)

// Service produces XLSX workbook bytes summarizing a single intake:
// one sheet with the checklist, one with the uploaded documents and
// their extracted fields.
type Service struct {
	intakes ports.IntakeRepository
	items   ports.ChecklistItemRepository
	docs    ports.DocumentRepository
	logger  *slog.Logger
}

func NewService(
	intakes ports.IntakeRepository,
	items ports.ChecklistItemRepository,
	docs ports.DocumentRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{intakes: intakes, items: items, docs: docs, logger: logger}
}

func (s *Service) IntakeSummaryXLSX(ctx context.Context, intakeID string) ([]byte, error) {
	start := time.Now()

	intake, err := s.intakes.GetByID(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByIntake(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByIntake(ctx, intakeID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	const checklistSheet = "Checklist"
	const documentsSheet = "Documents"

	// excelize starts with a default "Sheet1"; rename it instead of
	// leaving an empty sheet in the workbook.
	if err := f.SetSheetName("Sheet1", checklistSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(documentsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	writeCell := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	checklistHeaders := []string{"Document Kind", "Status", "Created"}
	for i, h := range checklistHeaders {
		writeCell(checklistSheet, i+1, 1, h)
	}
	for i, item := range items {
		row := i + 2
		writeCell(checklistSheet, 1, row, string(item.DocKind))
		writeCell(checklistSheet, 2, row, string(item.Status))
		writeCell(checklistSheet, 3, row, item.CreatedAt.Format("2006-01-02"))
	}

	documentHeaders := []string{"Filename", "Kind", "MIME Type", "Size (bytes)", "Uploaded", "Extracted Fields"}
	for i, h := range documentHeaders {
		writeCell(documentsSheet, i+1, 1, h)
	}
	for i, doc := range docs {
		row := i + 2
		writeCell(documentsSheet, 1, row, doc.Filename)
		writeCell(documentsSheet, 2, row, string(doc.DocKind))
		writeCell(documentsSheet, 3, row, doc.MimeType)
		writeCell(documentsSheet, 4, row, doc.SizeBytes)
		writeCell(documentsSheet, 5, row, doc.UploadedAt.Format("2006-01-02 15:04"))
		writeCell(documentsSheet, 6, row, formatFields(doc.Extracted))
	}

	_ = f.SetColWidth(checklistSheet, "A", "A", 18)
	_ = f.SetColWidth(checklistSheet, "B", "B", 14)
	_ = f.SetColWidth(checklistSheet, "C", "C", 14)
	_ = f.SetColWidth(documentsSheet, "A", "A", 36)
	_ = f.SetColWidth(documentsSheet, "B", "C", 18)
	_ = f.SetColWidth(documentsSheet, "E", "E", 18)
	_ = f.SetColWidth(documentsSheet, "F", "F", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"intake_id", intake.ID,
		"checklist_rows", len(items),
		"document_rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// formatFields renders an extracted-field map as "key=value; ..." with
// keys sorted so output is stable.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "; "
		}
		v := fields[k]
		if v == nil {
			out += k + "="
			continue
		}
		out += fmt.Sprintf("%s=%v", k, v)
	}
	return out
}

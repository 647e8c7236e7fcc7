package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

type ChecklistItemRepository struct {
	db *sql.DB
}

func NewChecklistItemRepository(db *sql.DB) *ChecklistItemRepository {
	return &ChecklistItemRepository{db: db}
}

func (r *ChecklistItemRepository) ListByIntake(ctx context.Context, intakeID string) ([]domain.ChecklistItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, intake_id, doc_kind, status, created_at
FROM checklist_items
WHERE intake_id = $1
ORDER BY created_at, id
`, intakeID)
	if err != nil {
		return nil, fmt.Errorf("query checklist items: %w", err)
	}
	defer rows.Close()

	var items []domain.ChecklistItem
	for rows.Next() {
		var item domain.ChecklistItem
		var kind, status string
		if err := rows.Scan(&item.ID, &item.IntakeID, &kind, &status, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		item.DocKind = domain.DocumentKind(kind)
		item.Status = domain.ChecklistItemStatus(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist items: %w", err)
	}
	return items, nil
}

// AdvanceItem moves an item from one status to the next. The status guard in
// the WHERE clause makes the advance a compare-and-swap: a concurrent
// request that already moved the item simply reports false here.
func (r *ChecklistItemRepository) AdvanceItem(ctx context.Context, itemID string, from, to domain.ChecklistItemStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE checklist_items
SET status = $3
WHERE id = $1 AND status = $2
`, itemID, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("advance checklist item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance checklist item rows affected: %w", err)
	}
	return affected == 1, nil
}

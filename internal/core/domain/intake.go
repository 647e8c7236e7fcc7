package domain

import "time"

type IntakeStatus string

const (
	IntakeOpen     IntakeStatus = "open"
	IntakeReceived IntakeStatus = "received"
	IntakeDone     IntakeStatus = "done"
)

type Intake struct {
	ID         string       `json:"id"`
	ClientID   string       `json:"client_id"`
	FiscalYear int          `json:"fiscal_year"`
	Status     IntakeStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

type ChecklistItemStatus string

const (
	ItemMissing   ChecklistItemStatus = "missing"
	ItemReceived  ChecklistItemStatus = "received"
	ItemExtracted ChecklistItemStatus = "extracted"
)

// ChecklistItem is one expected document slot within an intake. The set of
// slots is fixed when the intake is created and item status only moves
// forward: missing -> received -> extracted.
type ChecklistItem struct {
	ID        string              `json:"id"`
	IntakeID  string              `json:"intake_id"`
	DocKind   DocumentKind        `json:"doc_kind"`
	Status    ChecklistItemStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

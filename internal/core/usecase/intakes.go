package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mfortin/tax-intake/internal/core/checklist"
	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
)

type IntakeUseCase struct {
	clients   ports.ClientRepository
	intakes   ports.IntakeRepository
	items     ports.ChecklistItemRepository
	templates checklist.Templates
}

func NewIntakeUseCase(
	clients ports.ClientRepository,
	intakes ports.IntakeRepository,
	items ports.ChecklistItemRepository,
	templates checklist.Templates,
) *IntakeUseCase {
	return &IntakeUseCase{
		clients:   clients,
		intakes:   intakes,
		items:     items,
		templates: templates,
	}
}

// Create opens an intake for a client and snapshots its checklist from the
// client's complexity tier. The checklist is fixed from this point on.
func (uc *IntakeUseCase) Create(ctx context.Context, clientID string, fiscalYear int) (*domain.Intake, []domain.ChecklistItem, error) {
	client, err := uc.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	if fiscalYear <= 0 {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "create intake", fmt.Errorf("invalid fiscal year %d", fiscalYear))
	}

	kinds, err := uc.templates.KindsFor(client.Complexity)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve checklist template: %w", err)
	}

	now := time.Now().UTC()
	intake := &domain.Intake{
		ID:         uuid.NewString(),
		ClientID:   client.ID,
		FiscalYear: fiscalYear,
		Status:     domain.IntakeOpen,
		CreatedAt:  now,
	}
	items := make([]domain.ChecklistItem, 0, len(kinds))
	for _, kind := range kinds {
		items = append(items, domain.ChecklistItem{
			ID:        uuid.NewString(),
			IntakeID:  intake.ID,
			DocKind:   kind,
			Status:    domain.ItemMissing,
			CreatedAt: now,
		})
	}
	if err := uc.intakes.Create(ctx, intake, items); err != nil {
		return nil, nil, fmt.Errorf("create intake record: %w", err)
	}

	return intake, items, nil
}

func (uc *IntakeUseCase) Checklist(ctx context.Context, intakeID string) (*domain.Intake, []domain.ChecklistItem, error) {
	intake, err := uc.intakes.GetByID(ctx, intakeID)
	if err != nil {
		return nil, nil, err
	}
	items, err := uc.items.ListByIntake(ctx, intakeID)
	if err != nil {
		return nil, nil, fmt.Errorf("list checklist items: %w", err)
	}
	return intake, items, nil
}

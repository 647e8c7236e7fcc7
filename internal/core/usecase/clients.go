package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/core/ports"
)

type ClientUseCase struct {
	repo ports.ClientRepository
}

func NewClientUseCase(repo ports.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

func (uc *ClientUseCase) Create(ctx context.Context, name, email string, tier domain.ComplexityTier) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create client", errors.New("name is required"))
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create client", fmt.Errorf("invalid email %q", email))
	}
	if !tier.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create client", fmt.Errorf("invalid complexity tier %q", tier))
	}

	client := &domain.Client{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Complexity: tier,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client record: %w", err)
	}
	return client, nil
}

func (uc *ClientUseCase) List(ctx context.Context) ([]domain.Client, error) {
	clients, err := uc.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO clients (id, name, email, complexity, created_at)
VALUES ($1,$2,$3,$4,$5)
`, client.ID, client.Name, client.Email, string(client.Complexity), client.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, complexity, created_at
FROM clients
WHERE id = $1
`, id)

	var client domain.Client
	var complexity string
	err := row.Scan(&client.ID, &client.Name, &client.Email, &complexity, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClientNotFound, "get client", err)
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	client.Complexity = domain.ComplexityTier(complexity)
	return &client, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, email, complexity, created_at
FROM clients
ORDER BY created_at
`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var client domain.Client
		var complexity string
		if err := rows.Scan(&client.ID, &client.Name, &client.Email, &complexity, &client.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client row: %w", err)
		}
		client.Complexity = domain.ComplexityTier(complexity)
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

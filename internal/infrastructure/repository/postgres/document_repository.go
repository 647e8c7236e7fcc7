package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	fieldsJSON, err := marshalFields(doc.Extracted)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, intake_id, filename, sha256, mime_type, size_bytes, storage_key, doc_kind, extracted_fields, uploaded_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.IntakeID, doc.Filename, doc.SHA256, doc.MimeType, doc.SizeBytes,
		doc.StorageKey, string(doc.DocKind), fieldsJSON, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, intake_id, filename, sha256, mime_type, size_bytes, storage_key, doc_kind, extracted_fields, uploaded_at
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) ListByIntake(ctx context.Context, intakeID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, intake_id, filename, sha256, mime_type, size_bytes, storage_key, doc_kind, extracted_fields, uploaded_at
FROM documents
WHERE intake_id = $1
ORDER BY uploaded_at, id
`, intakeID)
	if err != nil {
		return nil, fmt.Errorf("query intake documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) ExistsByHash(ctx context.Context, intakeID, sha256Hex string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM documents WHERE intake_id = $1 AND sha256 = $2)
`, intakeID, sha256Hex).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document hash: %w", err)
	}
	return exists, nil
}

func (r *DocumentRepository) UpdateKind(ctx context.Context, id string, kind domain.DocumentKind) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET doc_kind = $2
WHERE id = $1
`, id, string(kind))
	if err != nil {
		return fmt.Errorf("update document kind: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document kind rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document kind", sql.ErrNoRows)
	}
	return nil
}

func (r *DocumentRepository) SaveFields(ctx context.Context, id string, fields domain.Fields) error {
	fieldsJSON, err := marshalFields(fields)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET extracted_fields = $2
WHERE id = $1
`, id, fieldsJSON)
	if err != nil {
		return fmt.Errorf("save extracted fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save extracted fields rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "save extracted fields", sql.ErrNoRows)
	}
	return nil
}

// marshalFields keeps absent extractions as SQL NULL rather than a JSON
// null, so eligibility queries can rely on IS NULL semantics.
func marshalFields(fields domain.Fields) (any, error) {
	if fields == nil {
		return nil, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal extracted fields: %w", err)
	}
	return raw, nil
}

func scanDocument(scan func(dest ...any) error) (*domain.Document, error) {
	var doc domain.Document
	var kind string
	var fieldsRaw []byte

	err := scan(
		&doc.ID, &doc.IntakeID, &doc.Filename, &doc.SHA256, &doc.MimeType,
		&doc.SizeBytes, &doc.StorageKey, &kind, &fieldsRaw, &doc.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.DocKind = domain.DocumentKind(kind)
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &doc.Extracted); err != nil {
			return nil, fmt.Errorf("unmarshal extracted fields: %w", err)
		}
	}
	return &doc, nil
}

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

func newDocRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestDocumentGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, intake_id, filename").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentGetByIDUnmarshalsFields(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	uploaded := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "intake_id", "filename", "sha256", "mime_type",
		"size_bytes", "storage_key", "doc_kind", "extracted_fields", "uploaded_at",
	}).AddRow(
		"doc-1", "intake-1", "t4.pdf", "abc123", "application/pdf",
		int64(2048), "intake-1/abc123", "T4", []byte(`{"employer_name":"Acme Inc"}`), uploaded,
	)
	mock.ExpectQuery("SELECT id, intake_id, filename").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.DocKind != domain.KindT4 {
		t.Fatalf("expected T4, got %s", doc.DocKind)
	}
	if doc.Extracted["employer_name"] != "Acme Inc" {
		t.Fatalf("unexpected fields: %v", doc.Extracted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentGetByIDNullFieldsStayNil(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "intake_id", "filename", "sha256", "mime_type",
		"size_bytes", "storage_key", "doc_kind", "extracted_fields", "uploaded_at",
	}).AddRow(
		"doc-1", "intake-1", "scan.pdf", "abc123", "application/pdf",
		int64(10), "intake-1/abc123", "unknown", nil, time.Now().UTC(),
	)
	mock.ExpectQuery("SELECT id, intake_id, filename").
		WithArgs("doc-1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Extracted != nil {
		t.Fatalf("expected nil fields, got %v", doc.Extracted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentUpdateKindReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", "T4").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateKind(context.Background(), "missing", domain.KindT4)
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentSaveFieldsNilWritesSQLNull(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveFields(context.Background(), "doc-1", nil); err != nil {
		t.Fatalf("SaveFields() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentExistsByHash(t *testing.T) {
	repo, mock, done := newDocRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("intake-1", "abc123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByHash(context.Background(), "intake-1", "abc123")
	if err != nil {
		t.Fatalf("ExistsByHash() error = %v", err)
	}
	if !exists {
		t.Fatalf("expected exists")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

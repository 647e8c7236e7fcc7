package domain

import "time"

type DocumentKind string

const (
	KindT4      DocumentKind = "T4"
	KindReceipt DocumentKind = "receipt"
	KindID      DocumentKind = "id"
	KindUnknown DocumentKind = "unknown"
)

// Fields holds structured values extracted from a document. A nil map means
// extraction has not happened yet or produced nothing.
type Fields map[string]any

type Document struct {
	ID         string       `json:"id"`
	IntakeID   string       `json:"intake_id"`
	Filename   string       `json:"filename"`
	SHA256     string       `json:"sha256"`
	MimeType   string       `json:"mime_type"`
	SizeBytes  int64        `json:"size_bytes"`
	StorageKey string       `json:"storage_key"`
	DocKind    DocumentKind `json:"doc_kind"`
	Extracted  Fields       `json:"extracted_fields,omitempty"`
	UploadedAt time.Time    `json:"uploaded_at"`
}

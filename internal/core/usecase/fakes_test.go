package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

// In-memory ports shared by the usecase tests. Each fake mimics the
// repository contract closely enough that the full document lifecycle can
// run end to end without a database.

type clientRepoMem struct {
	clients map[string]domain.Client
	order   []string
}

func newClientRepoMem() *clientRepoMem {
	return &clientRepoMem{clients: map[string]domain.Client{}}
}

func (m *clientRepoMem) Create(_ context.Context, client *domain.Client) error {
	m.clients[client.ID] = *client
	m.order = append(m.order, client.ID)
	return nil
}

func (m *clientRepoMem) GetByID(_ context.Context, id string) (*domain.Client, error) {
	client, ok := m.clients[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrClientNotFound, "get client", fmt.Errorf("client %s", id))
	}
	copyClient := client
	return &copyClient, nil
}

func (m *clientRepoMem) List(_ context.Context) ([]domain.Client, error) {
	out := make([]domain.Client, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.clients[id])
	}
	return out, nil
}

type intakeRepoMem struct {
	intakes   map[string]domain.Intake
	checklist *itemRepoMem
	createErr error
}

func newIntakeRepoMem(checklist *itemRepoMem) *intakeRepoMem {
	return &intakeRepoMem{intakes: map[string]domain.Intake{}, checklist: checklist}
}

func (m *intakeRepoMem) Create(_ context.Context, intake *domain.Intake, items []domain.ChecklistItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.intakes[intake.ID] = *intake
	for _, item := range items {
		m.checklist.items[item.ID] = item
	}
	return nil
}

func (m *intakeRepoMem) GetByID(_ context.Context, id string) (*domain.Intake, error) {
	intake, ok := m.intakes[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrIntakeNotFound, "get intake", fmt.Errorf("intake %s", id))
	}
	copyIntake := intake
	return &copyIntake, nil
}

func (m *intakeRepoMem) UpdateStatus(_ context.Context, id string, status domain.IntakeStatus) error {
	intake, ok := m.intakes[id]
	if !ok {
		return domain.WrapError(domain.ErrIntakeNotFound, "update intake status", fmt.Errorf("intake %s", id))
	}
	intake.Status = status
	m.intakes[id] = intake
	return nil
}

type itemRepoMem struct {
	items map[string]domain.ChecklistItem
}

func newItemRepoMem() *itemRepoMem {
	return &itemRepoMem{items: map[string]domain.ChecklistItem{}}
}

func (m *itemRepoMem) ListByIntake(_ context.Context, intakeID string) ([]domain.ChecklistItem, error) {
	out := make([]domain.ChecklistItem, 0)
	for _, item := range m.items {
		if item.IntakeID == intakeID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *itemRepoMem) AdvanceItem(_ context.Context, itemID string, from, to domain.ChecklistItemStatus) (bool, error) {
	item, ok := m.items[itemID]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	m.items[itemID] = item
	return true, nil
}

type docRepoMem struct {
	docs  map[string]domain.Document
	order []string
}

func newDocRepoMem() *docRepoMem {
	return &docRepoMem{docs: map[string]domain.Document{}}
}

func (m *docRepoMem) Create(_ context.Context, doc *domain.Document) error {
	m.docs[doc.ID] = *doc
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *docRepoMem) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("document %s", id))
	}
	copyDoc := doc
	return &copyDoc, nil
}

func (m *docRepoMem) ListByIntake(_ context.Context, intakeID string) ([]domain.Document, error) {
	out := make([]domain.Document, 0)
	for _, id := range m.order {
		if m.docs[id].IntakeID == intakeID {
			out = append(out, m.docs[id])
		}
	}
	return out, nil
}

func (m *docRepoMem) ExistsByHash(_ context.Context, intakeID, sha256Hex string) (bool, error) {
	for _, doc := range m.docs {
		if doc.IntakeID == intakeID && doc.SHA256 == sha256Hex {
			return true, nil
		}
	}
	return false, nil
}

func (m *docRepoMem) UpdateKind(_ context.Context, id string, kind domain.DocumentKind) error {
	doc, ok := m.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document kind", fmt.Errorf("document %s", id))
	}
	doc.DocKind = kind
	m.docs[id] = doc
	return nil
}

func (m *docRepoMem) SaveFields(_ context.Context, id string, fields domain.Fields) error {
	doc, ok := m.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "save document fields", fmt.Errorf("document %s", id))
	}
	doc.Extracted = fields
	m.docs[id] = doc
	return nil
}

type storageMem struct {
	objects map[string][]byte
	saveErr error
}

func newStorageMem() *storageMem {
	return &storageMem{objects: map[string][]byte{}}
}

func (m *storageMem) Save(_ context.Context, key string, data io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[key] = raw
	return nil
}

func (m *storageMem) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found: " + key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type queueMem struct {
	published []string
	err       error
}

func (m *queueMem) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, documentID)
	return nil
}

func (m *queueMem) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

// textExtractorStub returns canned text per document ID.
type textExtractorStub struct {
	byID map[string]string
	err  error
}

func (s *textExtractorStub) Extract(_ context.Context, doc *domain.Document) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.byID[doc.ID], nil
}

// fieldExtractorStub returns canned fields per document kind.
type fieldExtractorStub struct {
	byKind map[domain.DocumentKind]domain.Fields
	err    error
	calls  int
}

func (s *fieldExtractorStub) ExtractFields(_ context.Context, kind domain.DocumentKind, _ string) (domain.Fields, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byKind[kind], nil
}

package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
)

// MemoryRepo is an in-memory repository used for unit tests and for running
// the fulfillment service without a configured MongoDB. It implements the
// same conditional-write semantics as the Mongo-backed repository.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = "doc_" + uuid.NewString()
	}
	doc.Token = strings.ToUpper(strings.TrimSpace(doc.Token))
	if doc.Status == "" {
		doc.Status = document.StatusRequested
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	m.store[doc.ID] = &cp
	return doc.ID, nil
}

func (m *MemoryRepo) FindByToken(ctx context.Context, token string) (*document.Document, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.store {
		if d.Token == token {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindByID(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) UpdateStatus(ctx context.Context, id string, expected *document.Status, next document.Status, extra *Fields) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if expected != nil && d.Status != *expected {
		return nil, ErrConflict
	}
	if err := document.ValidateTransition(d.Status, next); err != nil {
		return nil, err
	}
	d.Status = next
	if extra != nil {
		if extra.Content != nil {
			d.Content = *extra.Content
		}
		if extra.UserObservations != nil {
			d.UserObservations = *extra.UserObservations
		}
		if extra.UserObservationDate != nil {
			t := *extra.UserObservationDate
			d.UserObservationDate = &t
		}
	}
	d.UpdatedAt = time.Now().UTC()
	cp := *d
	return &cp, nil
}

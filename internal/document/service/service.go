package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrEmptyObservation rejects observation submissions with no usable text.
	ErrEmptyObservation = errors.New("observation text is empty")
	// ErrPricedDocument rejects the free fast path for documents that cost money.
	ErrPricedDocument = errors.New("document has a price and requires payment")
)

// Service exposes the document fulfillment operations used by the handler
// layer: token resolution, the client observation loop, the free-document
// fast path and the professional review transitions.
type Service interface {
	GetByToken(ctx context.Context, token string) (*document.Document, error)
	SubmitObservations(ctx context.Context, id, text string) (*document.Document, error)
	ApproveFree(ctx context.Context, id string) (*document.Document, error)
	BeginReview(ctx context.Context, id string) (*document.Document, error)
	CompleteReview(ctx context.Context, id, content string) (*document.Document, error)
}

type service struct {
	repo repository.Repository
	now  func() time.Time
}

// New returns a Service backed by the given repository.
func New(repo repository.Repository) Service {
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// GetByToken resolves a document by its shareable token. Tokens are
// case-insensitive; the input is normalized to uppercase before lookup.
// A miss never creates a record.
func (s *service) GetByToken(ctx context.Context, token string) (*document.Document, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return nil, ErrNotFound
	}
	d, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// SubmitObservations records client change requests and returns the document
// to professional review. The write is conditional on the document still
// being in client review.
func (s *service) SubmitObservations(ctx context.Context, id, text string) (*document.Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyObservation
	}
	expected := document.StatusInClientReview
	when := s.now()
	d, err := s.repo.UpdateStatus(ctx, id, &expected, document.StatusInLawyerReview, &repository.Fields{
		UserObservations:    &text,
		UserObservationDate: &when,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ApproveFree is the fast path for zero-price documents: payment is
// synthesized with a conditional requested -> paid write. Losing the
// compare-and-swap means another attempt already got there, which is
// success, not an error.
func (s *service) ApproveFree(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !d.Free() {
		return nil, ErrPricedDocument
	}
	expected := document.StatusRequested
	updated, err := s.repo.UpdateStatus(ctx, id, &expected, document.StatusPaid, nil)
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, repository.ErrConflict) {
		return s.repo.FindByID(ctx, id)
	}
	return nil, err
}

// BeginReview claims a requested document for professional review.
func (s *service) BeginReview(ctx context.Context, id string) (*document.Document, error) {
	expected := document.StatusRequested
	d, err := s.repo.UpdateStatus(ctx, id, &expected, document.StatusInLawyerReview, nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// CompleteReview publishes the reviewed content and hands the document to
// the client for approval.
func (s *service) CompleteReview(ctx context.Context, id, content string) (*document.Document, error) {
	expected := document.StatusInLawyerReview
	d, err := s.repo.UpdateStatus(ctx, id, &expected, document.StatusInClientReview, &repository.Fields{
		Content: &content,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

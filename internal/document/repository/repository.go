package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
)

var (
	// ErrNotFound is returned when no document matches the lookup key.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a conditional status write loses the
	// compare-and-swap: the stored status no longer matches the expected
	// one. Callers race on payment confirmation and treat this as a
	// benign outcome, not a failure.
	ErrConflict = errors.New("document status conflict")
)

// Fields carries optional extra mutations applied atomically with a status
// write.
type Fields struct {
	Content             *string
	UserObservations    *string
	UserObservationDate *time.Time
}

// Repository provides document persistence. UpdateStatus is the only way a
// status reaches storage and always validates the transition table; when
// expected is non-nil the write is conditional on the stored status still
// matching it.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	FindByToken(ctx context.Context, token string) (*document.Document, error)
	FindByID(ctx context.Context, id string) (*document.Document, error)
	UpdateStatus(ctx context.Context, id string, expected *document.Status, next document.Status, extra *Fields) (*document.Document, error)
}

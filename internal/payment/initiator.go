package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/logger"
)

// Initiator opens hosted checkout sessions for priced documents. Free
// documents never reach the gateway; callers must use the fast path in the
// document service instead.
type Initiator struct {
	gateway  Gateway
	sessions SessionStore
	ttl      time.Duration
}

// NewInitiator builds an Initiator. ttl bounds how long an order session is
// kept resolvable; zero means one hour.
func NewInitiator(gateway Gateway, sessions SessionStore, ttl time.Duration) *Initiator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Initiator{gateway: gateway, sessions: sessions, ttl: ttl}
}

// Open obtains a checkout session for the document. The document record is
// never mutated; failures surface as ErrConfiguration or
// ErrGatewayUnavailable from the gateway client.
func (i *Initiator) Open(ctx context.Context, doc *document.Document) (*SessionConfig, error) {
	if doc.Free() {
		return nil, fmt.Errorf("open session: %w", ErrConfiguration)
	}
	// paid checkout only from client review; the requested -> paid edge is
	// reserved for the free fast path
	if doc.Status != document.StatusInClientReview {
		return nil, &document.InvalidTransitionError{From: doc.Status, To: document.StatusPaid}
	}

	orderID := "ord_" + uuid.NewString()
	cfg, err := i.gateway.CreateSession(ctx, SessionRequest{
		OrderID:      orderID,
		Amount:       doc.Price,
		DocumentType: doc.DocumentType,
		Token:        doc.Token,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess := &OrderSession{
		OrderID:    cfg.OrderID,
		DocumentID: doc.ID,
		Amount:     doc.Price,
		CreatedAt:  now,
		ExpiresAt:  now.Add(i.ttl),
	}
	if err := i.sessions.Save(ctx, sess); err != nil {
		// the session store is a convenience for reload recovery; the
		// checkout itself is already open
		logger.Warnf("payment: save order session %s: %v", cfg.OrderID, err)
	}
	return cfg, nil
}

// Resolve returns the pending order session, or nil when unknown/expired.
func (i *Initiator) Resolve(ctx context.Context, orderID string) (*OrderSession, error) {
	return i.sessions.Get(ctx, orderID)
}

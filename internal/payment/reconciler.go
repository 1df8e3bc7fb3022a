package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/logger"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/metrics"
)

// ErrStillPending is returned when a polling window closes without the
// gateway reporting approval. It is not a failure: the payment may still
// land out-of-band and a fresh user action starts a new window.
var ErrStillPending = errors.New("payment still pending")

const (
	channelRedirect = "redirect"
	channelPolling  = "polling"
)

// PollConfig bounds the polling confirmation channel. Attempts and Elapsed
// are enforced independently so one slow lookup cannot stretch the window.
type PollConfig struct {
	Interval      time.Duration
	MaxAttempts   int
	MaxElapsed    time.Duration
	LookupTimeout time.Duration
}

// DefaultPollConfig mirrors the product reference: every 3s, at most 40
// attempts, at most 120s overall.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Interval:      3 * time.Second,
		MaxAttempts:   40,
		MaxElapsed:    120 * time.Second,
		LookupTimeout: 5 * time.Second,
	}
}

func (c PollConfig) withDefaults() PollConfig {
	d := DefaultPollConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.MaxElapsed <= 0 {
		c.MaxElapsed = d.MaxElapsed
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = d.LookupTimeout
	}
	return c
}

// RedirectParams are the transaction parameters the gateway appends to the
// return URL after hosted checkout.
type RedirectParams struct {
	OrderID           string
	TransactionStatus string
}

// Approved reports whether the redirect parameters assert an approved
// transaction.
func (p RedirectParams) Approved() bool {
	switch strings.ToLower(strings.TrimSpace(p.TransactionStatus)) {
	case "approved", "ok", "success":
		return true
	}
	return false
}

// Reconciler drives payment confirmation for one deployment. Two channels
// feed it: the synchronous redirect back from the gateway and the bounded
// polling loop. Both funnel into the same conditional in_client_review ->
// paid write; the repository's compare-and-swap is the only arbiter of
// which channel wins, so no in-memory flag is shared between them.
type Reconciler struct {
	repo    repository.Repository
	gateway Gateway
	cfg     PollConfig
}

func NewReconciler(repo repository.Repository, gateway Gateway, cfg PollConfig) *Reconciler {
	return &Reconciler{repo: repo, gateway: gateway, cfg: cfg.withDefaults()}
}

// ConfirmRedirect handles the redirect-confirmation channel. When the
// parameters assert approval it performs the authoritative paid write
// directly, bypassing polling. Unapproved parameters mutate nothing and
// report still-pending.
func (r *Reconciler) ConfirmRedirect(ctx context.Context, docID string, params RedirectParams) (*document.Document, error) {
	if !params.Approved() {
		return nil, ErrStillPending
	}
	return r.markPaid(ctx, docID, channelRedirect)
}

// Poll runs the polling confirmation channel to completion: fixed-cadence
// status lookups until approval, attempt exhaustion, wall-clock ceiling or
// cancellation, whichever comes first. Exhaustion returns ErrStillPending
// and leaves the record untouched.
func (r *Reconciler) Poll(ctx context.Context, docID, orderID string) (*document.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MaxElapsed)
	defer cancel()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		approved := r.lookup(ctx, orderID)
		if approved {
			return r.markPaid(ctx, docID, channelPolling)
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				metrics.PaymentPollExhausted.Inc()
			}
			logger.Debugf("payment: polling window for order %s closed: %v", orderID, ctx.Err())
			return nil, ErrStillPending
		case <-ticker.C:
		}
	}
	metrics.PaymentPollExhausted.Inc()
	logger.Debugf("payment: polling attempts for order %s exhausted", orderID)
	return nil, ErrStillPending
}

func (r *Reconciler) lookup(ctx context.Context, orderID string) bool {
	lctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()
	metrics.PaymentPollAttempts.Inc()
	approved, err := r.gateway.LookupStatus(lctx, orderID)
	if err != nil {
		// transport-level trouble counts as not-yet-approved
		logger.Debugf("payment: status lookup for order %s: %v", orderID, err)
		return false
	}
	return approved
}

// markPaid performs the single authoritative write. Losing the
// compare-and-swap means the other channel (or a concurrent signal) already
// recorded the payment; the record is re-read and the loss reported as
// success.
func (r *Reconciler) markPaid(ctx context.Context, docID, channel string) (*document.Document, error) {
	expected := document.StatusInClientReview
	updated, err := r.repo.UpdateStatus(ctx, docID, &expected, document.StatusPaid, nil)
	if err == nil {
		metrics.PaymentsConfirmed.WithLabelValues(channel).Inc()
		logger.Infof("payment: document %s marked paid via %s", docID, channel)
		return updated, nil
	}
	if errors.Is(err, repository.ErrConflict) {
		cur, ferr := r.repo.FindByID(ctx, docID)
		if ferr != nil {
			return nil, ferr
		}
		if cur.Status == document.StatusPaid || cur.Status == document.StatusDownloaded {
			metrics.PaymentConflictsAbsorbed.WithLabelValues(channel).Inc()
			logger.Debugf("payment: document %s already paid, %s write absorbed", docID, channel)
			return cur, nil
		}
	}
	return nil, err
}

// PollHandle is the cancellable handle for a background polling loop. Each
// handle owns its own cancel func and result; nothing is shared at package
// level, so concurrent documents (or tabs) cannot interfere.
type PollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}

	doc *document.Document
	err error
}

// Start launches Poll on a goroutine and returns its handle.
func (r *Reconciler) Start(ctx context.Context, docID, orderID string) *PollHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &PollHandle{cancel: cancel, done: make(chan struct{})}
	go func() {
		h.doc, h.err = r.Poll(ctx, docID, orderID)
		close(h.done)
	}()
	return h
}

// Stop tears the loop down; no further lookups are issued. Safe to call
// more than once.
func (h *PollHandle) Stop() {
	h.cancel()
}

// Done is closed when the loop has finished.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the loop finishes and returns its outcome.
func (h *PollHandle) Result() (*document.Document, error) {
	<-h.done
	return h.doc, h.err
}

package payment

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/stretchr/testify/require"
)

// fakeGateway approves orders on demand and counts lookups.
type fakeGateway struct {
	mu       sync.Mutex
	approved map[string]bool
	lookups  int32
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{approved: make(map[string]bool)}
}

func (f *fakeGateway) approve(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved[orderID] = true
}

func (f *fakeGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionConfig, error) {
	return &SessionConfig{OrderID: req.OrderID, Amount: req.Amount, PublicKey: "pk_test", CheckoutURL: "https://checkout.example/" + req.OrderID}, nil
}

func (f *fakeGateway) LookupStatus(ctx context.Context, orderID string) (bool, error) {
	atomic.AddInt32(&f.lookups, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.approved[orderID], nil
}

func (f *fakeGateway) lookupCount() int {
	return int(atomic.LoadInt32(&f.lookups))
}

// countingRepo counts successful transitions into paid.
type countingRepo struct {
	repository.Repository
	paidWrites int32
}

func (c *countingRepo) UpdateStatus(ctx context.Context, id string, expected *document.Status, next document.Status, extra *repository.Fields) (*document.Document, error) {
	d, err := c.Repository.UpdateStatus(ctx, id, expected, next, extra)
	if err == nil && next == document.StatusPaid {
		atomic.AddInt32(&c.paidWrites, 1)
	}
	return d, err
}

func seedDoc(t *testing.T, repo repository.Repository, status document.Status) string {
	t.Helper()
	id, err := repo.Create(context.Background(), &document.Document{
		Token: "tok-r", DocumentType: "lease_agreement", Content: "body", Price: 50000, Status: status,
	})
	require.NoError(t, err)
	return id
}

func quickCfg() PollConfig {
	return PollConfig{Interval: 5 * time.Millisecond, MaxAttempts: 40, MaxElapsed: time.Second, LookupTimeout: 100 * time.Millisecond}
}

func TestConfirmRedirect_Approved(t *testing.T) {
	repo := repository.NewMemoryRepo()
	id := seedDoc(t, repo, document.StatusInClientReview)
	rec := NewReconciler(repo, newFakeGateway(), quickCfg())

	d, err := rec.ConfirmRedirect(context.Background(), id, RedirectParams{OrderID: "ord_1", TransactionStatus: "APPROVED"})
	require.NoError(t, err)
	require.Equal(t, document.StatusPaid, d.Status)
}

func TestConfirmRedirect_NotApprovedMutatesNothing(t *testing.T) {
	repo := repository.NewMemoryRepo()
	id := seedDoc(t, repo, document.StatusInClientReview)
	rec := NewReconciler(repo, newFakeGateway(), quickCfg())

	_, err := rec.ConfirmRedirect(context.Background(), id, RedirectParams{OrderID: "ord_1", TransactionStatus: "declined"})
	require.ErrorIs(t, err, ErrStillPending)

	d, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, document.StatusInClientReview, d.Status)
}

func TestPoll_ApprovalStopsLoop(t *testing.T) {
	repo := repository.NewMemoryRepo()
	id := seedDoc(t, repo, document.StatusInClientReview)
	gw := newFakeGateway()
	gw.approve("ord_1")
	rec := NewReconciler(repo, gw, quickCfg())

	d, err := rec.Poll(context.Background(), id, "ord_1")
	require.NoError(t, err)
	require.Equal(t, document.StatusPaid, d.Status)
	require.Equal(t, 1, gw.lookupCount())
}

func TestPoll_BoundedAttempts(t *testing.T) {
	repo := repository.NewMemoryRepo()
	id := seedDoc(t, repo, document.StatusInClientReview)
	gw := newFakeGateway()
	cfg := PollConfig{Interval: 2 * time.Millisecond, MaxAttempts: 5, MaxElapsed: time.Second, LookupTimeout: 50 * time.Millisecond}
	rec := NewReconciler(repo, gw, cfg)

	start := time.Now()
	_, err := rec.Poll(context.Background(), id, "ord_1")
	require.ErrorIs(t, err, ErrStillPending)
	require.Equal(t, 5, gw.lookupCount())
	require.Less(t, time.Since(start), time.Second)

	d, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, document.StatusInClientReview, d.Status)
}

func TestPoll_BoundedWallClock(t *testing.T) {
	repo := repository.NewMemoryRepo()
	id := seedDoc(t, repo, document.StatusInClientReview)
	gw := newFakeGateway()
	cfg := PollConfig{Interval: 10 * time.Millisecond, MaxAttempts: 10000, MaxElapsed: 60 * time.Millisecond, LookupTimeout: 50 * time.Millisecond}
	rec := NewReconciler(repo, gw, cfg)

	start := time.Now()
	_, err := rec.Poll(context.Background(), id, "ord_1")
	require.ErrorIs(t, err, ErrStillPending)
	require.Less(t, time.Since(start), time.Second)
	require.Less(t, gw.lookupCount(), 10000)
}

func TestPollHandle_StopTearsDownLoop(t *testing.T) {
	repo := repository.NewMemoryRepo()
	id := seedDoc(t, repo, document.StatusInClientReview)
	gw := newFakeGateway()
	cfg := PollConfig{Interval: 5 * time.Millisecond, MaxAttempts: 10000, MaxElapsed: time.Minute, LookupTimeout: 50 * time.Millisecond}
	rec := NewReconciler(repo, gw, cfg)

	h := rec.Start(context.Background(), id, "ord_1")
	time.Sleep(20 * time.Millisecond)
	h.Stop()

	_, err := h.Result()
	require.ErrorIs(t, err, ErrStillPending)

	settled := gw.lookupCount()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, settled, gw.lookupCount())
}

func TestRacingChannels_ExactlyOnePaidWrite(t *testing.T) {
	base := repository.NewMemoryRepo()
	repo := &countingRepo{Repository: base}
	id := seedDoc(t, base, document.StatusInClientReview)
	gw := newFakeGateway()
	gw.approve("ord_1")
	rec := NewReconciler(repo, gw, quickCfg())

	const pollers = 8
	var wg sync.WaitGroup
	for i := 0; i < pollers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := rec.Poll(context.Background(), id, "ord_1")
			require.NoError(t, err)
			require.Contains(t, []document.Status{document.StatusPaid, document.StatusDownloaded}, d.Status)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		d, err := rec.ConfirmRedirect(context.Background(), id, RedirectParams{OrderID: "ord_1", TransactionStatus: "approved"})
		require.NoError(t, err)
		require.Equal(t, document.StatusPaid, d.Status)
	}()
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&repo.paidWrites))

	d, err := base.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, document.StatusPaid, d.Status)
}

func TestRedirectParams_Approved(t *testing.T) {
	require.True(t, RedirectParams{TransactionStatus: "approved"}.Approved())
	require.True(t, RedirectParams{TransactionStatus: " APPROVED "}.Approved())
	require.True(t, RedirectParams{TransactionStatus: "ok"}.Approved())
	require.False(t, RedirectParams{TransactionStatus: "declined"}.Approved())
	require.False(t, RedirectParams{TransactionStatus: ""}.Approved())
}

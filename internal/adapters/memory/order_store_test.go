package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
)

// storeFixture pins the store's clock so UpdatedAt stamps are exact.
type storeFixture struct {
	store *OrderStore
	now   time.Time
}

func newStoreFixture() *storeFixture {
	f := &storeFixture{now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	f.store = NewOrderStore(ports.ClockFunc(func() time.Time { return f.now }))
	return f
}

func seedOrder(t *testing.T, f *storeFixture) *models.Order {
	t.Helper()
	order := &models.Order{
		ID: "11111111-2222-3333-4444-555555555555",
		Session: models.PaymentSession{
			TrackID:      "ORD-100",
			Amount:       decimal.RequireFromString("49.99"),
			CurrencyCode: "978",
			ResponseURL:  "https://shop.example/return",
			ErrorURL:     "https://shop.example/error",
			CreatedAt:    f.now,
		},
		Status:    models.ResultPending,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	require.NoError(t, f.store.Create(context.Background(), order))
	return order
}

func TestOrderStore_CreateAndGet(t *testing.T) {
	f := newStoreFixture()
	order := seedOrder(t, f)

	got, err := f.store.GetByTrackID(context.Background(), "ORD-100")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.store.GetByTrackID(context.Background(), "ORD-404")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderNotFound))

	assert.Error(t, f.store.Create(context.Background(), order))
}

func TestOrderStore_GetReturnsCopy(t *testing.T) {
	f := newStoreFixture()
	seedOrder(t, f)

	got, err := f.store.GetByTrackID(context.Background(), "ORD-100")
	require.NoError(t, err)
	got.Status = models.ResultCaptured

	again, err := f.store.GetByTrackID(context.Background(), "ORD-100")
	require.NoError(t, err)
	assert.Equal(t, models.ResultPending, again.Status)
}

func TestOrderStore_AttachPaymentID(t *testing.T) {
	f := newStoreFixture()
	order := seedOrder(t, f)

	f.now = f.now.Add(time.Second)
	require.NoError(t, f.store.AttachPaymentID(context.Background(), order.ID, "PAY-1"))

	got, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultAwaitingGatewayResult, got.Status)
	assert.Equal(t, "PAY-1", got.Session.PaymentID)
	assert.Equal(t, f.now, got.UpdatedAt)

	// Only a pending order may take a payment id.
	err = f.store.AttachPaymentID(context.Background(), order.ID, "PAY-2")
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderInvalidState))
}

func TestOrderStore_ApplyResult(t *testing.T) {
	f := newStoreFixture()
	order := seedOrder(t, f)
	require.NoError(t, f.store.AttachPaymentID(context.Background(), order.ID, "PAY-1"))

	ack := []byte(`{"paymentID":"PAY-1"}`)
	applied, err := f.store.ApplyResult(context.Background(), order.ID, models.ResultCaptured, models.PaymentDiagnostics{Result: "CAPTURED"}, ack)
	require.NoError(t, err)
	assert.True(t, applied)

	// Second transition is refused, state and ack untouched.
	applied, err = f.store.ApplyResult(context.Background(), order.ID, models.ResultDeclined, models.PaymentDiagnostics{Result: "NOT CAPTURED"}, []byte(`other`))
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultCaptured, got.Status)
	assert.Equal(t, ack, got.Ack)
}

func TestOrderStore_ApplyResult_RejectsNonTerminal(t *testing.T) {
	f := newStoreFixture()
	order := seedOrder(t, f)

	_, err := f.store.ApplyResult(context.Background(), order.ID, models.ResultAwaitingGatewayResult, models.PaymentDiagnostics{}, nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeOrderInvalidState))
}

// Concurrent deliveries of conflicting results: exactly one transition
// wins, everyone else observes applied=false.
func TestOrderStore_ApplyResult_Concurrent(t *testing.T) {
	f := newStoreFixture()
	order := seedOrder(t, f)
	require.NoError(t, f.store.AttachPaymentID(context.Background(), order.ID, "PAY-1"))

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	appliedCount := 0

	for i := 0; i < workers; i++ {
		result := models.ResultCaptured
		if i%2 == 1 {
			result = models.ResultDeclined
		}
		wg.Add(1)
		go func(result models.OrderResult) {
			defer wg.Done()
			applied, err := f.store.ApplyResult(context.Background(), order.ID, result, models.PaymentDiagnostics{}, []byte(string(result)))
			assert.NoError(t, err)
			if applied {
				mu.Lock()
				appliedCount++
				mu.Unlock()
			}
		}(result)
	}
	wg.Wait()

	assert.Equal(t, 1, appliedCount)

	got, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsTerminal())
	// The stored ack matches whichever result won.
	assert.Equal(t, string(got.Status), string(got.Ack))
}

func TestOrderStore_ExpireStale(t *testing.T) {
	f := newStoreFixture()
	order := seedOrder(t, f)
	require.NoError(t, f.store.AttachPaymentID(context.Background(), order.ID, "PAY-1"))

	// Cutoff at the attach time itself: not yet stale.
	expired, err := f.store.ExpireStale(context.Background(), f.now)
	require.NoError(t, err)
	assert.Empty(t, expired)

	expired, err = f.store.ExpireStale(context.Background(), f.now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-100"}, expired)

	got, err := f.store.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultCancelled, got.Status)

	// Terminal orders are never swept again.
	expired, err = f.store.ExpireStale(context.Background(), f.now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
)

// OrderStore is an in-memory ports.OrderStore used by tests and local
// development. A single mutex serializes state transitions, giving the
// same at-most-once terminal transition the postgres store enforces with
// compare-and-swap updates.
type OrderStore struct {
	mu      sync.RWMutex
	clock   ports.Clock
	byID    map[string]*models.Order
	byTrack map[string]string
}

// NewOrderStore creates an empty in-memory order store. UpdatedAt stamps
// come from the given clock so stale-expiry tests can pin time.
func NewOrderStore(clock ports.Clock) *OrderStore {
	return &OrderStore{
		clock:   clock,
		byID:    make(map[string]*models.Order),
		byTrack: make(map[string]string),
	}
}

func (s *OrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	if _, exists := s.byTrack[order.Session.TrackID]; exists {
		return fmt.Errorf("track id %s already exists", order.Session.TrackID)
	}

	saved := cloneOrder(order)
	s.byID[order.ID] = saved
	s.byTrack[order.Session.TrackID] = order.ID
	return nil
}

func (s *OrderStore) GetByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *OrderStore) GetByTrackID(ctx context.Context, trackID string) (*models.Order, error) {
	s.mu.RLock()
	id, ok := s.byTrack[trackID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *OrderStore) AttachPaymentID(_ context.Context, orderID, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.byID[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != models.ResultPending {
		return domain.ErrOrderInvalidState
	}
	order.Session.PaymentID = paymentID
	order.Status = models.ResultAwaitingGatewayResult
	order.UpdatedAt = s.clock.Now().UTC()
	return nil
}

func (s *OrderStore) ApplyResult(_ context.Context, orderID string, result models.OrderResult, diag models.PaymentDiagnostics, ack []byte) (bool, error) {
	if !result.IsTerminal() {
		return false, domain.ErrOrderInvalidState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.byID[orderID]
	if !ok {
		return false, domain.ErrOrderNotFound
	}
	if order.Status.IsTerminal() {
		return false, nil
	}
	order.Status = result
	order.Diagnostics = diag
	order.Ack = append([]byte(nil), ack...)
	order.UpdatedAt = s.clock.Now().UTC()
	return true, nil
}

func (s *OrderStore) ExpireStale(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for _, order := range s.byID {
		if order.Status == models.ResultAwaitingGatewayResult && order.UpdatedAt.Before(cutoff) {
			order.Status = models.ResultCancelled
			order.UpdatedAt = s.clock.Now().UTC()
			expired = append(expired, order.Session.TrackID)
		}
	}
	return expired, nil
}

func cloneOrder(order *models.Order) *models.Order {
	clone := *order
	clone.Ack = append([]byte(nil), order.Ack...)
	return &clone
}

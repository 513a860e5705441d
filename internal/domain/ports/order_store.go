package ports

import (
	"context"
	"time"

	"github.com/commercegate/ipg-service/internal/domain/models"
)

// OrderStore persists order aggregates. All state lives in the order
// record; implementations must make ApplyResult a compare-and-swap so two
// concurrent notification deliveries cannot both apply business effects.
type OrderStore interface {
	// Create saves a new order. Saving the same order twice is an error.
	Create(ctx context.Context, order *models.Order) error

	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByTrackID(ctx context.Context, trackID string) (*models.Order, error)

	// AttachPaymentID records the gateway-assigned payment id and moves the
	// order from Pending to AwaitingGatewayResult in one write. It must
	// complete before the caller redirects the browser.
	AttachPaymentID(ctx context.Context, orderID, paymentID string) error

	// ApplyResult transitions a non-terminal order to the given terminal
	// result, storing diagnostics and the signed acknowledgement. It
	// returns false without error when the order was already terminal
	// (a concurrent delivery won the race). A terminal result is applied
	// at most once per order.
	ApplyResult(ctx context.Context, orderID string, result models.OrderResult, diag models.PaymentDiagnostics, ack []byte) (bool, error)

	// ExpireStale cancels orders stuck in AwaitingGatewayResult since
	// before the cutoff (HPP abandoned with no gateway message at all).
	// Returns the track ids of the orders it cancelled.
	ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

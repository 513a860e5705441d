package ports

import "context"

// PaymentEvent is published after a terminal order transition so the
// storefront can react without polling.
type PaymentEvent struct {
	TrackID      string `json:"track_id"`
	PaymentID    string `json:"payment_id"`
	Result       string `json:"result"`
	ResponseCode string `json:"response_code,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// EventPublisher publishes payment lifecycle events. Publishing is
// best-effort: a publish failure must never affect the acknowledgement
// returned to the gateway.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event PaymentEvent) error
}

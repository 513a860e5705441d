package payment

import (
	"context"
	"time"

	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
	"github.com/commercegate/ipg-service/internal/ipg"
	"github.com/commercegate/ipg-service/pkg/observability"
)

// ReturnOutcome is what the browser-return path renders to the shopper.
type ReturnOutcome struct {
	Status      models.OrderResult
	Processing  bool
	UserMessage string
}

// ResolveReturn resolves the race between the notification channel and the
// shopper's browser coming back from the hosted payment page.
//
// If the notification arrived first the order is terminal and that result
// is rendered. If the browser won the race the order is still awaiting the
// gateway result: the shopper sees a provisional "processing" state, and
// the order is NOT completed from this path. Only the signed notification
// may capture, so a forged or replayed redirect can never complete a
// payment.
func (s *Service) ResolveReturn(ctx context.Context, trackID string) (*ReturnOutcome, error) {
	order, err := s.store.GetByTrackID(ctx, trackID)
	if err != nil {
		return nil, err
	}

	if order.Status.IsTerminal() {
		observability.RecordReconciliation(string(order.Status))
		return &ReturnOutcome{
			Status:      order.Status,
			UserMessage: terminalMessage(order),
		}, nil
	}

	observability.RecordReconciliation("processing")
	s.logger.Info("browser returned before gateway notification",
		ports.String("track_id", trackID),
		ports.String("status", string(order.Status)))
	return &ReturnOutcome{
		Status:      order.Status,
		Processing:  true,
		UserMessage: "Your payment is being processed. You will be notified once it completes.",
	}, nil
}

// ExpireStale cancels orders that have waited longer than the configured
// cutoff for a gateway result. This is the HPP-abandonment case: the
// shopper closed the page and no gateway message will ever arrive, and the
// order must end distinguishable from one still in flight.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.opts.StaleAfter)
	trackIDs, err := s.store.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(trackIDs) > 0 {
		observability.RecordStaleCancellations(len(trackIDs))
		for _, trackID := range trackIDs {
			s.logger.Info("stale payment session cancelled",
				ports.String("track_id", trackID))
			if s.publisher != nil {
				event := ports.PaymentEvent{
					TrackID:    trackID,
					Result:     string(models.ResultCancelled),
					OccurredAt: s.clock.Now().Format(time.RFC3339),
				}
				if err := s.publisher.Publish(ctx, "payment.cancelled", event); err != nil {
					s.logger.Warn("cancellation event publish failed",
						ports.String("track_id", trackID),
						ports.Err(err))
				}
			}
		}
	}
	return len(trackIDs), nil
}

func terminalMessage(order *models.Order) string {
	switch order.Status {
	case models.ResultCaptured, models.ResultDeclined:
		return ipg.ClassifyResult(order.Diagnostics.Result).UserMessage
	case models.ResultCancelled:
		return "Payment was cancelled"
	default:
		return "Payment could not be completed"
	}
}

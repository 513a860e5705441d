package payment

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
	"github.com/commercegate/ipg-service/internal/ipg"
	"github.com/commercegate/ipg-service/pkg/observability"
)

// HandleNotification validates and applies a gateway payment notification
// and returns the signed acknowledgement body the gateway expects.
//
// The order's single terminal transition happens here and only here: the
// browser-return path never completes a payment. Redelivered notifications
// are answered with the acknowledgement stored on first application, byte
// for byte, with no business effects reapplied.
func (s *Service) HandleNotification(ctx context.Context, raw []byte) ([]byte, error) {
	var notif ipg.PaymentNotificationRequest
	if err := json.Unmarshal(raw, &notif); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInvalidResponse, "unmarshal notification", err)
	}

	// A message with a bad verifier is never trusted, whatever its payload
	// says. Verified before any field validation or lookup.
	if err := s.gateway.Signer().Verify(&notif, notif.MsgVerifier); err != nil {
		observability.RecordNotification(notif.Result, "rejected")
		s.logger.Warn("notification verifier mismatch",
			ports.String("track_id", notif.TrackID),
			ports.String("payment_id", notif.PaymentID))
		return nil, err
	}

	if notif.PaymentID == "" || notif.TrackID == "" || notif.Result == "" {
		observability.RecordNotification(notif.Result, "rejected")
		return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "notification missing paymentid, trackid or result")
	}

	order, err := s.store.GetByTrackID(ctx, notif.TrackID)
	if err != nil {
		observability.RecordNotification(notif.Result, "rejected")
		return nil, err
	}

	// Replayed or cross-wired notifications carry a paymentid that was
	// never attached to this order. Reject without touching state.
	if order.Session.PaymentID != notif.PaymentID {
		observability.RecordNotification(notif.Result, "rejected")
		s.logger.Warn("notification payment id mismatch",
			ports.String("track_id", notif.TrackID),
			ports.String("notified_payment_id", notif.PaymentID))
		return nil, domain.ErrPaymentIDMismatch
	}

	if order.Status.IsTerminal() {
		observability.RecordNotification(notif.Result, "duplicate")
		s.logger.Info("duplicate notification, returning stored acknowledgement",
			ports.String("track_id", notif.TrackID),
			ports.String("payment_id", notif.PaymentID),
			ports.String("status", string(order.Status)))
		return s.ackForTerminal(notif.PaymentID, order)
	}

	info := ipg.ClassifyResult(notif.Result)
	result := models.ResultDeclined
	if info.IsCaptured {
		result = models.ResultCaptured
	}
	diag := models.PaymentDiagnostics{
		Result:         notif.Result,
		ResponseCode:   notif.ResponseCode,
		AuthCode:       notif.AuthCode,
		CardBrand:      notif.CardType,
		CardLastFour:   notif.CardLastFour,
		TransactionRef: notif.TransactionRef,
	}

	ack, err := s.buildAck(notif.PaymentID, order)
	if err != nil {
		return nil, err
	}

	applied, err := s.store.ApplyResult(ctx, order.ID, result, diag, ack)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "apply notification result", err)
	}
	if !applied {
		// A concurrent delivery won the transition; answer with the
		// acknowledgement it stored.
		observability.RecordNotification(notif.Result, "duplicate")
		stored, err := s.store.GetByID(ctx, order.ID)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "reload order", err)
		}
		return s.ackForTerminal(notif.PaymentID, stored)
	}

	observability.RecordNotification(notif.Result, "applied")
	s.logger.Info("notification applied",
		ports.String("track_id", notif.TrackID),
		ports.String("payment_id", notif.PaymentID),
		ports.String("result", notif.Result),
		ports.String("status", string(result)))

	s.publishEvent(ctx, order, result, notif)

	return ack, nil
}

// ackForTerminal answers a notification for an already-settled order. The
// expiry sweep cancels orders without storing an acknowledgement, and the
// gateway treats an empty response body as a delivery failure and retries
// forever; in that case a fresh ack is built. buildAck is deterministic for
// a given order, so redeliveries still get identical bytes.
func (s *Service) ackForTerminal(paymentID string, order *models.Order) ([]byte, error) {
	if len(order.Ack) > 0 {
		return order.Ack, nil
	}
	return s.buildAck(paymentID, order)
}

// buildAck constructs and signs the PaymentNotificationResponse. The
// browser redirection URL always points back at the storefront's response
// URL with the order reference attached, for both captures and declines;
// the storefront renders the outcome from order state, not from the URL.
func (s *Service) buildAck(paymentID string, order *models.Order) ([]byte, error) {
	redirect, err := appendTrackingParams(order.Session.ResponseURL, order.Session.TrackID, paymentID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "build redirection URL", err)
	}

	ack := &ipg.PaymentNotificationResponse{
		MsgName:               ipg.MsgPaymentNotificationResponse,
		Version:               ipg.ProtocolVersion,
		PaymentID:             paymentID,
		BrowserRedirectionURL: redirect,
	}
	ack.MsgVerifier = s.gateway.Signer().Sign(ack)

	body, err := json.Marshal(ack)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "marshal acknowledgement", err)
	}
	return body, nil
}

func (s *Service) publishEvent(ctx context.Context, order *models.Order, result models.OrderResult, notif ipg.PaymentNotificationRequest) {
	if s.publisher == nil {
		return
	}
	event := ports.PaymentEvent{
		TrackID:      order.Session.TrackID,
		PaymentID:    notif.PaymentID,
		Result:       string(result),
		ResponseCode: notif.ResponseCode,
		OccurredAt:   s.clock.Now().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, "payment."+string(result), event); err != nil {
		// Best effort only; the gateway acknowledgement must not depend on
		// the broker being up.
		s.logger.Warn("payment event publish failed",
			ports.String("track_id", order.Session.TrackID),
			ports.Err(err))
	}
}

func appendTrackingParams(rawURL, trackID, paymentID string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("trackid", trackID)
	q.Set("PaymentID", paymentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

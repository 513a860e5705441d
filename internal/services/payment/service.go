package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
	"github.com/commercegate/ipg-service/internal/ipg"
	"github.com/commercegate/ipg-service/pkg/observability"
)

// Gateway is the outbound surface of the gateway client the service needs.
type Gateway interface {
	Init(ctx context.Context, req *ipg.PaymentInitRequest) (*ipg.PaymentInitResponse, error)
	Refund(ctx context.Context, paymentID, trackID, amount, currencyCode string) (*ipg.FinancialResponse, error)
	Query(ctx context.Context, paymentID string) (*ipg.PaymentQueryResponse, error)
	Signer() *ipg.Signer
}

// Options carries the presentation and policy knobs for the service.
type Options struct {
	DefaultLanguage string
	ThreeDSEnabled  bool
	// StaleAfter is how long an order may wait for a gateway result before
	// the expiry sweep cancels it.
	StaleAfter time.Duration
}

// Service implements payment initiation, notification processing, and
// browser-return reconciliation against one gateway terminal.
type Service struct {
	store     ports.OrderStore
	gateway   Gateway
	threeDS   *ipg.ThreeDSBuilder
	publisher ports.EventPublisher
	clock     ports.Clock
	logger    ports.Logger
	opts      Options
}

// NewService creates a payment service. publisher may be nil when event
// publishing is disabled.
func NewService(
	store ports.OrderStore,
	gateway Gateway,
	threeDS *ipg.ThreeDSBuilder,
	publisher ports.EventPublisher,
	clock ports.Clock,
	logger ports.Logger,
	opts Options,
) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		threeDS:   threeDS,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		opts:      opts,
	}
}

// InitiateRequest is the checkout-side input for opening a payment.
type InitiateRequest struct {
	TrackID     string
	Amount      decimal.Decimal
	Currency    string
	Language    string
	ResponseURL string
	ErrorURL    string
	BuyerEmail  string
	BuyerPhone  string
	// History is nil for guest checkout.
	History *models.BuyerHistory
}

// InitiateResult is returned to the checkout caller, which must redirect
// the shopper to RedirectURL.
type InitiateResult struct {
	OrderID     string
	PaymentID   string
	RedirectURL string
}

// Initiate validates the order, opens a hosted payment page session, and
// persists the assigned payment id with the order in AwaitingGatewayResult
// before returning. That write happens before the browser redirect, so an
// unusually fast notification still finds the payment id in place.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	trackID, err := ipg.FormatTrackID(req.TrackID)
	if err != nil {
		observability.RecordInitiation("validation_failed")
		return nil, err
	}
	amount, err := ipg.FormatDecimalAmount(req.Amount)
	if err != nil {
		observability.RecordInitiation("validation_failed")
		return nil, err
	}
	currency, err := ipg.CurrencyCode(req.Currency)
	if err != nil {
		observability.RecordInitiation("validation_failed")
		return nil, err
	}
	if req.ResponseURL == "" {
		observability.RecordInitiation("validation_failed")
		return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "responseURL is required")
	}
	if req.ErrorURL == "" {
		observability.RecordInitiation("validation_failed")
		return nil, domain.NewDomainError(domain.ErrorCodeMissingField, "errorURL is required")
	}
	language := ipg.ValidateLanguageCode(req.Language, s.opts.DefaultLanguage)

	now := s.clock.Now()
	order := &models.Order{
		ID: uuid.New().String(),
		Session: models.PaymentSession{
			TrackID:      trackID,
			Amount:       req.Amount,
			CurrencyCode: currency,
			Language:     language,
			ResponseURL:  req.ResponseURL,
			ErrorURL:     req.ErrorURL,
			CreatedAt:    now,
		},
		Status:    models.ResultPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, order); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create order", err)
	}

	initReq := &ipg.PaymentInitRequest{
		CurrencyCode: currency,
		Amount:       amount,
		TrackID:      trackID,
		ResponseURL:  req.ResponseURL,
		ErrorURL:     req.ErrorURL,
		Language:     language,
		BuyerEmail:   req.BuyerEmail,
		BuyerPhone:   ipg.FormatPhone(req.BuyerPhone),
	}
	if s.opts.ThreeDSEnabled {
		threeDS := s.threeDS.Build(req.History)
		initReq.ThreeDS = ipg.NewThreeDSFields(threeDS)
	}

	resp, err := s.gateway.Init(ctx, initReq)
	if err != nil {
		return nil, s.failInitiate(ctx, order, err)
	}

	redirectURL, err := appendPaymentID(resp.BrowserRedirectionURL, resp.PaymentID)
	if err != nil {
		return nil, s.failInitiate(ctx, order,
			domain.WrapError(domain.ErrorCodeInvalidResponse, "gateway redirect URL unusable", err))
	}

	if err := s.store.AttachPaymentID(ctx, order.ID, resp.PaymentID); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "attach payment id", err)
	}

	s.logger.Info("payment initiated",
		ports.String("track_id", trackID),
		ports.String("payment_id", resp.PaymentID))
	observability.RecordInitiation("redirected")

	return &InitiateResult{
		OrderID:     order.ID,
		PaymentID:   resp.PaymentID,
		RedirectURL: redirectURL,
	}, nil
}

// failInitiate maps a gateway failure to order state. Unreachable is
// transient: the payment may have succeeded on the gateway side, so the
// order is left as-is for the caller to retry or query. A rejection is
// final and recorded as Errored with the gateway's diagnostics.
func (s *Service) failInitiate(ctx context.Context, order *models.Order, cause error) error {
	if domain.IsRetryable(cause) {
		observability.RecordInitiation("unreachable")
		s.logger.Warn("gateway unreachable during init, order left pending",
			ports.String("track_id", order.Session.TrackID),
			ports.Err(cause))
		return cause
	}

	observability.RecordInitiation("rejected")
	diag := models.PaymentDiagnostics{Result: "INIT_" + string(domain.GetErrorCode(cause))}
	var derr *domain.DomainError
	if errors.As(cause, &derr) {
		if code, ok := derr.Details["errorCode"].(string); ok {
			diag.ResponseCode = code
		}
	}
	if _, err := s.store.ApplyResult(ctx, order.ID, models.ResultErrored, diag, nil); err != nil {
		s.logger.Error("failed to record init rejection",
			ports.String("track_id", order.Session.TrackID),
			ports.Err(err))
	}
	s.logger.Warn("payment init rejected by gateway",
		ports.String("track_id", order.Session.TrackID),
		ports.Err(cause))
	return cause
}

// Refund sends a refund for a captured order. Synchronous, not retried.
func (s *Service) Refund(ctx context.Context, trackID string, amount decimal.Decimal) (*ipg.FinancialResponse, error) {
	order, err := s.store.GetByTrackID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.ResultCaptured {
		return nil, domain.ErrOrderInvalidState
	}
	wireAmount, err := ipg.FormatDecimalAmount(amount)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(order.Session.Amount) {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidAmount, "refund exceeds captured amount")
	}
	return s.gateway.Refund(ctx, order.Session.PaymentID, trackID, wireAmount, order.Session.CurrencyCode)
}

// QueryStatus looks up the gateway's status history for an order, used
// when the init call timed out or a notification never arrived.
func (s *Service) QueryStatus(ctx context.Context, trackID string) (*ipg.PaymentQueryResponse, error) {
	order, err := s.store.GetByTrackID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if order.Session.PaymentID == "" {
		return nil, domain.ErrOrderInvalidState
	}
	return s.gateway.Query(ctx, order.Session.PaymentID)
}

func appendPaymentID(rawURL, paymentID string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	q := u.Query()
	q.Set("PaymentID", paymentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

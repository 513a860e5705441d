package payment

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/models"
	paymentsvc "github.com/commercegate/ipg-service/internal/services/payment"
)

// CheckoutHandler exposes payment initiation to the storefront.
// Endpoint: POST /api/v1/payments/initiate
type CheckoutHandler struct {
	svc    *paymentsvc.Service
	logger *zap.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(svc *paymentsvc.Service, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, logger: logger}
}

type buyerHistoryBody struct {
	RegisteredAt            time.Time `json:"registered_at"`
	ProfileChangedAt        time.Time `json:"profile_changed_at"`
	PasswordChangedAt       time.Time `json:"password_changed_at"`
	ShippingAddressFirstUse time.Time `json:"shipping_address_first_use"`
	OrdersLast24h           int       `json:"orders_last_24h"`
	OrdersLastYear          int       `json:"orders_last_year"`
	OrdersLastSixMonths     int       `json:"orders_last_six_months"`
	SuspiciousActivity      bool      `json:"suspicious_activity"`
}

type initiateBody struct {
	TrackID     string            `json:"track_id"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	Language    string            `json:"language"`
	ResponseURL string            `json:"response_url"`
	ErrorURL    string            `json:"error_url"`
	BuyerEmail  string            `json:"buyer_email"`
	BuyerPhone  string            `json:"buyer_phone"`
	History     *buyerHistoryBody `json:"buyer_history"`
}

type initiateResponse struct {
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body initiateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrorCodeInvalidAmount, "amount is not numeric", err))
		return
	}

	req := paymentsvc.InitiateRequest{
		TrackID:     body.TrackID,
		Amount:      amount,
		Currency:    body.Currency,
		Language:    body.Language,
		ResponseURL: body.ResponseURL,
		ErrorURL:    body.ErrorURL,
		BuyerEmail:  body.BuyerEmail,
		BuyerPhone:  body.BuyerPhone,
	}
	if body.History != nil {
		req.History = &models.BuyerHistory{
			RegisteredAt:            body.History.RegisteredAt,
			ProfileChangedAt:        body.History.ProfileChangedAt,
			PasswordChangedAt:       body.History.PasswordChangedAt,
			ShippingAddressFirstUse: body.History.ShippingAddressFirstUse,
			OrdersLast24h:           body.History.OrdersLast24h,
			OrdersLastYear:          body.History.OrdersLastYear,
			OrdersLastSixMonths:     body.History.OrdersLastSixMonths,
			SuspiciousActivity:      body.History.SuspiciousActivity,
		}
	}

	result, err := h.svc.Initiate(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, initiateResponse{
		OrderID:     result.OrderID,
		PaymentID:   result.PaymentID,
		RedirectURL: result.RedirectURL,
	})
}

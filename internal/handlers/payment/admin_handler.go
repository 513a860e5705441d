package payment

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/domain"
	paymentsvc "github.com/commercegate/ipg-service/internal/services/payment"
)

// AdminHandler exposes operator actions: refunds and on-demand status
// queries against the gateway.
type AdminHandler struct {
	svc    *paymentsvc.Service
	logger *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc *paymentsvc.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type refundBody struct {
	TrackID string `json:"track_id"`
	Amount  string `json:"amount"`
}

// Refund submits a refund for a captured order.
// Endpoint: POST /api/v1/payments/refund
func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body refundBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, h.logger, domain.WrapError(domain.ErrorCodeInvalidAmount, "amount is not numeric", err))
		return
	}

	resp, err := h.svc.Refund(r.Context(), body.TrackID, amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Status queries the gateway for an order's payment status history.
// Endpoint: GET /api/v1/payments/status?trackid=ORD-100
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trackID := r.URL.Query().Get("trackid")
	if trackID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "trackid parameter is required"})
		return
	}

	resp, err := h.svc.QueryStatus(r.Context(), trackID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

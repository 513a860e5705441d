package payment

import (
	"net/http"

	"go.uber.org/zap"

	paymentsvc "github.com/commercegate/ipg-service/internal/services/payment"
)

// ReturnHandler serves the shopper's browser coming back from the hosted
// payment page. It only reads order state: completion happens exclusively
// on the notification path.
// Endpoint: GET /ipg/return?trackid=ORD-100
type ReturnHandler struct {
	svc    *paymentsvc.Service
	logger *zap.Logger
}

// NewReturnHandler creates a new browser-return handler
func NewReturnHandler(svc *paymentsvc.Service, logger *zap.Logger) *ReturnHandler {
	return &ReturnHandler{svc: svc, logger: logger}
}

type returnResponse struct {
	TrackID    string `json:"track_id"`
	Status     string `json:"status"`
	Processing bool   `json:"processing"`
	Message    string `json:"message"`
}

func (h *ReturnHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trackID := r.URL.Query().Get("trackid")
	if trackID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "trackid parameter is required"})
		return
	}

	outcome, err := h.svc.ResolveReturn(r.Context(), trackID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, returnResponse{
		TrackID:    trackID,
		Status:     string(outcome.Status),
		Processing: outcome.Processing,
		Message:    outcome.UserMessage,
	})
}

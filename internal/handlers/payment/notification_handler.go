package payment

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/domain"
	paymentsvc "github.com/commercegate/ipg-service/internal/services/payment"
)

// NotificationHandler receives the gateway's server-to-server payment
// result POST. The gateway treats this HTTP response as authoritative and
// retries until it gets one, so every path out of here writes a
// well-formed JSON body, including panics.
// Endpoint: POST /ipg/notification
type NotificationHandler struct {
	svc    *paymentsvc.Service
	logger *zap.Logger
}

// NewNotificationHandler creates a new notification webhook handler
func NewNotificationHandler(svc *paymentsvc.Service, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

func (h *NotificationHandler) Handle(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("panic handling gateway notification", zap.Any("panic", p))
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		}
	}()

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable request body"})
		return
	}

	ack, err := h.svc.HandleNotification(r.Context(), body)
	if err != nil {
		if domain.GetErrorCode(err) == domain.ErrorCodeInvalidResponse {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed notification"})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ack)
}

package payment

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/domain"
)

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error to an HTTP response. Security-relevant
// failures (bad verifier, payment id mismatch) get a generic body: the
// full context is logged server-side, never echoed to the caller.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if domain.IsSecurityError(err) {
		logger.Warn("request rejected", zap.Error(err))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "request could not be authenticated"})
		return
	}

	code := domain.GetErrorCode(err)
	switch code {
	case domain.ErrorCodeInvalidAmount, domain.ErrorCodeUnsupportedCurrency, domain.ErrorCodeMissingField:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: string(code)})
	case domain.ErrorCodeOrderNotFound:
		writeJSON(w, http.StatusNotFound, errorBody{Error: "order not found", Code: string(code)})
	case domain.ErrorCodeOrderInvalidState:
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: string(code)})
	case domain.ErrorCodeGatewayUnreachable:
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:     "payment gateway is unreachable, try again",
			Code:      string(code),
			Retryable: true,
		})
	case domain.ErrorCodeGatewayRejected, domain.ErrorCodeInvalidResponse:
		logger.Error("gateway failure", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Code: string(code)})
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

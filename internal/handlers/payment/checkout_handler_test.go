package payment

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/domain"
)

func postInitiate(handler *CheckoutHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Initiate(rec, req)
	return rec
}

func TestCheckoutHandler_Initiate(t *testing.T) {
	svc, _ := newHandlerService(t)
	handler := NewCheckoutHandler(svc, zap.NewNop())

	rec := postInitiate(handler, `{
		"track_id": "ORD-100",
		"amount": "49.99",
		"currency": "EUR",
		"response_url": "https://shop.example/return",
		"error_url": "https://shop.example/error"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment_id":"PAY-8821"`)
	assert.Contains(t, rec.Body.String(), `"redirect_url":"https://ipg.example/hpp/PAY-8821?PaymentID=PAY-8821"`)
}

func TestCheckoutHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   domain.ErrorCode
	}{
		{
			"non-numeric amount",
			`{"track_id":"ORD-100","amount":"abc","currency":"EUR","response_url":"https://s/r","error_url":"https://s/e"}`,
			http.StatusBadRequest,
			domain.ErrorCodeInvalidAmount,
		},
		{
			"unsupported currency",
			`{"track_id":"ORD-100","amount":"49.99","currency":"XXX","response_url":"https://s/r","error_url":"https://s/e"}`,
			http.StatusBadRequest,
			domain.ErrorCodeUnsupportedCurrency,
		},
		{
			"missing track id",
			`{"amount":"49.99","currency":"EUR","response_url":"https://s/r","error_url":"https://s/e"}`,
			http.StatusBadRequest,
			domain.ErrorCodeMissingField,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newHandlerService(t)
			handler := NewCheckoutHandler(svc, zap.NewNop())

			rec := postInitiate(handler, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), string(tt.wantCode))
		})
	}
}

func TestCheckoutHandler_InvalidJSON(t *testing.T) {
	svc, _ := newHandlerService(t)
	handler := NewCheckoutHandler(svc, zap.NewNop())

	rec := postInitiate(handler, `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReturnHandler_ProcessingBeforeNotification(t *testing.T) {
	svc, _ := newHandlerService(t)
	initiateTestOrder(t, svc)
	handler := NewReturnHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ipg/return?trackid=ORD-100", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processing":true`)
	assert.Contains(t, rec.Body.String(), `"status":"awaiting_gateway_result"`)
}

func TestReturnHandler_MissingTrackID(t *testing.T) {
	svc, _ := newHandlerService(t)
	handler := NewReturnHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ipg/return", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReturnHandler_UnknownOrder(t *testing.T) {
	svc, _ := newHandlerService(t)
	handler := NewReturnHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ipg/return?trackid=ORD-404", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

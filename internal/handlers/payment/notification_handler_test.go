package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commercegate/ipg-service/internal/adapters/memory"
	"github.com/commercegate/ipg-service/internal/domain/ports"
	"github.com/commercegate/ipg-service/internal/ipg"
	paymentsvc "github.com/commercegate/ipg-service/internal/services/payment"
	"github.com/commercegate/ipg-service/test/mocks"
)

const handlerTestSecret = "secret-key-1"

// stubGateway always opens the same hosted page session.
type stubGateway struct {
	signer *ipg.Signer
}

func (g *stubGateway) Init(_ context.Context, _ *ipg.PaymentInitRequest) (*ipg.PaymentInitResponse, error) {
	return &ipg.PaymentInitResponse{
		Type:                  ipg.ResponseTypeValid,
		PaymentID:             "PAY-8821",
		BrowserRedirectionURL: "https://ipg.example/hpp/PAY-8821",
	}, nil
}

func (g *stubGateway) Refund(_ context.Context, paymentID, _, _, _ string) (*ipg.FinancialResponse, error) {
	return &ipg.FinancialResponse{Type: ipg.ResponseTypeValid, PaymentID: paymentID, Result: "CAPTURED"}, nil
}

func (g *stubGateway) Query(_ context.Context, paymentID string) (*ipg.PaymentQueryResponse, error) {
	return &ipg.PaymentQueryResponse{Type: ipg.ResponseTypeValid, PaymentID: paymentID}, nil
}

func (g *stubGateway) Signer() *ipg.Signer { return g.signer }

func newHandlerService(t *testing.T) (*paymentsvc.Service, *ipg.Signer) {
	t.Helper()
	signer := ipg.NewSigner(handlerTestSecret)
	clock := ports.ClockFunc(func() time.Time { return time.Now().UTC() })
	svc := paymentsvc.NewService(
		memory.NewOrderStore(clock),
		&stubGateway{signer: signer},
		ipg.NewThreeDSBuilder(clock),
		nil,
		clock,
		mocks.NewMockLogger(),
		paymentsvc.Options{DefaultLanguage: "en", StaleAfter: 30 * time.Minute},
	)
	return svc, signer
}

func initiateTestOrder(t *testing.T, svc *paymentsvc.Service) {
	t.Helper()
	_, err := svc.Initiate(context.Background(), paymentsvc.InitiateRequest{
		TrackID:     "ORD-100",
		Amount:      decimal.RequireFromString("49.99"),
		Currency:    "EUR",
		ResponseURL: "https://shop.example/return",
		ErrorURL:    "https://shop.example/error",
	})
	require.NoError(t, err)
}

func postNotification(handler *NotificationHandler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ipg/notification", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)
	return rec
}

func buildNotification(t *testing.T, signer *ipg.Signer, result string) []byte {
	t.Helper()
	notif := ipg.PaymentNotificationRequest{
		MsgName:   ipg.MsgPaymentNotificationRequest,
		Version:   ipg.ProtocolVersion,
		TrackID:   "ORD-100",
		PaymentID: "PAY-8821",
		Result:    result,
		AuthCode:  "999000",
	}
	notif.MsgVerifier = signer.Sign(&notif)
	raw, err := json.Marshal(notif)
	require.NoError(t, err)
	return raw
}

func TestNotificationHandler_WritesSignedAck(t *testing.T) {
	svc, signer := newHandlerService(t)
	initiateTestOrder(t, svc)
	handler := NewNotificationHandler(svc, zap.NewNop())

	rec := postNotification(handler, buildNotification(t, signer, "CAPTURED"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var ack ipg.PaymentNotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "PAY-8821", ack.PaymentID)
	assert.NoError(t, signer.Verify(&ack, ack.MsgVerifier))
}

func TestNotificationHandler_DuplicateGetsIdenticalBody(t *testing.T) {
	svc, signer := newHandlerService(t)
	initiateTestOrder(t, svc)
	handler := NewNotificationHandler(svc, zap.NewNop())

	first := postNotification(handler, buildNotification(t, signer, "CAPTURED"))
	second := postNotification(handler, buildNotification(t, signer, "CAPTURED"))

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

// A bad verifier gets a generic 401 with no hint about what failed.
func TestNotificationHandler_BadVerifier(t *testing.T) {
	svc, _ := newHandlerService(t)
	initiateTestOrder(t, svc)
	handler := NewNotificationHandler(svc, zap.NewNop())

	forged := ipg.PaymentNotificationRequest{
		MsgName:     ipg.MsgPaymentNotificationRequest,
		Version:     ipg.ProtocolVersion,
		TrackID:     "ORD-100",
		PaymentID:   "PAY-8821",
		Result:      "CAPTURED",
		MsgVerifier: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
	}
	raw, err := json.Marshal(forged)
	require.NoError(t, err)

	rec := postNotification(handler, raw)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "request could not be authenticated", body.Error)
	assert.Empty(t, body.Code)
}

func TestNotificationHandler_MalformedBody(t *testing.T) {
	svc, _ := newHandlerService(t)
	handler := NewNotificationHandler(svc, zap.NewNop())

	rec := postNotification(handler, []byte(`not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationHandler_MethodNotAllowed(t *testing.T) {
	svc, _ := newHandlerService(t)
	handler := NewNotificationHandler(svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ipg/notification", nil)
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

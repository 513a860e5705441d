package ipg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/commercegate/ipg-service/internal/domain/ports"
	"github.com/commercegate/ipg-service/pkg/observability"
)

// Credentials identify the merchant terminal at the gateway.
type Credentials struct {
	TerminalID string // tranportal id
	Password   string // tranportal password
	Secret     string // terminal resource key used for message verifiers
}

// Client talks to the gateway over HTTPS. Outbound calls are synchronous
// and bounded by the HTTP client's timeout; this layer never retries,
// since a blind retry of a non-idempotent action risks a duplicate charge.
type Client struct {
	creds      Credentials
	baseURL    string
	signer     *Signer
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewClient creates a gateway client with dependency injection.
func NewClient(creds Credentials, baseURL string, httpClient ports.HTTPClient, logger ports.Logger) *Client {
	return &Client{
		creds:      creds,
		baseURL:    baseURL,
		signer:     NewSigner(creds.Secret),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Signer exposes the client's signer for building notification responses
// with the same terminal secret.
func (c *Client) Signer() *Signer {
	return c.signer
}

// Init opens a hosted payment page session. The request arrives with the
// order fields set; the client stamps identity, protocol constants, and
// the verifier.
func (c *Client) Init(ctx context.Context, req *PaymentInitRequest) (*PaymentInitResponse, error) {
	req.MsgName = MsgPaymentInitRequest
	req.Version = ProtocolVersion
	req.TerminalID = c.creds.TerminalID
	req.Password = c.creds.Password
	req.Action = ActionPurchase
	req.NotificationFormat = NotificationFormatJSON
	req.PaymentInstrument = PaymentInstrumentCard
	req.MsgVerifier = c.signer.Sign(req)

	var resp PaymentInitResponse
	if err := c.post(ctx, "/payment/init", req, &resp); err != nil {
		return nil, err
	}

	if resp.Type != ResponseTypeValid {
		return nil, domain.NewDomainError(domain.ErrorCodeGatewayRejected, "payment init rejected").
			WithDetail("errorCode", resp.ErrorCode).
			WithDetail("errorDesc", resp.ErrorDesc)
	}
	if err := c.signer.Verify(&resp, resp.MsgVerifier); err != nil {
		return nil, err
	}
	if resp.PaymentID == "" || resp.BrowserRedirectionURL == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeInvalidResponse, "init response missing paymentid or redirect URL")
	}

	return &resp, nil
}

// Refund submits a refund against a captured payment. Declines come back
// as a normal FinancialResponse, not an error; errors mean the request
// itself failed.
func (c *Client) Refund(ctx context.Context, paymentID, trackID, amount, currencyCode string) (*FinancialResponse, error) {
	req := &FinancialRequest{
		MsgName:      MsgFinancialRequest,
		Version:      ProtocolVersion,
		TerminalID:   c.creds.TerminalID,
		Password:     c.creds.Password,
		Action:       ActionRefund,
		CurrencyCode: currencyCode,
		Amount:       amount,
		PaymentID:    paymentID,
		TrackID:      trackID,
	}
	req.MsgVerifier = c.signer.Sign(req)

	var resp FinancialResponse
	if err := c.post(ctx, "/payment/tran", req, &resp); err != nil {
		return nil, err
	}

	if resp.Type != ResponseTypeValid {
		return nil, domain.NewDomainError(domain.ErrorCodeGatewayRejected, "refund rejected").
			WithDetail("errorCode", resp.ErrorCode).
			WithDetail("errorDesc", resp.ErrorDesc)
	}
	if err := c.signer.Verify(&resp, resp.MsgVerifier); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Query fetches the status history for a payment. This is the correct
// follow-up when an init or notification outcome is unknown.
func (c *Client) Query(ctx context.Context, paymentID string) (*PaymentQueryResponse, error) {
	req := &PaymentQueryRequest{
		MsgName:    MsgPaymentQueryRequest,
		Version:    ProtocolVersion,
		TerminalID: c.creds.TerminalID,
		Password:   c.creds.Password,
		PaymentID:  paymentID,
	}
	req.MsgVerifier = c.signer.Sign(req)

	var resp PaymentQueryResponse
	if err := c.post(ctx, "/payment/inquiry", req, &resp); err != nil {
		return nil, err
	}

	if resp.Type != ResponseTypeValid {
		return nil, domain.NewDomainError(domain.ErrorCodeGatewayRejected, "payment query rejected").
			WithDetail("errorCode", resp.ErrorCode).
			WithDetail("errorDesc", resp.ErrorDesc)
	}
	if err := c.signer.Verify(&resp, resp.MsgVerifier); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	start := time.Now()

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.ObserveGatewayRequest(path, "unreachable", time.Since(start))
		c.logger.Warn("gateway request failed",
			ports.String("path", path),
			ports.Err(err))
		return domain.WrapError(domain.ErrorCodeGatewayUnreachable, "gateway request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		observability.ObserveGatewayRequest(path, "unreachable", time.Since(start))
		return domain.WrapError(domain.ErrorCodeGatewayUnreachable, "read gateway response", err)
	}

	if httpResp.StatusCode >= 500 {
		observability.ObserveGatewayRequest(path, "server_error", time.Since(start))
		return domain.NewDomainError(domain.ErrorCodeGatewayUnreachable, "gateway server error").
			WithDetail("status", httpResp.StatusCode)
	}
	if httpResp.StatusCode >= 400 {
		observability.ObserveGatewayRequest(path, "rejected", time.Since(start))
		return domain.NewDomainError(domain.ErrorCodeGatewayRejected, "gateway rejected request").
			WithDetail("status", httpResp.StatusCode)
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		observability.ObserveGatewayRequest(path, "invalid_response", time.Since(start))
		return domain.WrapError(domain.ErrorCodeInvalidResponse, "unmarshal gateway response", err)
	}

	observability.ObserveGatewayRequest(path, "ok", time.Since(start))
	return nil
}

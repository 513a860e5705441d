package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderResult represents the current state of an order's payment
type OrderResult string

const (
	ResultPending               OrderResult = "pending"
	ResultAwaitingGatewayResult OrderResult = "awaiting_gateway_result"
	ResultCaptured              OrderResult = "captured"
	ResultDeclined              OrderResult = "declined"
	ResultCancelled             OrderResult = "cancelled"
	ResultErrored               OrderResult = "errored"
)

// IsTerminal reports whether the result can never change again.
// An order transitions at most once from AwaitingGatewayResult into a
// terminal result; later notifications for the same payment are no-ops.
func (r OrderResult) IsTerminal() bool {
	switch r {
	case ResultCaptured, ResultDeclined, ResultCancelled, ResultErrored:
		return true
	}
	return false
}

// PaymentSession holds the gateway-facing identifiers and parameters for
// one checkout attempt. TrackID is the merchant order identifier and is
// immutable; PaymentID is assigned by the gateway on the init response and
// set exactly once.
type PaymentSession struct {
	TrackID      string
	PaymentID    string
	Amount       decimal.Decimal
	CurrencyCode string
	Language     string
	ResponseURL  string
	ErrorURL     string
	CreatedAt    time.Time
}

// PaymentDiagnostics records the gateway's result details for support and
// reconciliation. Card fields carry brand and last four digits only; full
// card data never reaches this system.
type PaymentDiagnostics struct {
	Result         string
	ResponseCode   string
	AuthCode       string
	CardBrand      string
	CardLastFour   string
	TransactionRef string
}

// Order is the aggregate the payment protocol operates on. The session is
// owned one-to-one by the order; Ack stores the signed acknowledgement
// returned for the first terminal notification so that redeliveries yield a
// byte-identical response.
type Order struct {
	ID          string
	Session     PaymentSession
	Status      OrderResult
	Diagnostics PaymentDiagnostics
	Ack         []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

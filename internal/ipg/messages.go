package ipg

import (
	"strconv"

	"github.com/commercegate/ipg-service/internal/domain/models"
)

// Protocol constants shared by every message.
const (
	ProtocolVersion = "2.0"

	// ActionPurchase is the only transaction action this integration sends
	// on init; there is no recurring-payment path.
	ActionPurchase = "1"
	ActionRefund   = "2"

	ResponseTypeValid = "valid"

	NotificationFormatJSON = "JSON"
	PaymentInstrumentCard  = "CARD"
)

// Message names.
const (
	MsgPaymentInitRequest          = "PaymentInitRequest"
	MsgPaymentInitResponse         = "PaymentInitResponse"
	MsgPaymentNotificationRequest  = "PaymentNotificationRequest"
	MsgPaymentNotificationResponse = "PaymentNotificationResponse"
	MsgFinancialRequest            = "FinancialRequest"
	MsgFinancialResponse           = "FinancialResponse"
	MsgPaymentQueryRequest         = "PaymentQueryRequest"
	MsgPaymentQueryResponse        = "PaymentQueryResponse"
)

// VerifiableMessage is any gateway message carrying a verifier. The
// returned slice is the exact ordered field list defined for the message
// type; empty optional fields stay in the list as empty strings because
// dropping them changes the digest.
type VerifiableMessage interface {
	VerifierFields(secret string) []string
}

// ThreeDSFields is the wire form of the 3-D Secure risk sub-object.
type ThreeDSFields struct {
	AccountAgeIndicator       string `json:"chAccAgeInd,omitempty"`
	AccountChangeIndicator    string `json:"chAccChangeInd,omitempty"`
	PasswordChangeIndicator   string `json:"chAccPwChangeInd,omitempty"`
	TxnActivityDay            string `json:"txnActivityDay,omitempty"`
	TxnActivityYear           string `json:"txnActivityYear,omitempty"`
	PurchasesSixMonths        string `json:"nbPurchaseAccount,omitempty"`
	ShippingAddressUsage      string `json:"shipAddressUsageInd,omitempty"`
	SuspiciousActivity        string `json:"suspiciousAccActivity,omitempty"`
	AuthenticationMethod      string `json:"chAuthMethod,omitempty"`
	PriorAuthenticationMethod string `json:"chPriorAuthMethod,omitempty"`
}

// NewThreeDSFields converts a derived ThreeDSContext to wire form.
func NewThreeDSFields(ctx models.ThreeDSContext) *ThreeDSFields {
	suspicious := "01"
	if ctx.SuspiciousActivity {
		suspicious = "02"
	}
	return &ThreeDSFields{
		AccountAgeIndicator:       ctx.AccountAgeIndicator,
		AccountChangeIndicator:    ctx.AccountChangeIndicator,
		PasswordChangeIndicator:   ctx.PasswordChangeIndicator,
		TxnActivityDay:            itoa(ctx.TxnActivityDay),
		TxnActivityYear:           itoa(ctx.TxnActivityYear),
		PurchasesSixMonths:        itoa(ctx.PurchasesSixMonths),
		ShippingAddressUsage:      ctx.ShippingAddressUsage,
		SuspiciousActivity:        suspicious,
		AuthenticationMethod:      ctx.AuthenticationMethod,
		PriorAuthenticationMethod: ctx.PriorAuthenticationMethod,
	}
}

// PaymentInitRequest asks the gateway to open a hosted payment page
// session for one purchase.
type PaymentInitRequest struct {
	MsgName            string         `json:"msgName"`
	Version            string         `json:"version"`
	TerminalID         string         `json:"id"`
	Password           string         `json:"password"`
	Action             string         `json:"action"`
	CurrencyCode       string         `json:"currencycode"`
	Amount             string         `json:"amt"`
	TrackID            string         `json:"trackid"`
	ResponseURL        string         `json:"responseURL"`
	ErrorURL           string         `json:"errorURL"`
	Language           string         `json:"langid"`
	NotificationFormat string         `json:"notificationFormat"`
	PaymentInstrument  string         `json:"payinst"`
	UDF1               string         `json:"udf1,omitempty"`
	UDF2               string         `json:"udf2,omitempty"`
	UDF3               string         `json:"udf3,omitempty"`
	UDF4               string         `json:"udf4,omitempty"`
	UDF5               string         `json:"udf5,omitempty"`
	BuyerEmail         string         `json:"buyerEmail,omitempty"`
	BuyerPhone         string         `json:"buyerPhone,omitempty"`
	ThreeDS            *ThreeDSFields `json:"threeDS,omitempty"`
	MsgVerifier        string         `json:"msgVerifier"`
}

func (m *PaymentInitRequest) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.TerminalID, m.Password, m.Amount, m.TrackID, m.UDF1, secret, m.UDF5}
}

// PaymentInitResponse carries the gateway's session handle. Type is
// "valid" on success; otherwise ErrorCode/ErrorDesc describe the
// rejection.
type PaymentInitResponse struct {
	MsgName               string `json:"msgName"`
	Version               string `json:"version"`
	Type                  string `json:"type"`
	PaymentID             string `json:"paymentid"`
	BrowserRedirectionURL string `json:"browserRedirectionURL"`
	ErrorCode             string `json:"errorCode,omitempty"`
	ErrorDesc             string `json:"errorDesc,omitempty"`
	MsgVerifier           string `json:"msgVerifier"`
}

func (m *PaymentInitResponse) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.PaymentID, secret}
}

// PaymentNotificationRequest is the gateway's server-to-server result
// delivery. It may arrive before or after the shopper's browser returns,
// and may be delivered more than once.
type PaymentNotificationRequest struct {
	MsgName           string `json:"msgName"`
	Version           string `json:"version"`
	TrackID           string `json:"trackid"`
	PaymentID         string `json:"paymentid"`
	Result            string `json:"result"`
	ResponseCode      string `json:"responsecode"`
	AuthCode          string `json:"auth"`
	CardType          string `json:"cardtype"`
	CardLastFour      string `json:"cardLastFourDigits"`
	TransactionRef    string `json:"ref"`
	ECI               string `json:"eci,omitempty"`
	AuthenticationRes string `json:"authRes,omitempty"`
	MsgVerifier       string `json:"msgVerifier"`
}

func (m *PaymentNotificationRequest) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.PaymentID, m.TrackID, m.Result, secret, m.AuthCode, m.TransactionRef}
}

// PaymentNotificationResponse is the HTTP response body to the gateway's
// notification POST. The gateway treats it as authoritative and uses
// BrowserRedirectionURL to send the shopper back to the storefront.
type PaymentNotificationResponse struct {
	MsgName               string `json:"msgName"`
	Version               string `json:"version"`
	PaymentID             string `json:"paymentID"`
	BrowserRedirectionURL string `json:"browserRedirectionURL"`
	MsgVerifier           string `json:"msgVerifier"`
}

func (m *PaymentNotificationResponse) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.PaymentID, secret, m.BrowserRedirectionURL}
}

// FinancialRequest performs a follow-up financial operation (refund) on a
// captured payment.
type FinancialRequest struct {
	MsgName      string `json:"msgName"`
	Version      string `json:"version"`
	TerminalID   string `json:"id"`
	Password     string `json:"password"`
	Action       string `json:"action"`
	CurrencyCode string `json:"currencycode"`
	Amount       string `json:"amt"`
	PaymentID    string `json:"paymentid"`
	TrackID      string `json:"trackid"`
	MsgVerifier  string `json:"msgVerifier"`
}

func (m *FinancialRequest) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.TerminalID, m.Password, m.Amount, m.PaymentID, secret}
}

// FinancialResponse reports the result of a financial operation.
type FinancialResponse struct {
	MsgName       string `json:"msgName"`
	Version       string `json:"version"`
	Type          string `json:"type"`
	PaymentID     string `json:"paymentid"`
	TransactionID string `json:"tranid"`
	Result        string `json:"result"`
	ResponseCode  string `json:"responsecode,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
	ErrorDesc     string `json:"errorDesc,omitempty"`
	MsgVerifier   string `json:"msgVerifier"`
}

func (m *FinancialResponse) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.PaymentID, m.Result, secret}
}

// PaymentQueryRequest looks up the current status of a payment by id. Used
// for reconciliation when the init call timed out or a notification never
// arrived.
type PaymentQueryRequest struct {
	MsgName     string `json:"msgName"`
	Version     string `json:"version"`
	TerminalID  string `json:"id"`
	Password    string `json:"password"`
	PaymentID   string `json:"paymentid"`
	MsgVerifier string `json:"msgVerifier"`
}

func (m *PaymentQueryRequest) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.TerminalID, m.Password, m.PaymentID, secret}
}

// PaymentStatusRow is one entry in a query response's status history.
type PaymentStatusRow struct {
	Status       string `json:"status"`
	Result       string `json:"result"`
	ResponseCode string `json:"responsecode,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// PaymentQueryResponse carries the status history plus optional 3DS and
// risk-score outcomes.
type PaymentQueryResponse struct {
	MsgName     string             `json:"msgName"`
	Version     string             `json:"version"`
	Type        string             `json:"type"`
	PaymentID   string             `json:"paymentid"`
	History     []PaymentStatusRow `json:"history"`
	ECI         string             `json:"eci,omitempty"`
	CAVV        string             `json:"cavv,omitempty"`
	XID         string             `json:"xid,omitempty"`
	Liability   string             `json:"liability,omitempty"`
	RiskScore   string             `json:"riskScore,omitempty"`
	ErrorCode   string             `json:"errorCode,omitempty"`
	ErrorDesc   string             `json:"errorDesc,omitempty"`
	MsgVerifier string             `json:"msgVerifier"`
}

func (m *PaymentQueryResponse) VerifierFields(secret string) []string {
	return []string{m.MsgName, m.Version, m.PaymentID, secret}
}

func itoa(n int) string {
	if n < 0 {
		n = 0
	}
	return strconv.Itoa(n)
}

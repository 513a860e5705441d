package models

import "time"

// 3-D Secure categorical indicator codes. Values follow the EMV 3DS field
// encodings the gateway expects; they are wire values, not display strings.
const (
	// Account age / change / password-change indicators
	IndicatorNoAccount      = "01"
	IndicatorDuringTxn      = "02"
	IndicatorLess30Days     = "03"
	IndicatorThirtyTo60Days = "04"
	IndicatorMore60Days     = "05"

	// Shipping address first-use indicators
	AddressUsageDuringTxn      = "01"
	AddressUsageLess30Days     = "02"
	AddressUsageThirtyTo60Days = "03"
	AddressUsageMore60Days     = "04"

	// Authentication method
	AuthMethodNone        = "01"
	AuthMethodOwnCreds    = "02"
	AuthMethodFederated   = "03"
	AuthMethodIssuerCreds = "04"
)

// ThreeDSContext is the risk/authentication sub-object folded into a signed
// PaymentInit request when 3-D Secure applies. It is derived read-only from
// buyer history at request-build time and never persisted on its own.
type ThreeDSContext struct {
	AccountAgeIndicator       string
	AccountChangeIndicator    string
	PasswordChangeIndicator   string
	TxnActivityDay            int
	TxnActivityYear           int
	PurchasesSixMonths        int
	ShippingAddressUsage      string
	SuspiciousActivity        bool
	AuthenticationMethod      string
	PriorAuthenticationMethod string
}

// BuyerHistory is the raw account history the storefront supplies for a
// known buyer. A nil BuyerHistory means guest checkout.
type BuyerHistory struct {
	RegisteredAt            time.Time
	ProfileChangedAt        time.Time
	PasswordChangedAt       time.Time
	ShippingAddressFirstUse time.Time
	OrdersLast24h           int
	OrdersLastYear          int
	OrdersLastSixMonths     int
	SuspiciousActivity      bool
	AuthenticationMethod    string
}

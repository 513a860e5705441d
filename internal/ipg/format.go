package ipg

import (
	"strings"

	"github.com/commercegate/ipg-service/internal/domain"
	"github.com/shopspring/decimal"
)

// maxAmount is the largest amount the gateway accepts on the wire.
var maxAmount = decimal.RequireFromString("9999999999.99")

// currencyCodes maps supported ISO-4217 alpha codes to the gateway's
// numeric codes. The set is closed: anything else is rejected rather than
// passed through, since the gateway ignores unknown codes silently.
var currencyCodes = map[string]string{
	"KWD": "414",
	"BHD": "048",
	"SAR": "682",
	"AED": "784",
	"QAR": "634",
	"OMR": "512",
	"JOD": "400",
	"EGP": "818",
	"USD": "840",
	"EUR": "978",
	"GBP": "826",
}

// languageCodes is the whitelist of presentation languages the hosted
// payment page supports.
var languageCodes = map[string]bool{
	"en":  true,
	"ar":  true,
	"fr":  true,
	"eng": true,
	"ara": true,
	"fra": true,
}

// FormatAmount normalizes an amount to the gateway's fixed two-decimal
// wire format. Amounts with more than two fractional digits are rejected,
// not rounded: silent rounding would charge a different amount than the
// storefront displayed.
func FormatAmount(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidAmount, "amount is empty")
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return "", domain.WrapError(domain.ErrorCodeInvalidAmount, "amount is not numeric", err)
	}

	return FormatDecimalAmount(amount)
}

// FormatDecimalAmount applies the same rules as FormatAmount to an amount
// already parsed by the caller.
func FormatDecimalAmount(amount decimal.Decimal) (string, error) {
	if amount.Exponent() < -2 {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidAmount, "amount has more than two fractional digits").
			WithDetail("amount", amount.String())
	}
	if amount.IsNegative() || amount.IsZero() {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidAmount, "amount must be positive").
			WithDetail("amount", amount.String())
	}
	if amount.GreaterThan(maxAmount) {
		return "", domain.NewDomainError(domain.ErrorCodeInvalidAmount, "amount exceeds gateway maximum").
			WithDetail("amount", amount.String())
	}
	return amount.StringFixed(2), nil
}

// CurrencyCode maps a supported ISO-4217 alpha code to the gateway's
// numeric code.
func CurrencyCode(isoAlpha string) (string, error) {
	numeric, ok := currencyCodes[strings.ToUpper(strings.TrimSpace(isoAlpha))]
	if !ok {
		return "", domain.NewDomainError(domain.ErrorCodeUnsupportedCurrency, "currency not supported by gateway").
			WithDetail("currency", isoAlpha)
	}
	return numeric, nil
}

// FormatPhone strips everything except digits and a single leading plus,
// truncated to 20 characters. The field is optional: empty input yields an
// empty string, not an error.
func FormatPhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range trimmed {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	phone := b.String()
	if len(phone) > 20 {
		phone = phone[:20]
	}
	return phone
}

// ValidateLanguageCode returns the given code if whitelisted, otherwise the
// configured default. Language only affects HPP presentation, so an
// unknown code degrades instead of failing the payment.
func ValidateLanguageCode(raw, defaultLang string) string {
	code := strings.ToLower(strings.TrimSpace(raw))
	if languageCodes[code] {
		return code
	}
	return defaultLang
}

// FormatTrackID validates the merchant order identifier.
func FormatTrackID(raw string) (string, error) {
	trackID := strings.TrimSpace(raw)
	if trackID == "" {
		return "", domain.NewDomainError(domain.ErrorCodeMissingField, "trackid is required")
	}
	if len(trackID) > 255 {
		return "", domain.NewDomainError(domain.ErrorCodeMissingField, "trackid exceeds 255 characters").
			WithDetail("length", len(trackID))
	}
	return trackID, nil
}

package ipg

import (
	"time"

	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
)

// ThreeDSBuilder translates buyer account history into the categorical
// risk indicators the gateway feeds into its frictionless-vs-challenge
// decision. It is read-only and side-effect-free: missing history defaults
// to the most conservative indicator instead of failing the payment.
type ThreeDSBuilder struct {
	clock ports.Clock
}

// NewThreeDSBuilder creates a builder using the given clock for day-count
// thresholds.
func NewThreeDSBuilder(clock ports.Clock) *ThreeDSBuilder {
	return &ThreeDSBuilder{clock: clock}
}

// Build derives the 3DS context for a buyer. A nil history means guest
// checkout, which always gets the fixed "no account" indicator set rather
// than computed values.
func (b *ThreeDSBuilder) Build(history *models.BuyerHistory) models.ThreeDSContext {
	if history == nil {
		return models.ThreeDSContext{
			AccountAgeIndicator:     models.IndicatorNoAccount,
			AccountChangeIndicator:  models.IndicatorNoAccount,
			PasswordChangeIndicator: models.IndicatorNoAccount,
			ShippingAddressUsage:    models.AddressUsageDuringTxn,
			AuthenticationMethod:    models.AuthMethodNone,
		}
	}

	now := b.clock.Now()

	authMethod := history.AuthenticationMethod
	if authMethod == "" {
		authMethod = models.AuthMethodOwnCreds
	}

	return models.ThreeDSContext{
		AccountAgeIndicator:       ageIndicator(now, history.RegisteredAt),
		AccountChangeIndicator:    ageIndicator(now, history.ProfileChangedAt),
		PasswordChangeIndicator:   ageIndicator(now, history.PasswordChangedAt),
		TxnActivityDay:            history.OrdersLast24h,
		TxnActivityYear:           history.OrdersLastYear,
		PurchasesSixMonths:        history.OrdersLastSixMonths,
		ShippingAddressUsage:      addressUsageIndicator(now, history.ShippingAddressFirstUse),
		SuspiciousActivity:        history.SuspiciousActivity,
		AuthenticationMethod:      authMethod,
		PriorAuthenticationMethod: authMethod,
	}
}

// ageIndicator buckets the time since an account event. A zero timestamp
// means no recorded history, which maps to the "changed during this
// transaction" bucket, the most conservative one for a known account.
func ageIndicator(now, since time.Time) string {
	if since.IsZero() {
		return models.IndicatorDuringTxn
	}
	days := int(now.Sub(since).Hours() / 24)
	switch {
	case days < 30:
		return models.IndicatorLess30Days
	case days <= 60:
		return models.IndicatorThirtyTo60Days
	default:
		return models.IndicatorMore60Days
	}
}

func addressUsageIndicator(now, firstUse time.Time) string {
	if firstUse.IsZero() {
		return models.AddressUsageDuringTxn
	}
	days := int(now.Sub(firstUse).Hours() / 24)
	switch {
	case days < 30:
		return models.AddressUsageLess30Days
	case days <= 60:
		return models.AddressUsageThirtyTo60Days
	default:
		return models.AddressUsageMore60Days
	}
}

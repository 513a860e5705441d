package ipg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/commercegate/ipg-service/internal/domain/models"
	"github.com/commercegate/ipg-service/internal/domain/ports"
)

func fixedClock(t time.Time) ports.Clock {
	return ports.ClockFunc(func() time.Time { return t })
}

func TestThreeDSBuilder_GuestCheckout(t *testing.T) {
	builder := NewThreeDSBuilder(fixedClock(time.Now()))

	ctx := builder.Build(nil)

	assert.Equal(t, models.IndicatorNoAccount, ctx.AccountAgeIndicator)
	assert.Equal(t, models.IndicatorNoAccount, ctx.AccountChangeIndicator)
	assert.Equal(t, models.IndicatorNoAccount, ctx.PasswordChangeIndicator)
	assert.Equal(t, models.AddressUsageDuringTxn, ctx.ShippingAddressUsage)
	assert.Equal(t, models.AuthMethodNone, ctx.AuthenticationMethod)
	assert.Zero(t, ctx.TxnActivityDay)
	assert.False(t, ctx.SuspiciousActivity)
}

func TestThreeDSBuilder_AgeBuckets(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	builder := NewThreeDSBuilder(fixedClock(now))

	tests := []struct {
		name         string
		registeredAt time.Time
		want         string
	}{
		{"zero timestamp is most conservative", time.Time{}, models.IndicatorDuringTxn},
		{"same day", now.Add(-2 * time.Hour), models.IndicatorLess30Days},
		{"29 days", now.AddDate(0, 0, -29), models.IndicatorLess30Days},
		{"30 days", now.AddDate(0, 0, -30), models.IndicatorThirtyTo60Days},
		{"60 days", now.AddDate(0, 0, -60), models.IndicatorThirtyTo60Days},
		{"61 days", now.AddDate(0, 0, -61), models.IndicatorMore60Days},
		{"two years", now.AddDate(-2, 0, 0), models.IndicatorMore60Days},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := builder.Build(&models.BuyerHistory{RegisteredAt: tt.registeredAt})
			assert.Equal(t, tt.want, ctx.AccountAgeIndicator)
		})
	}
}

func TestThreeDSBuilder_RegisteredBuyer(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	builder := NewThreeDSBuilder(fixedClock(now))

	ctx := builder.Build(&models.BuyerHistory{
		RegisteredAt:            now.AddDate(-1, 0, 0),
		ProfileChangedAt:        now.AddDate(0, 0, -10),
		PasswordChangedAt:       now.AddDate(0, 0, -45),
		ShippingAddressFirstUse: now.AddDate(0, -6, 0),
		OrdersLast24h:           1,
		OrdersLastYear:          14,
		OrdersLastSixMonths:     6,
		SuspiciousActivity:      true,
	})

	assert.Equal(t, models.IndicatorMore60Days, ctx.AccountAgeIndicator)
	assert.Equal(t, models.IndicatorLess30Days, ctx.AccountChangeIndicator)
	assert.Equal(t, models.IndicatorThirtyTo60Days, ctx.PasswordChangeIndicator)
	assert.Equal(t, models.AddressUsageMore60Days, ctx.ShippingAddressUsage)
	assert.Equal(t, 1, ctx.TxnActivityDay)
	assert.Equal(t, 14, ctx.TxnActivityYear)
	assert.Equal(t, 6, ctx.PurchasesSixMonths)
	assert.True(t, ctx.SuspiciousActivity)
}

func TestThreeDSBuilder_AuthMethodDefaults(t *testing.T) {
	builder := NewThreeDSBuilder(fixedClock(time.Now()))

	ctx := builder.Build(&models.BuyerHistory{})
	assert.Equal(t, models.AuthMethodOwnCreds, ctx.AuthenticationMethod)
	assert.Equal(t, models.AuthMethodOwnCreds, ctx.PriorAuthenticationMethod)

	ctx = builder.Build(&models.BuyerHistory{AuthenticationMethod: models.AuthMethodFederated})
	assert.Equal(t, models.AuthMethodFederated, ctx.AuthenticationMethod)
}

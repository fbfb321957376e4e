package trade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazraa/trade-engine/trade"
)

// =============================================================================
// AMOUNT COMPOSITION
// =============================================================================

func TestCompose_GovernmentQantarWorkedExample(t *testing.T) {
	// GIVEN: 980 kg net, 1000 per qantar, 157.5 kg/qantar
	// WHEN: Composing
	// THEN: qty ~= 6.2222 qantar, total ~= 6222.22 (rounded at the boundary)

	comp, err := trade.Compose(dec("980"), dec("1000"), dec("157.5"))
	require.NoError(t, err)

	qtyDiff := comp.QtyInPricingUnit.Sub(dec("6.2222")).Abs()
	assert.True(t, qtyDiff.LessThan(dec("0.0001")), "qty: %s", comp.QtyInPricingUnit)

	assert.True(t, trade.RoundAmount(comp.TotalAmount).Equal(dec("6222.22")),
		"rounded total: %s", trade.RoundAmount(comp.TotalAmount))

	// price_per_base_unit = price / factor
	priceDiff := comp.PricePerBaseUnit.Sub(dec("6.3492")).Abs()
	assert.True(t, priceDiff.LessThan(dec("0.0001")), "base price: %s", comp.PricePerBaseUnit)
}

func TestCompose_Idempotent_BitIdentical(t *testing.T) {
	// Purity property: two calls with identical inputs are bit-identical.

	a, err := trade.Compose(dec("123.456"), dec("78.9"), dec("157.5"))
	require.NoError(t, err)
	b, err := trade.Compose(dec("123.456"), dec("78.9"), dec("157.5"))
	require.NoError(t, err)

	assert.Equal(t, a.QtyInPricingUnit.String(), b.QtyInPricingUnit.String())
	assert.Equal(t, a.PricePerBaseUnit.String(), b.PricePerBaseUnit.String())
	assert.Equal(t, a.TotalAmount.String(), b.TotalAmount.String())
}

func TestCompose_InvariantHolds(t *testing.T) {
	// total_amount = (net / factor) * price, full precision.
	comp, err := trade.Compose(dec("315"), dec("200"), dec("157.5"))
	require.NoError(t, err)
	assert.True(t, comp.QtyInPricingUnit.Equal(dec("2")))
	assert.True(t, comp.TotalAmount.Equal(dec("400")))
}

func TestCompose_Guards(t *testing.T) {
	_, err := trade.Compose(dec("100"), dec("10"), dec("0"))
	require.ErrorIs(t, err, trade.ErrInvalidConversionFactor)

	_, err = trade.Compose(dec("100"), dec("10"), dec("-1"))
	require.ErrorIs(t, err, trade.ErrInvalidConversionFactor)

	_, err = trade.Compose(dec("-1"), dec("10"), dec("157.5"))
	require.ErrorIs(t, err, trade.ErrNegativeQuantity)

	_, err = trade.Compose(dec("100"), dec("-10"), dec("157.5"))
	require.ErrorIs(t, err, trade.ErrNegativePrice)
}

func TestCompose_ZeroInputs_ZeroAmounts(t *testing.T) {
	comp, err := trade.Compose(dec("0"), dec("0"), dec("157.5"))
	require.NoError(t, err)
	assert.True(t, comp.TotalAmount.IsZero())
	assert.True(t, comp.QtyInPricingUnit.IsZero())
}

// =============================================================================
// DISPLAY BOUNDARY
// =============================================================================

func TestToMoney_RoundsToMinorUnit(t *testing.T) {
	m := trade.ToMoney(dec("6222.2222"))
	assert.Equal(t, int64(622222), m.Amount())
	assert.Equal(t, trade.SettlementCurrency, m.Currency().Code)
}

func TestRoundAmount_OnlyTwoPlaces(t *testing.T) {
	assert.True(t, trade.RoundAmount(dec("1.005")).Equal(dec("1.01")))
	assert.True(t, trade.RoundAmount(dec("1.004")).Equal(dec("1")))
}

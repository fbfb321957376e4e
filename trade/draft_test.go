package trade_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazraa/trade-engine/trade"
)

// =============================================================================
// REDUCER - Draft assembly
// =============================================================================

func applyAll(t *testing.T, d trade.TransactionDraft, changes ...trade.FieldChange) trade.TransactionDraft {
	t.Helper()
	for _, c := range changes {
		next, err := trade.Apply(d, c)
		require.NoError(t, err)
		d = next
	}
	return d
}

func TestApply_FullPurchaseFlow(t *testing.T) {
	// GIVEN: A fresh form
	// WHEN: Selecting cotton, entering 1000 kg gross in 10 bags, price 1000
	// THEN: Derived fields follow the government qantar worked example

	c := cotton()
	d := trade.NewDraft(date(2026, time.March, 15))

	d = applyAll(t, d,
		trade.SelectCommodity{Commodity: &c},
		trade.SelectCounterparty{ID: "farmer-7"},
		trade.SetGross{Quantity: dec("1000")},
		trade.SetBagCount{Count: dec("10")},
		trade.SetPrice{Price: dec("1000")},
	)

	// Commodity selection picked the first pricing unit and its factor.
	assert.Equal(t, trade.UnitGovernmentQantar, d.PricingUnit)
	assert.True(t, d.ConversionFactor.Equal(dec("157.5")))
	assert.Equal(t, trade.FormulaGovernmentQantar, d.Formula)

	// Default tare per bag was suggested from the commodity.
	assert.True(t, d.TarePerBag.Equal(dec("2")))
	assert.True(t, d.TotalTare.Equal(dec("20")))
	assert.True(t, d.NetQuantityBase.Equal(dec("980")))

	assert.True(t, trade.RoundAmount(d.TotalAmount).Equal(dec("6222.22")))
}

func TestApply_TareSuggestion_NonDestructive(t *testing.T) {
	// GIVEN: The user manually set tare per bag to 3
	// WHEN: Changing the bag count afterwards
	// THEN: The manual tare survives; the commodity default is not re-applied

	c := cotton()
	d := trade.NewDraft(date(2026, time.March, 15))
	d = applyAll(t, d,
		trade.SelectCommodity{Commodity: &c},
		trade.SetGross{Quantity: dec("1000")},
		trade.SetTarePerBag{Tare: dec("3")},
		trade.SetBagCount{Count: dec("10")},
	)

	assert.True(t, d.TarePerBag.Equal(dec("3")))
	assert.True(t, d.TotalTare.Equal(dec("30")))
	assert.True(t, d.NetQuantityBase.Equal(dec("970")))
}

func TestApply_PriceSuggestion_NonDestructive(t *testing.T) {
	c := cotton()
	d := trade.NewDraft(date(2026, time.March, 15))
	d = applyAll(t, d, trade.SelectCommodity{Commodity: &c})

	// Suggestion fills an untouched field.
	d = applyAll(t, d, trade.SuggestPrice{Price: dec("950")})
	assert.True(t, d.PricePerUnit.Equal(dec("950")))

	// User types a price; later suggestions are ignored.
	d = applyAll(t, d, trade.SetPrice{Price: dec("1000")})
	d = applyAll(t, d, trade.SuggestPrice{Price: dec("900")})
	assert.True(t, d.PricePerUnit.Equal(dec("1000")))
}

func TestApply_FailedEdit_LeavesDraftUnchanged(t *testing.T) {
	// GIVEN: A consistent draft
	// WHEN: An edit that would make tare exceed gross
	// THEN: The error surfaces and the draft keeps its previous state

	c := cotton()
	d := trade.NewDraft(date(2026, time.March, 15))
	d = applyAll(t, d,
		trade.SelectCommodity{Commodity: &c},
		trade.SetGross{Quantity: dec("100")},
		trade.SetBagCount{Count: dec("10")},
	)
	before := d

	_, err := trade.Apply(d, trade.SetExplicitTare{Tare: decPtr("150")})
	require.ErrorIs(t, err, trade.ErrTareExceedsGross)

	// Unchanged: same derived figures as before the failed edit.
	assert.True(t, before.NetQuantityBase.Equal(d.NetQuantityBase))
	assert.True(t, before.TotalTare.Equal(d.TotalTare))
	assert.Nil(t, d.ExplicitTare)
}

func TestApply_PricingUnitChange_SnapshotsFactor(t *testing.T) {
	// The conversion factor is frozen at selection time; mutating the
	// commodity's map afterwards must not reprice the open draft.

	c := cotton()
	d := trade.NewDraft(date(2026, time.March, 15))
	d = applyAll(t, d,
		trade.SelectCommodity{Commodity: &c},
		trade.SelectPricingUnit{Unit: trade.UnitLocalQantar},
	)
	require.True(t, d.ConversionFactor.Equal(dec("160")))

	c.ConversionFactors[trade.UnitLocalQantar] = dec("170")
	d = applyAll(t, d,
		trade.SetGross{Quantity: dec("320")},
		trade.SetPrice{Price: dec("100")},
	)
	assert.True(t, d.ConversionFactor.Equal(dec("160")))
	assert.True(t, d.TotalAmount.Equal(dec("200")))
}

func TestApply_PricingUnitWithoutCommodity_Rejected(t *testing.T) {
	d := trade.NewDraft(date(2026, time.March, 15))
	_, err := trade.Apply(d, trade.SelectPricingUnit{Unit: trade.UnitTon})
	require.ErrorIs(t, err, trade.ErrMissingCommodity)
}

func TestApply_BulkCommodity_NoTare(t *testing.T) {
	w := wheat()
	d := trade.NewDraft(date(2026, time.March, 15))
	d = applyAll(t, d,
		trade.SelectCommodity{Commodity: &w},
		trade.SetGross{Quantity: dec("2500")},
		trade.SetPrice{Price: dec("12000")},
	)

	assert.Equal(t, trade.FormulaTon, d.Formula)
	assert.True(t, d.TotalTare.IsZero())
	assert.True(t, d.NetQuantityBase.Equal(dec("2500")))
	// 2.5 ton * 12000 = 30000
	assert.True(t, d.TotalAmount.Equal(dec("30000")))
}

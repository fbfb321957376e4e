/*
draft.go - Pure reducer over transaction form state

PURPOSE:
  The UI dispatches field-change events; this reducer folds them into a new
  draft state and recomputes the derived figures (total tare, net quantity,
  base-unit price, total amount). No rendering, no I/O - the form only
  dispatches and re-reads.

EVENT MODEL:
  FieldChange is a closed set of event types. Each edit produces a new
  draft value; the previous value is untouched, so a failed edit leaves
  the form exactly where it was.

NON-DESTRUCTIVE DEFAULTS:
  - Bag-count edits fill in the commodity's default tare per bag only
    while the tare field has never been manually edited.
  - A suggested price (advisor.go) fills the price field only while the
    user hasn't typed one.

SEE ALSO:
  - weight.go, compose.go: The calculations the reducer triggers
  - advisor.go: Produces the price suggestions applied here
*/
package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELD CHANGE EVENTS - Closed set
// =============================================================================

// FieldChange is a single edit to the trade form.
type FieldChange interface{ isFieldChange() }

type SelectCommodity struct {
	Commodity *Commodity
	Formula   Formula // zero value: derive from the default pricing unit
}

type SelectCounterparty struct{ ID CounterpartyID }

type SelectPricingUnit struct{ Unit Unit }

type SetDate struct{ Date time.Time }

type SetGross struct{ Quantity decimal.Decimal }

type SetBagCount struct{ Count decimal.Decimal }

type SetTarePerBag struct{ Tare decimal.Decimal }

// SetExplicitTare overrides the derived bag_count*tare_per_bag total.
// A nil Tare clears the override.
type SetExplicitTare struct{ Tare *decimal.Decimal }

type SetPrice struct{ Price decimal.Decimal }

// SuggestPrice is a non-destructive autofill from the last-price advisor.
// Ignored once the user has typed a price.
type SuggestPrice struct{ Price decimal.Decimal }

type SetSettlement struct{ Amount decimal.Decimal }

func (SelectCommodity) isFieldChange()    {}
func (SelectCounterparty) isFieldChange() {}
func (SelectPricingUnit) isFieldChange()  {}
func (SetDate) isFieldChange()            {}
func (SetGross) isFieldChange()           {}
func (SetBagCount) isFieldChange()        {}
func (SetTarePerBag) isFieldChange()      {}
func (SetExplicitTare) isFieldChange()    {}
func (SetPrice) isFieldChange()           {}
func (SuggestPrice) isFieldChange()       {}
func (SetSettlement) isFieldChange()      {}

// =============================================================================
// REDUCER
// =============================================================================

// NewDraft returns the empty draft a freshly opened form starts from.
func NewDraft(date time.Time) TransactionDraft {
	return TransactionDraft{Date: date, Formula: FormulaKilogram}
}

// Apply folds one field change into the draft and recomputes derived
// fields. On validation failure the original draft is returned unchanged
// alongside the error, so the form keeps its last consistent state.
func Apply(d TransactionDraft, change FieldChange) (TransactionDraft, error) {
	next := d

	switch c := change.(type) {
	case SelectCommodity:
		next.Commodity = c.Commodity
		unit := DefaultUnit(*c.Commodity)
		factor, err := Factor(unit, *c.Commodity)
		if err != nil {
			return d, err
		}
		next.PricingUnit = unit
		next.ConversionFactor = factor
		next.Formula = c.Formula
		if next.Formula == "" {
			next.Formula = FormulaForUnit(unit)
		}
		if !next.TareOverridden && c.Commodity.DefaultTarePerBag != nil {
			next.TarePerBag = *c.Commodity.DefaultTarePerBag
		}

	case SelectCounterparty:
		next.Counterparty = c.ID

	case SelectPricingUnit:
		if next.Commodity == nil {
			return d, ErrMissingCommodity
		}
		factor, err := Factor(c.Unit, *next.Commodity)
		if err != nil {
			return d, err
		}
		next.PricingUnit = c.Unit
		// Snapshot at selection time; catalog edits after this point do
		// not reprice the open form.
		next.ConversionFactor = factor
		next.Formula = FormulaForUnit(c.Unit)

	case SetDate:
		next.Date = c.Date

	case SetGross:
		next.GrossQuantity = c.Quantity

	case SetBagCount:
		next.BagCount = c.Count
		if !next.TareOverridden && next.Commodity != nil && next.Commodity.DefaultTarePerBag != nil {
			next.TarePerBag = *next.Commodity.DefaultTarePerBag
		}

	case SetTarePerBag:
		next.TarePerBag = c.Tare
		next.TareOverridden = true

	case SetExplicitTare:
		next.ExplicitTare = c.Tare
		next.TareOverridden = c.Tare != nil

	case SetPrice:
		next.PricePerUnit = c.Price
		next.PriceTouched = true

	case SuggestPrice:
		if next.PriceTouched {
			return d, nil
		}
		next.PricePerUnit = c.Price

	case SetSettlement:
		next.SettlementAmount = c.Amount
	}

	if err := recompute(&next); err != nil {
		return d, err
	}
	return next, nil
}

// recompute re-derives tare, net quantity and amounts after any edit.
func recompute(d *TransactionDraft) error {
	nw, err := ComputeNet(d.Formula, d.GrossQuantity, d.BagCount, d.TarePerBag, d.ExplicitTare)
	if err != nil {
		return err
	}
	d.TotalTare = nw.TotalTare
	d.NetQuantityBase = nw.Net

	if !d.ConversionFactor.IsPositive() {
		// No pricing unit selected yet; amounts stay zero.
		d.PricePerBaseUnit = decimal.Zero
		d.TotalAmount = decimal.Zero
		return nil
	}

	comp, err := Compose(d.NetQuantityBase, d.PricePerUnit, d.ConversionFactor)
	if err != nil {
		return err
	}
	d.PricePerBaseUnit = comp.PricePerBaseUnit
	d.TotalAmount = comp.TotalAmount
	return nil
}

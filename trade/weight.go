/*
weight.go - Net weight derivation for bagged commodities

PURPOSE:
  Derives the net (stored) weight from gross weight, bag count and tare
  under a formula's tare policy. This is the one place the gross/tare/net
  reconciliation happens; the reducer (draft.go) calls it on every
  relevant field edit.

RULES:
  1. total_tare = explicit tare if given, else bag_count * tare_per_bag
  2. Negative bag count or tare per bag is a validation error
  3. If gross > 0 and total_tare >= gross, the input is rejected
     (ErrTareExceedsGross) - never clamped
  4. Formulas that deduct before storage: net = gross - total_tare.
     Others: net = gross, tare retained for invoice disclosure.

SEE ALSO:
  - formula.go: The per-formula policy table
  - draft.go: Triggers recomputation on field changes
*/
package trade

import "github.com/shopspring/decimal"

// =============================================================================
// COMPLEX WEIGHT CALCULATOR
// =============================================================================

// NetWeight is the result of ComputeNet.
type NetWeight struct {
	// Net is the quantity stored, in kilograms.
	Net decimal.Decimal

	// TotalTare is always derived, even when the policy doesn't deduct it;
	// invoices disclose it either way.
	TotalTare decimal.Decimal

	// Deducted reports whether TotalTare was subtracted from gross.
	Deducted bool
}

// ComputeNet derives the net weight for a formula. explicitTare, when
// non-nil, replaces the bagCount*tarePerBag derivation.
func ComputeNet(formula Formula, gross, bagCount, tarePerBag decimal.Decimal, explicitTare *decimal.Decimal) (NetWeight, error) {
	if gross.IsNegative() {
		return NetWeight{}, &FieldError{Field: "gross_quantity", Err: ErrNegativeQuantity}
	}
	if bagCount.IsNegative() {
		return NetWeight{}, &FieldError{Field: "bag_count", Err: ErrNegativeQuantity}
	}
	if tarePerBag.IsNegative() {
		return NetWeight{}, &FieldError{Field: "tare_per_bag", Err: ErrNegativeQuantity}
	}

	totalTare := bagCount.Mul(tarePerBag)
	if explicitTare != nil {
		if explicitTare.IsNegative() {
			return NetWeight{}, &FieldError{Field: "tare_weight", Err: ErrNegativeQuantity}
		}
		totalTare = *explicitTare
	}

	if gross.IsPositive() && totalTare.GreaterThanOrEqual(gross) {
		return NetWeight{}, &TareError{Gross: gross, TotalTare: totalTare}
	}

	policy := formula.Policy()
	if !policy.UsesBags {
		// Bulk formulas ignore bag inputs entirely.
		return NetWeight{Net: gross, TotalTare: decimal.Zero, Deducted: false}, nil
	}

	// Deduction only applies once a gross weight exists; a half-filled
	// form with bags but no gross keeps net at zero, not negative.
	net := gross
	if policy.DeductsBeforeStorage && gross.IsPositive() {
		net = gross.Sub(totalTare)
	}
	return NetWeight{Net: net, TotalTare: totalTare, Deducted: policy.DeductsBeforeStorage}, nil
}

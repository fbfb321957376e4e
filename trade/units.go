/*
units.go - Unit conversion against a commodity's factor table

PURPOSE:
  Converts quantities between a commodity's pricing units and the kilogram
  base unit. A conversion factor is kilograms-per-one-unit, so converting
  goes through the base unit:

      qty_to = qty_from * factor(from) / factor(to)

  where factor(kg) = 1.

INVARIANTS:
  - Pure: no I/O, no side effects.
  - Round-trip: convert(convert(x, u, base), base, u) == x within 1e-6
    for every allowed unit u.

SEE ALSO:
  - compose.go: Uses the snapshotted conversion factor, not this resolver
  - advisor.go: Converts suggested base-unit prices into the selected unit
*/
package trade

import "github.com/shopspring/decimal"

// =============================================================================
// UNIT CONVERSION RESOLVER
// =============================================================================

// Factor returns the kilograms-per-unit factor for u on commodity c.
// The base unit always has factor 1.
func Factor(u Unit, c Commodity) (decimal.Decimal, error) {
	if u == BaseUnit || u == c.BaseUnit {
		return decimal.NewFromInt(1), nil
	}
	for _, allowed := range c.AllowedPricingUnits {
		if allowed == u {
			f, ok := c.ConversionFactors[u]
			if !ok || !f.IsPositive() {
				return decimal.Zero, &UnknownUnitError{Unit: u, Commodity: c.ID}
			}
			return f, nil
		}
	}
	return decimal.Zero, &UnknownUnitError{Unit: u, Commodity: c.ID}
}

// Convert converts qty from one unit to another using c's factor table.
func Convert(qty decimal.Decimal, from, to Unit, c Commodity) (decimal.Decimal, error) {
	fromFactor, err := Factor(from, c)
	if err != nil {
		return decimal.Zero, err
	}
	toFactor, err := Factor(to, c)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(fromFactor).Div(toFactor), nil
}

// DefaultUnit returns the unit a new draft should price in: the first
// allowed pricing unit, or the base unit when none are configured.
func DefaultUnit(c Commodity) Unit {
	if len(c.AllowedPricingUnits) > 0 {
		return c.AllowedPricingUnits[0]
	}
	return BaseUnit
}

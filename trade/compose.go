/*
compose.go - Quantity/price/amount composition

PURPOSE:
  Combines a net base-unit quantity, a price quoted in the pricing unit,
  and the snapshotted conversion factor into the three derived figures a
  trade record carries:

      qty_in_pricing_unit = net_base_qty / conversion_factor
      price_per_base_unit = price_per_pricing_unit / conversion_factor
      total_amount        = qty_in_pricing_unit * price_per_pricing_unit

  All arithmetic is full precision decimal. Rounding to 2 decimal places
  happens only at the display/submit boundary (money.go), so intermediate
  results never compound rounding error.

INVARIANTS:
  - Pure and deterministic: identical inputs produce bit-identical output.
  - conversion_factor > 0, net_base_qty >= 0, price >= 0.
*/
package trade

import "github.com/shopspring/decimal"

// =============================================================================
// TRANSACTION AMOUNT COMPOSER
// =============================================================================

// Compose derives the pricing-unit quantity, base-unit price and total
// amount for a draft.
func Compose(netBaseQty, pricePerPricingUnit, conversionFactor decimal.Decimal) (Composition, error) {
	if !conversionFactor.IsPositive() {
		return Composition{}, &FieldError{Field: "conversion_factor", Err: ErrInvalidConversionFactor}
	}
	if netBaseQty.IsNegative() {
		return Composition{}, &FieldError{Field: "net_quantity", Err: ErrNegativeQuantity}
	}
	if pricePerPricingUnit.IsNegative() {
		return Composition{}, &FieldError{Field: "price", Err: ErrNegativePrice}
	}

	qtyInPricingUnit := netBaseQty.Div(conversionFactor)
	return Composition{
		QtyInPricingUnit: qtyInPricingUnit,
		PricePerBaseUnit: pricePerPricingUnit.Div(conversionFactor),
		TotalAmount:      qtyInPricingUnit.Mul(pricePerPricingUnit),
	}, nil
}

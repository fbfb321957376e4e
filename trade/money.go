/*
money.go - The display/submit rounding boundary

PURPOSE:
  The only place full-precision decimals become rounded monetary values.
  Everything upstream (compose.go, draft.go) stays at full precision;
  records sent to the backend and figures shown to the user pass through
  here exactly once.

CURRENCY:
  Trades settle in Egyptian pounds. go-money carries the currency code and
  minor-unit handling so formatting and equality follow the currency's
  rules rather than ad-hoc float formatting.
*/
package trade

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// SettlementCurrency is the currency trades settle in.
const SettlementCurrency = money.EGP

// RoundAmount rounds a full-precision amount to 2 decimal places using
// bankers-free half-up rounding. Applied once, at the submit boundary.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ToMoney materializes a full-precision amount as a settlement-currency
// monetary value, rounding to the currency's minor unit.
func ToMoney(d decimal.Decimal) *money.Money {
	minor := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(minor, SettlementCurrency)
}

// FormatAmount renders a full-precision amount the way the invoice shows
// it, e.g. "E£6,222.22".
func FormatAmount(d decimal.Decimal) string {
	return ToMoney(d).Display()
}

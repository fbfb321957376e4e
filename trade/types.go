/*
Package trade provides the commodity transaction calculation core.

PURPOSE:
  This package contains the pure calculation components used while a trade
  form is being filled in: unit conversion, complex (bagged) weight
  derivation, amount composition, and last-price advice. Everything here is
  synchronous and side-effect free; the network-bound parts of the system
  live in the backend and cache packages.

KEY CONCEPTS IN THIS FILE (types.go):
  - Unit: A pricing or storage unit symbol (kg, government_qantar, ...)
  - Commodity: Immutable reference data describing how a commodity is traded
  - TransactionDraft: Ephemeral form state, mutated only by the reducer
  - Composition: The derived quantity/price/amount triple for a draft

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors.
     Rounding happens only at the display/submit boundary (money.go).
  2. Purity: Calculation functions have no I/O and no hidden state.
  3. Exhaustiveness: Formula behavior is a closed tagged variant
     (formula.go), not string comparisons scattered through the code.

USAGE:
  c := trade.Commodity{
      ID:       "cotton",
      BaseUnit: trade.UnitKilogram,
      AllowedPricingUnits: []trade.Unit{trade.UnitGovernmentQantar},
      ConversionFactors: map[trade.Unit]decimal.Decimal{
          trade.UnitGovernmentQantar: decimal.NewFromFloat(157.5),
      },
  }
  qty, err := trade.Convert(decimal.NewFromInt(315), trade.UnitKilogram,
      trade.UnitGovernmentQantar, c)

SEE ALSO:
  - units.go: Unit conversion
  - formula.go: Calculation formula variants and their tare policies
  - weight.go: Net weight derivation
  - compose.go: Quantity/amount composition
  - draft.go: The field-change reducer
*/
package trade

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UNITS
// =============================================================================

// Unit is a pricing or storage unit symbol.
type Unit string

const (
	// UnitKilogram is the base unit. All stored quantities are kilograms.
	UnitKilogram Unit = "kg"

	UnitGovernmentQantar Unit = "government_qantar"
	UnitLocalQantar      Unit = "local_qantar"
	UnitTon              Unit = "ton"
)

// BaseUnit is the canonical storage unit for every commodity.
const BaseUnit = UnitKilogram

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CommodityID string
type CounterpartyID string
type RecordID string

// =============================================================================
// COMMODITY - Immutable reference data
// =============================================================================

// Commodity describes how a commodity is traded. Loaded from the backend
// catalog and treated as read-only by everything in this package.
type Commodity struct {
	ID   CommodityID
	Name string

	// BaseUnit is always kilograms; kept on the struct so wire payloads
	// are self-describing.
	BaseUnit Unit

	// AllowedPricingUnits is the ordered list of units prices may be
	// quoted in. May be empty, in which case the base unit is used.
	AllowedPricingUnits []Unit

	// ConversionFactors maps a pricing unit to kilograms-per-unit.
	ConversionFactors map[Unit]decimal.Decimal

	// IsComplexUnit marks commodities traded in bagged form that need
	// gross/tare/net reconciliation.
	IsComplexUnit bool

	// DefaultTarePerBag, when set, is offered as a suggestion while
	// filling in the tare field. Kilograms per bag.
	DefaultTarePerBag *decimal.Decimal
}

// =============================================================================
// COMPOSITION - Derived figures for a draft
// =============================================================================

// Composition is the output of Compose: the derived quantity, unit price and
// total for a transaction draft. All values are full precision; rounding is
// the caller's concern (see money.go).
type Composition struct {
	QtyInPricingUnit decimal.Decimal
	PricePerBaseUnit decimal.Decimal
	TotalAmount      decimal.Decimal
}

// =============================================================================
// TRANSACTION DRAFT - Ephemeral form state
// =============================================================================

// TransactionDraft holds the state of an open trade form. It is created when
// the form opens, advanced by Apply (draft.go) on every field edit, and
// discarded on cancel or successful submit. It never persists itself.
type TransactionDraft struct {
	Commodity    *Commodity
	Counterparty CounterpartyID
	Date         time.Time

	PricingUnit Unit
	// ConversionFactor is snapshotted when the pricing unit is selected so
	// later catalog changes cannot silently reprice an open form.
	ConversionFactor decimal.Decimal

	Formula Formula

	GrossQuantity decimal.Decimal
	BagCount      decimal.Decimal
	TarePerBag    decimal.Decimal
	// TareOverridden is set once the user edits the tare field directly;
	// after that, bag-count changes stop suggesting the commodity default.
	TareOverridden bool
	ExplicitTare   *decimal.Decimal

	// Derived fields, recomputed by the reducer.
	TotalTare        decimal.Decimal
	NetQuantityBase  decimal.Decimal
	PricePerUnit     decimal.Decimal
	PriceTouched     bool
	PricePerBaseUnit decimal.Decimal
	TotalAmount      decimal.Decimal

	SettlementAmount decimal.Decimal
}

// PriceQuote is a non-authoritative price suggestion from history.
// UnitPrice is denominated in the base unit.
type PriceQuote struct {
	UnitPrice decimal.Decimal
	AsOf      time.Time
	Quantity  decimal.Decimal
}

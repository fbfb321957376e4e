/*
formula.go - Calculation formula variants and their tare policies

PURPOSE:
  Each named formula decides two things: whether total tare is deducted
  from gross weight before the net quantity is stored, and how tare is
  presented when it isn't. Formula behavior lives here, in one exhaustive
  policy table, so adding a pricing policy adds a variant instead of
  scattering string comparisons.

POLICY TABLE:
  GovernmentQantar  deduct tare before storage
  Ton               deduct tare before storage
  LocalQantar       net stored WITHOUT deduction; tare retained for
                    invoice-level disclosure only (the "notional tare"
                    used when converting for display)
  Kilogram          bulk, no bags, no tare

  The local-qantar row was confirmed with the domain owner: the stored net
  weight equals gross; tare appears on the invoice but never reduces the
  warehouse figure.

SEE ALSO:
  - weight.go: Applies the policy in ComputeNet
*/
package trade

// =============================================================================
// FORMULA - Closed tagged variant
// =============================================================================

// Formula names a weight calculation policy. The set is closed: every
// switch over Formula in this package handles all variants and rejects
// anything else.
type Formula string

const (
	FormulaGovernmentQantar Formula = "government_qantar"
	FormulaLocalQantar      Formula = "local_qantar"
	FormulaTon              Formula = "ton"
	FormulaKilogram         Formula = "kilogram"
)

// TarePolicy describes how a formula treats tare.
type TarePolicy struct {
	// DeductsBeforeStorage: net = gross - total tare. When false, net =
	// gross and tare is disclosure-only.
	DeductsBeforeStorage bool

	// UsesBags: whether the formula expects bag count / tare-per-bag
	// inputs at all.
	UsesBags bool
}

// Policy returns the tare policy for f. Unknown formulas fall back to the
// kilogram (bulk) policy; the factory rejects unknown names before a draft
// can carry one.
func (f Formula) Policy() TarePolicy {
	switch f {
	case FormulaGovernmentQantar:
		return TarePolicy{DeductsBeforeStorage: true, UsesBags: true}
	case FormulaLocalQantar:
		return TarePolicy{DeductsBeforeStorage: false, UsesBags: true}
	case FormulaTon:
		return TarePolicy{DeductsBeforeStorage: true, UsesBags: true}
	case FormulaKilogram:
		return TarePolicy{DeductsBeforeStorage: false, UsesBags: false}
	default:
		return TarePolicy{DeductsBeforeStorage: false, UsesBags: false}
	}
}

// Valid reports whether f is one of the known formula variants.
func (f Formula) Valid() bool {
	switch f {
	case FormulaGovernmentQantar, FormulaLocalQantar, FormulaTon, FormulaKilogram:
		return true
	}
	return false
}

// FormulaForUnit returns the formula conventionally paired with a pricing
// unit. Used as the default when a draft selects its unit.
func FormulaForUnit(u Unit) Formula {
	switch u {
	case UnitGovernmentQantar:
		return FormulaGovernmentQantar
	case UnitLocalQantar:
		return FormulaLocalQantar
	case UnitTon:
		return FormulaTon
	default:
		return FormulaKilogram
	}
}

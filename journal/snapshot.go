package journal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BALANCE SNAPSHOT - Server-authoritative figures, classified here
// =============================================================================

// BalanceSnapshot is the server's point-in-time reconciliation of the
// accounting equation. The core reads and classifies it; it never
// recomputes the figures.
type BalanceSnapshot struct {
	AsOf time.Time

	Assets      decimal.Decimal
	Liabilities decimal.Decimal
	Capital     decimal.Decimal
	NetProfit   decimal.Decimal
	Cash        decimal.Decimal
	Inventory   decimal.Decimal

	// Difference is the server-computed accounting-equation gap. Nil when
	// the server hasn't computed the balance yet.
	Difference *decimal.Decimal

	// UnbalancedTransactions are the entries the server flagged as
	// contributing to the gap.
	UnbalancedTransactions []UnbalancedTransaction

	// InventoryDiscrepancy is ledger-computed inventory minus physical
	// count. Nil when no physical count exists. Reported independently of
	// the monetary balance - the two are never conflated.
	InventoryDiscrepancy *decimal.Decimal
}

// UnbalancedTransaction references an entry contributing to an imbalance.
type UnbalancedTransaction struct {
	RecordID    string
	Date        time.Time
	Description string
	Difference  decimal.Decimal
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// BalanceState classifies a snapshot's monetary balance.
type BalanceState string

const (
	StateBalanced   BalanceState = "balanced"
	StateUnbalanced BalanceState = "unbalanced"
	// StateUnknown: the server hasn't computed the balance yet.
	StateUnknown BalanceState = "unknown"
)

// SnapshotReport is the classified view of a snapshot.
type SnapshotReport struct {
	State      BalanceState
	Difference decimal.Decimal

	// Contributors are the unbalanced entries ranked by |difference|
	// descending, for root-cause triage. Empty unless State is unbalanced.
	Contributors []UnbalancedTransaction

	// Inventory status, independent of the monetary state.
	HasInventoryDiscrepancy bool
	InventoryDiscrepancy    decimal.Decimal
}

// ClassifySnapshot classifies a server snapshot. A nil Difference means the
// balance hasn't been computed and the state is unknown - callers must not
// show "balanced" for a snapshot the server hasn't finished.
func ClassifySnapshot(s BalanceSnapshot, epsilon decimal.Decimal) SnapshotReport {
	if !epsilon.IsPositive() {
		epsilon = DefaultEpsilon
	}

	report := SnapshotReport{State: StateUnknown}

	if s.InventoryDiscrepancy != nil && !s.InventoryDiscrepancy.Abs().LessThan(epsilon) {
		report.HasInventoryDiscrepancy = true
		report.InventoryDiscrepancy = *s.InventoryDiscrepancy
	}

	if s.Difference == nil {
		return report
	}

	diff := s.Difference.Abs()
	report.Difference = diff
	if diff.LessThan(epsilon) {
		report.State = StateBalanced
		return report
	}

	report.State = StateUnbalanced
	report.Contributors = append([]UnbalancedTransaction(nil), s.UnbalancedTransactions...)
	sort.SliceStable(report.Contributors, func(i, j int) bool {
		return report.Contributors[i].Difference.Abs().GreaterThan(report.Contributors[j].Difference.Abs())
	})
	return report
}

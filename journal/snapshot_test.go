package journal_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazraa/trade-engine/journal"
)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// =============================================================================
// SNAPSHOT CLASSIFICATION
// =============================================================================

func TestClassifySnapshot_AccountingEquationGap(t *testing.T) {
	// GIVEN: assets 10000, liabilities 2000, capital 7000, net profit 900
	// (server computed difference 100)
	// THEN: classified unbalanced(100)

	s := journal.BalanceSnapshot{
		AsOf:        time.Now(),
		Assets:      dec("10000"),
		Liabilities: dec("2000"),
		Capital:     dec("7000"),
		NetProfit:   dec("900"),
		Difference:  decPtr("100"),
	}

	report := journal.ClassifySnapshot(s, dec("0.01"))
	assert.Equal(t, journal.StateUnbalanced, report.State)
	assert.True(t, report.Difference.Equal(dec("100")))
}

func TestClassifySnapshot_Balanced(t *testing.T) {
	report := journal.ClassifySnapshot(journal.BalanceSnapshot{
		Difference: decPtr("0.004"),
	}, dec("0.01"))
	assert.Equal(t, journal.StateBalanced, report.State)
	assert.Empty(t, report.Contributors)
}

func TestClassifySnapshot_NilDifference_Unknown(t *testing.T) {
	// The server hasn't computed the balance: unknown, never "balanced".
	report := journal.ClassifySnapshot(journal.BalanceSnapshot{}, dec("0.01"))
	assert.Equal(t, journal.StateUnknown, report.State)
}

func TestClassifySnapshot_ContributorsRankedByAbsDifference(t *testing.T) {
	// GIVEN: Three flagged entries with mixed-sign differences
	// THEN: Ranked by |difference| descending for triage

	s := journal.BalanceSnapshot{
		Difference: decPtr("75"),
		UnbalancedTransactions: []journal.UnbalancedTransaction{
			{RecordID: "t1", Difference: dec("10")},
			{RecordID: "t2", Difference: dec("-50")},
			{RecordID: "t3", Difference: dec("25")},
		},
	}

	report := journal.ClassifySnapshot(s, dec("0.01"))
	require.Len(t, report.Contributors, 3)
	assert.Equal(t, "t2", report.Contributors[0].RecordID)
	assert.Equal(t, "t3", report.Contributors[1].RecordID)
	assert.Equal(t, "t1", report.Contributors[2].RecordID)
}

func TestClassifySnapshot_InventoryIndependentOfMonetary(t *testing.T) {
	// A balanced book can still have an inventory discrepancy, and the two
	// statuses are reported separately.

	s := journal.BalanceSnapshot{
		Difference:           decPtr("0"),
		InventoryDiscrepancy: decPtr("-12.5"),
	}

	report := journal.ClassifySnapshot(s, dec("0.01"))
	assert.Equal(t, journal.StateBalanced, report.State)
	assert.True(t, report.HasInventoryDiscrepancy)
	assert.True(t, report.InventoryDiscrepancy.Equal(dec("-12.5")))
}

func TestClassifySnapshot_UnknownBalance_InventoryStillReported(t *testing.T) {
	s := journal.BalanceSnapshot{
		InventoryDiscrepancy: decPtr("3"),
	}
	report := journal.ClassifySnapshot(s, dec("0.01"))
	assert.Equal(t, journal.StateUnknown, report.State)
	assert.True(t, report.HasInventoryDiscrepancy)
}

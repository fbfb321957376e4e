/*
Package journal validates double-entry postings and classifies
system-wide balance snapshots.

PURPOSE:
  Client-side guard in front of the authoritative backend: a journal entry
  is checked for double-entry balance before it is submitted, and the
  server's balance snapshot is classified (balanced / unbalanced / unknown)
  for display. The backend re-validates everything; nothing here is a
  substitute for server trust.

KEY CONCEPTS IN THIS FILE (entry.go):
  - JournalLine: One posting with exactly one of debit/credit nonzero
  - EntryDraft: An unsubmitted entry assembled by the form
  - ValidateEntry: The balance check with a configurable epsilon

EPSILON:
  Balance comparison tolerates sub-cent drift (default 0.01). The value is
  a parameter, not a literal, because the tolerance is a business setting.

SEE ALSO:
  - snapshot.go: System-wide balance classification
*/
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultEpsilon is the balance tolerance used when none is configured.
var DefaultEpsilon = decimal.NewFromFloat(0.01)

// =============================================================================
// JOURNAL ENTRY
// =============================================================================

type AccountID string

// JournalLine is a single posting. Exactly one of Debit/Credit is nonzero
// on a well-formed line; ValidateEntry reports lines violating that.
type JournalLine struct {
	Account AccountID
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// IsZero reports whether the line carries no amount at all.
func (l JournalLine) IsZero() bool {
	return l.Debit.IsZero() && l.Credit.IsZero()
}

// wellFormed: at most one side nonzero, no negatives.
func (l JournalLine) wellFormed() bool {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return false
	}
	return l.Debit.IsZero() || l.Credit.IsZero()
}

// EntryDraft is an unsubmitted journal entry.
type EntryDraft struct {
	Date        time.Time
	Description string
	Lines       []JournalLine
}

// =============================================================================
// VALIDATION
// =============================================================================

// EntryValidation is the result of ValidateEntry.
type EntryValidation struct {
	IsBalanced  bool
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	// Difference is |total debit - total credit|, always non-negative.
	Difference decimal.Decimal
	// NonZeroLines counts lines carrying an amount; a postable entry
	// needs at least two.
	NonZeroLines int
	// MalformedLines indexes lines with both sides set or a negative side.
	MalformedLines []int
}

// ValidateEntry checks the double-entry invariant:
// balanced iff |sum(debit) - sum(credit)| < epsilon, sum(debit) > 0, and at
// least two lines carry an amount. A non-positive epsilon falls back to
// DefaultEpsilon.
func ValidateEntry(lines []JournalLine, epsilon decimal.Decimal) EntryValidation {
	if !epsilon.IsPositive() {
		epsilon = DefaultEpsilon
	}

	v := EntryValidation{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for i, l := range lines {
		if !l.wellFormed() {
			v.MalformedLines = append(v.MalformedLines, i)
		}
		if !l.IsZero() {
			v.NonZeroLines++
		}
		v.TotalDebit = v.TotalDebit.Add(l.Debit)
		v.TotalCredit = v.TotalCredit.Add(l.Credit)
	}

	v.Difference = v.TotalDebit.Sub(v.TotalCredit).Abs()
	v.IsBalanced = v.Difference.LessThan(epsilon) &&
		v.TotalDebit.IsPositive() &&
		v.NonZeroLines >= 2 &&
		len(v.MalformedLines) == 0
	return v
}

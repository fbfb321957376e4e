/*
advisor.go - Last-price suggestion

PURPOSE:
  Offers the most recent price paid for a commodity/counterparty pair as a
  starting value for the price field. The suggestion is advisory only:
  lookup failure means "no suggestion", never an error, and the value is
  applied through the reducer's non-destructive SuggestPrice event.

SEE ALSO:
  - backend/client.go: The production PriceSource
  - draft.go: SuggestPrice event handling
*/
package trade

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LAST PRICE ADVISOR
// =============================================================================

// PriceSource looks up the most recent trade price for a commodity and
// counterparty. A nil quote with nil error means no history exists.
type PriceSource interface {
	LastPrice(ctx context.Context, commodity CommodityID, counterparty CounterpartyID) (*PriceQuote, error)
}

// Suggestion is an advisory price in the draft's selected pricing unit.
type Suggestion struct {
	PricePerUnit decimal.Decimal
	AsOf         time.Time
}

// Advisor converts base-unit price history into suggestions for the
// currently selected pricing unit.
type Advisor struct {
	Source PriceSource
}

func NewAdvisor(source PriceSource) *Advisor {
	return &Advisor{Source: source}
}

// Suggest returns a price suggestion in the given pricing unit, or nil
// when no history is available. Lookup errors are swallowed: price advice
// must never block data entry.
func (a *Advisor) Suggest(ctx context.Context, c Commodity, counterparty CounterpartyID, unit Unit) *Suggestion {
	if a == nil || a.Source == nil {
		return nil
	}
	quote, err := a.Source.LastPrice(ctx, c.ID, counterparty)
	if err != nil || quote == nil {
		return nil
	}

	// The quote is base-unit denominated; a price per unit scales by the
	// unit's factor (price/kg * kg/unit = price/unit).
	factor, err := Factor(unit, c)
	if err != nil {
		return nil
	}
	return &Suggestion{
		PricePerUnit: quote.UnitPrice.Mul(factor),
		AsOf:         quote.AsOf,
	}
}

/*
dto.go - Wire types shared by the HTTP client and the reference server

PURPOSE:
  JSON structures for the backend API. Decimals travel as strings (the
  shopspring default), dates as ISO days. Both sides convert through the
  mapping functions here so the wire contract lives in one place.

NAMING CONVENTION:
  - *DTO:     Response types
  - *Request: Request body types
*/
package backend

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mazraa/trade-engine/journal"
	"github.com/mazraa/trade-engine/trade"
)

// DateLayout is the wire format for trade dates.
const DateLayout = "2006-01-02"

// =============================================================================
// COMMODITIES
// =============================================================================

type CommodityDTO struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	BaseUnit            string                     `json:"base_unit"`
	AllowedPricingUnits []string                   `json:"allowed_pricing_units"`
	ConversionFactors   map[string]decimal.Decimal `json:"conversion_factors"`
	IsComplexUnit       bool                       `json:"is_complex_unit"`
	DefaultTarePerBag   *decimal.Decimal           `json:"default_tare_per_bag,omitempty"`
}

func CommodityToDTO(c trade.Commodity) CommodityDTO {
	units := make([]string, 0, len(c.AllowedPricingUnits))
	for _, u := range c.AllowedPricingUnits {
		units = append(units, string(u))
	}
	factors := make(map[string]decimal.Decimal, len(c.ConversionFactors))
	for u, f := range c.ConversionFactors {
		factors[string(u)] = f
	}
	return CommodityDTO{
		ID:                  string(c.ID),
		Name:                c.Name,
		BaseUnit:            string(c.BaseUnit),
		AllowedPricingUnits: units,
		ConversionFactors:   factors,
		IsComplexUnit:       c.IsComplexUnit,
		DefaultTarePerBag:   c.DefaultTarePerBag,
	}
}

func CommodityFromDTO(d CommodityDTO) trade.Commodity {
	units := make([]trade.Unit, 0, len(d.AllowedPricingUnits))
	for _, u := range d.AllowedPricingUnits {
		units = append(units, trade.Unit(u))
	}
	factors := make(map[trade.Unit]decimal.Decimal, len(d.ConversionFactors))
	for u, f := range d.ConversionFactors {
		factors[trade.Unit(u)] = f
	}
	base := trade.Unit(d.BaseUnit)
	if base == "" {
		base = trade.BaseUnit
	}
	return trade.Commodity{
		ID:                  trade.CommodityID(d.ID),
		Name:                d.Name,
		BaseUnit:            base,
		AllowedPricingUnits: units,
		ConversionFactors:   factors,
		IsComplexUnit:       d.IsComplexUnit,
		DefaultTarePerBag:   d.DefaultTarePerBag,
	}
}

// =============================================================================
// PRICES
// =============================================================================

type PriceQuoteDTO struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	AsOfDate  string          `json:"as_of_date"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func PriceQuoteToDTO(q trade.PriceQuote) PriceQuoteDTO {
	return PriceQuoteDTO{
		UnitPrice: q.UnitPrice,
		AsOfDate:  q.AsOf.Format(DateLayout),
		Quantity:  q.Quantity,
	}
}

func PriceQuoteFromDTO(d PriceQuoteDTO) trade.PriceQuote {
	asOf, _ := time.Parse(DateLayout, d.AsOfDate)
	return trade.PriceQuote{UnitPrice: d.UnitPrice, AsOf: asOf, Quantity: d.Quantity}
}

// =============================================================================
// TRADE RECORDS
// =============================================================================

type TradeRecordDTO struct {
	ID               string          `json:"id,omitempty"`
	Kind             string          `json:"kind"`
	CommodityID      string          `json:"commodity_id"`
	CounterpartyID   string          `json:"counterparty_id"`
	Date             string          `json:"date"`
	PricingUnit      string          `json:"pricing_unit"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	GrossQuantity    decimal.Decimal `json:"gross_quantity"`
	BagCount         decimal.Decimal `json:"bag_count"`
	TotalTare        decimal.Decimal `json:"total_tare"`
	NetQuantityBase  decimal.Decimal `json:"net_quantity_base"`
	PricePerBaseUnit decimal.Decimal `json:"price_per_base_unit"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
}

func RecordToDTO(r TradeRecord) TradeRecordDTO {
	return TradeRecordDTO{
		ID:               string(r.ID),
		Kind:             string(r.Kind),
		CommodityID:      string(r.Commodity),
		CounterpartyID:   string(r.Counterparty),
		Date:             r.Date.Format(DateLayout),
		PricingUnit:      string(r.PricingUnit),
		ConversionFactor: r.ConversionFactor,
		GrossQuantity:    r.GrossQuantity,
		BagCount:         r.BagCount,
		TotalTare:        r.TotalTare,
		NetQuantityBase:  r.NetQuantityBase,
		PricePerBaseUnit: r.PricePerBaseUnit,
		TotalAmount:      r.TotalAmount,
		SettlementAmount: r.SettlementAmount,
	}
}

func RecordFromDTO(d TradeRecordDTO) TradeRecord {
	date, _ := time.Parse(DateLayout, d.Date)
	return TradeRecord{
		ID:               trade.RecordID(d.ID),
		Kind:             RecordKind(d.Kind),
		Commodity:        trade.CommodityID(d.CommodityID),
		Counterparty:     trade.CounterpartyID(d.CounterpartyID),
		Date:             date,
		PricingUnit:      trade.Unit(d.PricingUnit),
		ConversionFactor: d.ConversionFactor,
		GrossQuantity:    d.GrossQuantity,
		BagCount:         d.BagCount,
		TotalTare:        d.TotalTare,
		NetQuantityBase:  d.NetQuantityBase,
		PricePerBaseUnit: d.PricePerBaseUnit,
		TotalAmount:      d.TotalAmount,
		SettlementAmount: d.SettlementAmount,
	}
}

// RecordPatchDTO mirrors RecordPatch; nil fields are omitted on the wire.
type RecordPatchDTO struct {
	Date             *string          `json:"date,omitempty"`
	GrossQuantity    *decimal.Decimal `json:"gross_quantity,omitempty"`
	BagCount         *decimal.Decimal `json:"bag_count,omitempty"`
	TotalTare        *decimal.Decimal `json:"total_tare,omitempty"`
	NetQuantityBase  *decimal.Decimal `json:"net_quantity_base,omitempty"`
	PricePerBaseUnit *decimal.Decimal `json:"price_per_base_unit,omitempty"`
	TotalAmount      *decimal.Decimal `json:"total_amount,omitempty"`
	SettlementAmount *decimal.Decimal `json:"settlement_amount,omitempty"`
}

func PatchToDTO(p RecordPatch) RecordPatchDTO {
	d := RecordPatchDTO{
		GrossQuantity:    p.GrossQuantity,
		BagCount:         p.BagCount,
		TotalTare:        p.TotalTare,
		NetQuantityBase:  p.NetQuantityBase,
		PricePerBaseUnit: p.PricePerBaseUnit,
		TotalAmount:      p.TotalAmount,
		SettlementAmount: p.SettlementAmount,
	}
	if p.Date != nil {
		s := p.Date.Format(DateLayout)
		d.Date = &s
	}
	return d
}

func PatchFromDTO(d RecordPatchDTO) RecordPatch {
	p := RecordPatch{
		GrossQuantity:    d.GrossQuantity,
		BagCount:         d.BagCount,
		TotalTare:        d.TotalTare,
		NetQuantityBase:  d.NetQuantityBase,
		PricePerBaseUnit: d.PricePerBaseUnit,
		TotalAmount:      d.TotalAmount,
		SettlementAmount: d.SettlementAmount,
	}
	if d.Date != nil {
		t, err := time.Parse(DateLayout, *d.Date)
		if err == nil {
			p.Date = &t
		}
	}
	return p
}

// =============================================================================
// JOURNAL
// =============================================================================

type JournalLineDTO struct {
	AccountID string          `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type JournalEntryRequest struct {
	EntryDate   string           `json:"entry_date"`
	Description string           `json:"description"`
	Lines       []JournalLineDTO `json:"lines"`
}

func EntryToRequest(e journal.EntryDraft) JournalEntryRequest {
	lines := make([]JournalLineDTO, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, JournalLineDTO{
			AccountID: string(l.Account),
			Debit:     l.Debit,
			Credit:    l.Credit,
		})
	}
	return JournalEntryRequest{
		EntryDate:   e.Date.Format(DateLayout),
		Description: e.Description,
		Lines:       lines,
	}
}

func EntryFromRequest(r JournalEntryRequest) journal.EntryDraft {
	date, _ := time.Parse(DateLayout, r.EntryDate)
	lines := make([]journal.JournalLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, journal.JournalLine{
			Account: journal.AccountID(l.AccountID),
			Debit:   l.Debit,
			Credit:  l.Credit,
		})
	}
	return journal.EntryDraft{Date: date, Description: r.Description, Lines: lines}
}

type JournalEntryResponse struct {
	ID string `json:"id"`
}

// =============================================================================
// SNAPSHOT
// =============================================================================

type UnbalancedTransactionDTO struct {
	RecordID    string          `json:"record_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Difference  decimal.Decimal `json:"difference"`
}

type BalanceSnapshotDTO struct {
	AsOf                   string                     `json:"as_of"`
	Assets                 decimal.Decimal            `json:"assets"`
	Liabilities            decimal.Decimal            `json:"liabilities"`
	Capital                decimal.Decimal            `json:"capital"`
	NetProfit              decimal.Decimal            `json:"net_profit"`
	Cash                   decimal.Decimal            `json:"cash"`
	Inventory              decimal.Decimal            `json:"inventory"`
	Difference             *decimal.Decimal           `json:"difference"`
	UnbalancedTransactions []UnbalancedTransactionDTO `json:"unbalanced_transactions"`
	InventoryDiscrepancy   *decimal.Decimal           `json:"inventory_discrepancy"`
}

func SnapshotToDTO(s journal.BalanceSnapshot) BalanceSnapshotDTO {
	unbalanced := make([]UnbalancedTransactionDTO, 0, len(s.UnbalancedTransactions))
	for _, u := range s.UnbalancedTransactions {
		unbalanced = append(unbalanced, UnbalancedTransactionDTO{
			RecordID:    u.RecordID,
			Date:        u.Date.Format(DateLayout),
			Description: u.Description,
			Difference:  u.Difference,
		})
	}
	return BalanceSnapshotDTO{
		AsOf:                   s.AsOf.Format(time.RFC3339),
		Assets:                 s.Assets,
		Liabilities:            s.Liabilities,
		Capital:                s.Capital,
		NetProfit:              s.NetProfit,
		Cash:                   s.Cash,
		Inventory:              s.Inventory,
		Difference:             s.Difference,
		UnbalancedTransactions: unbalanced,
		InventoryDiscrepancy:   s.InventoryDiscrepancy,
	}
}

func SnapshotFromDTO(d BalanceSnapshotDTO) journal.BalanceSnapshot {
	asOf, _ := time.Parse(time.RFC3339, d.AsOf)
	unbalanced := make([]journal.UnbalancedTransaction, 0, len(d.UnbalancedTransactions))
	for _, u := range d.UnbalancedTransactions {
		date, _ := time.Parse(DateLayout, u.Date)
		unbalanced = append(unbalanced, journal.UnbalancedTransaction{
			RecordID:    u.RecordID,
			Date:        date,
			Description: u.Description,
			Difference:  u.Difference,
		})
	}
	return journal.BalanceSnapshot{
		AsOf:                   asOf,
		Assets:                 d.Assets,
		Liabilities:            d.Liabilities,
		Capital:                d.Capital,
		NetProfit:              d.NetProfit,
		Cash:                   d.Cash,
		Inventory:              d.Inventory,
		Difference:             d.Difference,
		UnbalancedTransactions: unbalanced,
		InventoryDiscrepancy:   d.InventoryDiscrepancy,
	}
}

// ErrorResponse is the error body every endpoint returns on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

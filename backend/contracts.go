/*
Package backend defines the contracts the core consumes from the system of
record, and an HTTP client implementing them.

PURPOSE:
  The backend is authoritative for everything: commodity reference data,
  persisted trade records, journal entries, and balance snapshots. The
  core never persists independently - it prepares drafts, submits them
  through these contracts, and reconciles its cache afterwards.

KEY INTERFACES:
  CommodityCatalog:    Immutable commodity reference data
  PriceLookup:         Last-price history (advisory)
  TransactionService:  Create/update/delete of trade records
  JournalService:      Journal entry submission (server re-validates balance)
  SnapshotService:     System balance snapshot query

IMPLEMENTATIONS:
  - client.go: Production HTTP client
  - server package: Reference development backend over SQLite

SEE ALSO:
  - errors.go: Network/server-rejection taxonomy
  - cache package: The only caller of the mutating operations
*/
package backend

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mazraa/trade-engine/journal"
	"github.com/mazraa/trade-engine/trade"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordKind distinguishes the persisted record sets.
type RecordKind string

const (
	KindPurchase RecordKind = "purchase"
	KindSale     RecordKind = "sale"
)

// TradeRecord is a persisted trade as the backend returns it. The derived
// fields are stored alongside the raw inputs so invoices can re-disclose
// the gross/tare breakdown without recomputation.
type TradeRecord struct {
	ID           trade.RecordID
	Kind         RecordKind
	Commodity    trade.CommodityID
	Counterparty trade.CounterpartyID
	Date         time.Time

	PricingUnit      trade.Unit
	ConversionFactor decimal.Decimal

	GrossQuantity decimal.Decimal
	BagCount      decimal.Decimal
	TotalTare     decimal.Decimal

	NetQuantityBase  decimal.Decimal
	PricePerBaseUnit decimal.Decimal
	TotalAmount      decimal.Decimal
	SettlementAmount decimal.Decimal
}

// RecordPatch is a partial update to a trade record. Nil fields are left
// untouched. Patches merge (cache package) when edits stack up on the same
// record before the first request settles.
type RecordPatch struct {
	Date             *time.Time
	GrossQuantity    *decimal.Decimal
	BagCount         *decimal.Decimal
	TotalTare        *decimal.Decimal
	NetQuantityBase  *decimal.Decimal
	PricePerBaseUnit *decimal.Decimal
	TotalAmount      *decimal.Decimal
	SettlementAmount *decimal.Decimal
}

// Merge overlays later on top of p: any field later sets wins.
func (p RecordPatch) Merge(later RecordPatch) RecordPatch {
	out := p
	if later.Date != nil {
		out.Date = later.Date
	}
	if later.GrossQuantity != nil {
		out.GrossQuantity = later.GrossQuantity
	}
	if later.BagCount != nil {
		out.BagCount = later.BagCount
	}
	if later.TotalTare != nil {
		out.TotalTare = later.TotalTare
	}
	if later.NetQuantityBase != nil {
		out.NetQuantityBase = later.NetQuantityBase
	}
	if later.PricePerBaseUnit != nil {
		out.PricePerBaseUnit = later.PricePerBaseUnit
	}
	if later.TotalAmount != nil {
		out.TotalAmount = later.TotalAmount
	}
	if later.SettlementAmount != nil {
		out.SettlementAmount = later.SettlementAmount
	}
	return out
}

// Apply returns a copy of r with the patch's set fields applied.
func (p RecordPatch) Apply(r TradeRecord) TradeRecord {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.GrossQuantity != nil {
		r.GrossQuantity = *p.GrossQuantity
	}
	if p.BagCount != nil {
		r.BagCount = *p.BagCount
	}
	if p.TotalTare != nil {
		r.TotalTare = *p.TotalTare
	}
	if p.NetQuantityBase != nil {
		r.NetQuantityBase = *p.NetQuantityBase
	}
	if p.PricePerBaseUnit != nil {
		r.PricePerBaseUnit = *p.PricePerBaseUnit
	}
	if p.TotalAmount != nil {
		r.TotalAmount = *p.TotalAmount
	}
	if p.SettlementAmount != nil {
		r.SettlementAmount = *p.SettlementAmount
	}
	return r
}

// =============================================================================
// CONTRACTS
// =============================================================================

// CommodityCatalog serves the immutable commodity reference data.
type CommodityCatalog interface {
	Commodities(ctx context.Context) ([]trade.Commodity, error)
	Commodity(ctx context.Context, id trade.CommodityID) (*trade.Commodity, error)
}

// PriceLookup is the advisory last-price history. Satisfies
// trade.PriceSource.
type PriceLookup interface {
	LastPrice(ctx context.Context, commodity trade.CommodityID, counterparty trade.CounterpartyID) (*trade.PriceQuote, error)
}

// RecordLister loads a persisted record set, used to (re)fill the
// client-side cache mirror.
type RecordLister interface {
	ListRecords(ctx context.Context, kind RecordKind) ([]TradeRecord, error)
}

// TransactionService persists trade records. Create returns the record
// with its server-assigned identity; the client never invents IDs.
type TransactionService interface {
	CreateRecord(ctx context.Context, kind RecordKind, rec TradeRecord) (*TradeRecord, error)
	UpdateRecord(ctx context.Context, kind RecordKind, id trade.RecordID, patch RecordPatch) (*TradeRecord, error)
	DeleteRecord(ctx context.Context, kind RecordKind, id trade.RecordID) error
}

// JournalService submits journal entries. The server re-validates the
// double-entry balance independently; client-side validation is an
// optimization only.
type JournalService interface {
	CreateEntry(ctx context.Context, entry journal.EntryDraft) (string, error)
}

// SnapshotService serves the system-wide balance snapshot.
type SnapshotService interface {
	BalanceSnapshot(ctx context.Context) (*journal.BalanceSnapshot, error)
}

/*
handlers_test.go - End-to-end tests for the reference backend

The tests run the real router over an in-memory store and talk to it
through the production HTTP client, so the wire contract is exercised
from both sides at once.
*/
package server_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazraa/trade-engine/backend"
	"github.com/mazraa/trade-engine/factory"
	"github.com/mazraa/trade-engine/journal"
	"github.com/mazraa/trade-engine/server"
	"github.com/mazraa/trade-engine/store/sqlite"
	"github.com/mazraa/trade-engine/trade"
)

func newTestBackend(t *testing.T) *backend.Client {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	commodities, err := factory.NewCommodityFactory().ParseCatalog(factory.DefaultCatalogJSON)
	require.NoError(t, err)
	for _, c := range commodities {
		require.NoError(t, store.UpsertCommodity(context.Background(), c))
	}

	srv := httptest.NewServer(server.NewRouter(server.NewHandler(store)))
	t.Cleanup(srv.Close)

	return backend.NewClient(srv.URL, 5*time.Second)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func purchaseRecord() backend.TradeRecord {
	return backend.TradeRecord{
		Commodity:        "cotton",
		Counterparty:     "farm-a",
		Date:             time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		PricingUnit:      trade.UnitGovernmentQantar,
		ConversionFactor: dec("157.5"),
		GrossQuantity:    dec("1000"),
		BagCount:         dec("10"),
		TotalTare:        dec("20"),
		NetQuantityBase:  dec("980"),
		PricePerBaseUnit: dec("6.349206"),
		TotalAmount:      dec("6222.22"),
		SettlementAmount: dec("6222.22"),
	}
}

// =============================================================================
// COMMODITIES
// =============================================================================

func TestCommodities_CatalogRoundTrip(t *testing.T) {
	client := newTestBackend(t)

	commodities, err := client.Commodities(context.Background())
	require.NoError(t, err)
	require.Len(t, commodities, 4)

	cotton, err := client.Commodity(context.Background(), "cotton")
	require.NoError(t, err)
	assert.Equal(t, "Cotton", cotton.Name)
	assert.Equal(t, trade.BaseUnit, cotton.BaseUnit)
	assert.True(t, cotton.IsComplexUnit)
	assert.True(t, cotton.ConversionFactors[trade.UnitGovernmentQantar].Equal(dec("157.5")))
	require.NotNil(t, cotton.DefaultTarePerBag)
	assert.True(t, cotton.DefaultTarePerBag.Equal(dec("2")))
}

func TestCommodities_UnknownIs404(t *testing.T) {
	client := newTestBackend(t)

	_, err := client.Commodity(context.Background(), "saffron")

	var rej *backend.ServerRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 404, rej.Status)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestRecords_CreateAssignsIdentity(t *testing.T) {
	client := newTestBackend(t)

	created, err := client.CreateRecord(context.Background(), backend.KindPurchase, purchaseRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID, "the server owns record identities")
	assert.Equal(t, backend.KindPurchase, created.Kind)
	assert.True(t, created.TotalAmount.Equal(dec("6222.22")))
}

func TestRecords_UpdateAppliesPatch(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	created, err := client.CreateRecord(ctx, backend.KindPurchase, purchaseRecord())
	require.NoError(t, err)

	gross := dec("1200")
	net := dec("1180")
	updated, err := client.UpdateRecord(ctx, backend.KindPurchase, created.ID, backend.RecordPatch{
		GrossQuantity:   &gross,
		NetQuantityBase: &net,
	})
	require.NoError(t, err)

	assert.True(t, updated.GrossQuantity.Equal(gross))
	assert.True(t, updated.NetQuantityBase.Equal(net))
	// Untouched fields survive the patch
	assert.True(t, updated.PricePerBaseUnit.Equal(dec("6.349206")))
}

func TestRecords_DeleteThenGetIs404(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	created, err := client.CreateRecord(ctx, backend.KindPurchase, purchaseRecord())
	require.NoError(t, err)

	require.NoError(t, client.DeleteRecord(ctx, backend.KindPurchase, created.ID))

	err = client.DeleteRecord(ctx, backend.KindPurchase, created.ID)
	var rej *backend.ServerRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 404, rej.Status)
}

func TestRecords_KindsAreSeparateSets(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	created, err := client.CreateRecord(ctx, backend.KindPurchase, purchaseRecord())
	require.NoError(t, err)

	// The same ID does not exist in the sale set
	err = client.DeleteRecord(ctx, backend.KindSale, created.ID)
	var rej *backend.ServerRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 404, rej.Status)
}

func TestRecords_ValidationRejections(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*backend.TradeRecord)
		detail string
	}{
		{
			name:   "unknown commodity",
			mutate: func(r *backend.TradeRecord) { r.Commodity = "saffron" },
			detail: "unknown commodity",
		},
		{
			name:   "negative gross",
			mutate: func(r *backend.TradeRecord) { r.GrossQuantity = dec("-1") },
			detail: "gross_quantity must not be negative",
		},
		{
			name: "tare swallows gross",
			mutate: func(r *backend.TradeRecord) {
				r.GrossQuantity = dec("10")
				r.TotalTare = dec("10")
			},
			detail: "total tare must be less than gross quantity",
		},
		{
			name:   "missing counterparty",
			mutate: func(r *backend.TradeRecord) { r.Counterparty = "" },
			detail: "counterparty_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := purchaseRecord()
			tt.mutate(&rec)

			_, err := client.CreateRecord(ctx, backend.KindPurchase, rec)

			var rej *backend.ServerRejection
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, 422, rej.Status)
			assert.Contains(t, rej.Error(), tt.detail)
		})
	}
}

// =============================================================================
// PRICES
// =============================================================================

func TestLastPrice_ReflectsMostRecentTrade(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	// No history yet
	quote, err := client.LastPrice(ctx, "cotton", "farm-a")
	require.NoError(t, err)
	assert.Nil(t, quote)

	older := purchaseRecord()
	older.Date = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older.PricePerBaseUnit = dec("6.10")
	_, err = client.CreateRecord(ctx, backend.KindPurchase, older)
	require.NoError(t, err)

	newer := purchaseRecord()
	newer.PricePerBaseUnit = dec("6.349206")
	_, err = client.CreateRecord(ctx, backend.KindPurchase, newer)
	require.NoError(t, err)

	quote, err = client.LastPrice(ctx, "cotton", "farm-a")
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.True(t, quote.UnitPrice.Equal(dec("6.349206")), "latest trade wins")

	// A different counterparty has its own history
	quote, err = client.LastPrice(ctx, "cotton", "farm-b")
	require.NoError(t, err)
	assert.Nil(t, quote)
}

// =============================================================================
// JOURNAL
// =============================================================================

func entry(date time.Time, lines ...journal.JournalLine) journal.EntryDraft {
	return journal.EntryDraft{Date: date, Description: "cotton purchase", Lines: lines}
}

func TestJournal_BalancedEntryIsAccepted(t *testing.T) {
	client := newTestBackend(t)

	id, err := client.CreateEntry(context.Background(), entry(
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		journal.JournalLine{Account: "asset:inventory", Debit: dec("6222.22")},
		journal.JournalLine{Account: "asset:cash", Credit: dec("6222.22")},
	))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestJournal_UnbalancedEntryIsRejectedServerSide(t *testing.T) {
	// The server re-validates regardless of what the client checked
	client := newTestBackend(t)

	_, err := client.CreateEntry(context.Background(), entry(
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		journal.JournalLine{Account: "asset:inventory", Debit: dec("500")},
		journal.JournalLine{Account: "asset:cash", Credit: dec("300")},
	))

	var rej *backend.ServerRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 422, rej.Status)
	assert.Contains(t, rej.Error(), "does not balance")
	assert.Contains(t, rej.Error(), "200", "rejection detail names the difference")
}

// =============================================================================
// BALANCE SNAPSHOT
// =============================================================================

func TestSnapshot_EmptyJournalIsUnknown(t *testing.T) {
	client := newTestBackend(t)

	snapshot, err := client.BalanceSnapshot(context.Background())
	require.NoError(t, err)

	report := journal.ClassifySnapshot(*snapshot, journal.DefaultEpsilon)
	assert.Equal(t, journal.StateUnknown, report.State)
}

func TestSnapshot_BalancedBooks(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	// Owner puts in capital, then buys inventory with part of the cash
	_, err := client.CreateEntry(ctx, entry(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		journal.JournalLine{Account: "asset:cash", Debit: dec("10000")},
		journal.JournalLine{Account: "capital:owner", Credit: dec("10000")},
	))
	require.NoError(t, err)

	_, err = client.CreateEntry(ctx, entry(
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		journal.JournalLine{Account: "asset:inventory", Debit: dec("6222.22")},
		journal.JournalLine{Account: "asset:cash", Credit: dec("6222.22")},
	))
	require.NoError(t, err)

	snapshot, err := client.BalanceSnapshot(ctx)
	require.NoError(t, err)

	assert.True(t, snapshot.Assets.Equal(dec("10000")))
	assert.True(t, snapshot.Cash.Equal(dec("3777.78")))
	assert.True(t, snapshot.Inventory.Equal(dec("6222.22")))
	assert.True(t, snapshot.Capital.Equal(dec("10000")))
	require.NotNil(t, snapshot.Difference)
	assert.True(t, snapshot.Difference.IsZero())
	assert.Empty(t, snapshot.UnbalancedTransactions)

	report := journal.ClassifySnapshot(*snapshot, journal.DefaultEpsilon)
	assert.Equal(t, journal.StateBalanced, report.State)
}

func TestSnapshot_ProfitFoldsIntoEquation(t *testing.T) {
	client := newTestBackend(t)
	ctx := context.Background()

	// Sell inventory above cost: cash up 700, inventory down 500,
	// the 200 lands in a revenue account (P&L side)
	_, err := client.CreateEntry(ctx, entry(
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		journal.JournalLine{Account: "asset:cash", Debit: dec("700")},
		journal.JournalLine{Account: "asset:inventory", Credit: dec("500")},
		journal.JournalLine{Account: "revenue:sales", Credit: dec("200")},
	))
	require.NoError(t, err)

	snapshot, err := client.BalanceSnapshot(ctx)
	require.NoError(t, err)

	assert.True(t, snapshot.NetProfit.Equal(dec("200")))
	require.NotNil(t, snapshot.Difference)
	assert.True(t, snapshot.Difference.IsZero(), "assets = liabilities + capital + profit")
}

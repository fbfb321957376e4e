/*
Package sqlite provides the SQLite persistence behind the reference
development backend.

PURPOSE:
  Implements storage for the backend contracts: commodity reference data,
  trade records, journal entries, and the queries the snapshot and
  last-price endpoints are built on. The production system of record is
  external; this store exists so the full stack can run and be tested
  without it.

KEY TABLES:
  commodities:      Reference data (config_json mirrors the wire DTO)
  trade_records:    Persisted purchases/sales with raw + derived fields
  journal_entries:  Entry headers
  journal_lines:    Postings (exactly one of debit/credit nonzero)

DECIMALS:
  All monetary/quantity columns are TEXT holding decimal strings; values
  round-trip through shopspring/decimal without float drift.

WAL MODE:
  Opened with WAL for better read concurrency, same as any small
  single-writer deployment.

USAGE:
  store, err := sqlite.New("./data/trade.db")
  ...
  defer store.Close()

SEE ALSO:
  - server package: The HTTP layer over this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mazraa/trade-engine/backend"
	"github.com/mazraa/trade-engine/journal"
	"github.com/mazraa/trade-engine/trade"
)

// ErrNotFound is returned for lookups of missing rows.
var ErrNotFound = errors.New("not found")

// Store implements the reference backend's persistence.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) a store at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS commodities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_records (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		commodity_id TEXT NOT NULL,
		counterparty_id TEXT NOT NULL,
		trade_date TEXT NOT NULL,
		pricing_unit TEXT NOT NULL,
		conversion_factor TEXT NOT NULL,
		gross_quantity TEXT NOT NULL,
		bag_count TEXT NOT NULL,
		total_tare TEXT NOT NULL,
		net_quantity_base TEXT NOT NULL,
		price_per_base_unit TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		settlement_amount TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_kind_date
		ON trade_records(kind, trade_date DESC);

	-- Last-price lookup (hot path for the advisor)
	CREATE INDEX IF NOT EXISTS idx_records_commodity_counterparty_date
		ON trade_records(commodity_id, counterparty_id, trade_date DESC);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		entry_date TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id TEXT NOT NULL REFERENCES journal_entries(id),
		line_no INTEGER NOT NULL,
		account_id TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_lines_entry ON journal_lines(entry_id);
	CREATE INDEX IF NOT EXISTS idx_lines_account ON journal_lines(account_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// =============================================================================
// COMMODITIES
// =============================================================================

// UpsertCommodity stores reference data. The full commodity serializes
// into config_json so schema changes don't need migrations.
func (s *Store) UpsertCommodity(ctx context.Context, c trade.Commodity) error {
	cfg, err := json.Marshal(backend.CommodityToDTO(c))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commodities (id, name, config_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, config_json = excluded.config_json`,
		string(c.ID), c.Name, string(cfg), now())
	return err
}

func (s *Store) ListCommodities(ctx context.Context) ([]trade.Commodity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT config_json FROM commodities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []trade.Commodity
	for rows.Next() {
		var cfg string
		if err := rows.Scan(&cfg); err != nil {
			return nil, err
		}
		var dto backend.CommodityDTO
		if err := json.Unmarshal([]byte(cfg), &dto); err != nil {
			continue // skip unreadable rows
		}
		out = append(out, backend.CommodityFromDTO(dto))
	}
	return out, rows.Err()
}

func (s *Store) GetCommodity(ctx context.Context, id trade.CommodityID) (*trade.Commodity, error) {
	var cfg string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM commodities WHERE id = ?`, string(id)).Scan(&cfg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var dto backend.CommodityDTO
	if err := json.Unmarshal([]byte(cfg), &dto); err != nil {
		return nil, err
	}
	c := backend.CommodityFromDTO(dto)
	return &c, nil
}

// =============================================================================
// TRADE RECORDS
// =============================================================================

// InsertRecord assigns the identity and persists the record. The server,
// not the client, owns IDs.
func (s *Store) InsertRecord(ctx context.Context, rec backend.TradeRecord) (*backend.TradeRecord, error) {
	rec.ID = trade.RecordID(uuid.NewString())
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_records (
			id, kind, commodity_id, counterparty_id, trade_date,
			pricing_unit, conversion_factor, gross_quantity, bag_count,
			total_tare, net_quantity_base, price_per_base_unit,
			total_amount, settlement_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), string(rec.Kind), string(rec.Commodity), string(rec.Counterparty),
		rec.Date.Format(backend.DateLayout),
		string(rec.PricingUnit), rec.ConversionFactor.String(),
		rec.GrossQuantity.String(), rec.BagCount.String(), rec.TotalTare.String(),
		rec.NetQuantityBase.String(), rec.PricePerBaseUnit.String(),
		rec.TotalAmount.String(), rec.SettlementAmount.String(), ts, ts)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetRecord(ctx context.Context, kind backend.RecordKind, id trade.RecordID) (*backend.TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, commodity_id, counterparty_id, trade_date,
			pricing_unit, conversion_factor, gross_quantity, bag_count,
			total_tare, net_quantity_base, price_per_base_unit,
			total_amount, settlement_amount
		FROM trade_records WHERE id = ? AND kind = ?`, string(id), string(kind))
	return scanRecord(row)
}

func (s *Store) ListRecords(ctx context.Context, kind backend.RecordKind) ([]backend.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, commodity_id, counterparty_id, trade_date,
			pricing_unit, conversion_factor, gross_quantity, bag_count,
			total_tare, net_quantity_base, price_per_base_unit,
			total_amount, settlement_amount
		FROM trade_records WHERE kind = ? ORDER BY trade_date DESC, id`, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backend.TradeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// UpdateRecord applies a patch and returns the updated row.
func (s *Store) UpdateRecord(ctx context.Context, kind backend.RecordKind, id trade.RecordID, patch backend.RecordPatch) (*backend.TradeRecord, error) {
	current, err := s.GetRecord(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)

	_, err = s.db.ExecContext(ctx, `
		UPDATE trade_records SET
			trade_date = ?, gross_quantity = ?, bag_count = ?, total_tare = ?,
			net_quantity_base = ?, price_per_base_unit = ?, total_amount = ?,
			settlement_amount = ?, updated_at = ?
		WHERE id = ? AND kind = ?`,
		updated.Date.Format(backend.DateLayout),
		updated.GrossQuantity.String(), updated.BagCount.String(), updated.TotalTare.String(),
		updated.NetQuantityBase.String(), updated.PricePerBaseUnit.String(),
		updated.TotalAmount.String(), updated.SettlementAmount.String(),
		now(), string(id), string(kind))
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteRecord(ctx context.Context, kind backend.RecordKind, id trade.RecordID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trade_records WHERE id = ? AND kind = ?`,
		string(id), string(kind))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*backend.TradeRecord, error) {
	var (
		rec                                      backend.TradeRecord
		id, kind, commodity, counterparty, date  string
		unit, factor, gross, bags, tare          string
		net, priceBase, total, settlement        string
	)
	err := row.Scan(&id, &kind, &commodity, &counterparty, &date,
		&unit, &factor, &gross, &bags, &tare, &net, &priceBase, &total, &settlement)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.ID = trade.RecordID(id)
	rec.Kind = backend.RecordKind(kind)
	rec.Commodity = trade.CommodityID(commodity)
	rec.Counterparty = trade.CounterpartyID(counterparty)
	rec.Date, _ = time.Parse(backend.DateLayout, date)
	rec.PricingUnit = trade.Unit(unit)

	for _, pair := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&rec.ConversionFactor, factor}, {&rec.GrossQuantity, gross},
		{&rec.BagCount, bags}, {&rec.TotalTare, tare},
		{&rec.NetQuantityBase, net}, {&rec.PricePerBaseUnit, priceBase},
		{&rec.TotalAmount, total}, {&rec.SettlementAmount, settlement},
	} {
		d, err := decimal.NewFromString(pair.src)
		if err != nil {
			return nil, fmt.Errorf("corrupt decimal column: %w", err)
		}
		*pair.dst = d
	}
	return &rec, nil
}

// =============================================================================
// LAST PRICE
// =============================================================================

// LastPrice returns the most recent base-unit price this counterparty
// traded the commodity at, or nil when no history exists.
func (s *Store) LastPrice(ctx context.Context, commodity trade.CommodityID, counterparty trade.CounterpartyID) (*trade.PriceQuote, error) {
	var price, date, qty string
	err := s.db.QueryRowContext(ctx, `
		SELECT price_per_base_unit, trade_date, net_quantity_base
		FROM trade_records
		WHERE commodity_id = ? AND counterparty_id = ?
		ORDER BY trade_date DESC, updated_at DESC
		LIMIT 1`, string(commodity), string(counterparty)).Scan(&price, &date, &qty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	quantity, err := decimal.NewFromString(qty)
	if err != nil {
		return nil, err
	}
	asOf, _ := time.Parse(backend.DateLayout, date)
	return &trade.PriceQuote{UnitPrice: unitPrice, AsOf: asOf, Quantity: quantity}, nil
}

// =============================================================================
// JOURNAL
// =============================================================================

// InsertEntry persists a journal entry and its lines atomically.
func (s *Store) InsertEntry(ctx context.Context, entry journal.EntryDraft) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal_entries (id, entry_date, description, created_at)
		VALUES (?, ?, ?, ?)`,
		id, entry.Date.Format(backend.DateLayout), entry.Description, now())
	if err != nil {
		return "", err
	}

	for i, l := range entry.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO journal_lines (entry_id, line_no, account_id, debit, credit)
			VALUES (?, ?, ?, ?, ?)`,
			id, i, string(l.Account), l.Debit.String(), l.Credit.String())
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// =============================================================================
// BALANCE SNAPSHOT
// =============================================================================

// ComputeSnapshot derives the system balance figures from the journal.
// Accounts follow the "class:name" convention (asset:cash,
// liability:suppliers, capital:owner); anything else is P&L and folds
// into net profit.
func (s *Store) ComputeSnapshot(ctx context.Context) (*journal.BalanceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.entry_date, e.description, l.account_id, l.debit, l.credit
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		ORDER BY e.entry_date, e.id, l.line_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type entryTotals struct {
		date        time.Time
		description string
		debit       decimal.Decimal
		credit      decimal.Decimal
	}

	snapshot := &journal.BalanceSnapshot{AsOf: time.Now().UTC()}
	entries := map[string]*entryTotals{}
	var entryOrder []string
	hasLines := false

	for rows.Next() {
		var entryID, date, description, account, debitStr, creditStr string
		if err := rows.Scan(&entryID, &date, &description, &account, &debitStr, &creditStr); err != nil {
			return nil, err
		}
		hasLines = true

		debit, err := decimal.NewFromString(debitStr)
		if err != nil {
			return nil, err
		}
		credit, err := decimal.NewFromString(creditStr)
		if err != nil {
			return nil, err
		}

		et := entries[entryID]
		if et == nil {
			d, _ := time.Parse(backend.DateLayout, date)
			et = &entryTotals{date: d, description: description}
			entries[entryID] = et
			entryOrder = append(entryOrder, entryID)
		}
		et.debit = et.debit.Add(debit)
		et.credit = et.credit.Add(credit)

		// Balance-sheet classes accumulate on their natural side.
		net := debit.Sub(credit)
		switch {
		case strings.HasPrefix(account, "asset:"):
			snapshot.Assets = snapshot.Assets.Add(net)
			if account == "asset:cash" {
				snapshot.Cash = snapshot.Cash.Add(net)
			}
			if account == "asset:inventory" {
				snapshot.Inventory = snapshot.Inventory.Add(net)
			}
		case strings.HasPrefix(account, "liability:"):
			snapshot.Liabilities = snapshot.Liabilities.Add(net.Neg())
		case strings.HasPrefix(account, "capital:"):
			snapshot.Capital = snapshot.Capital.Add(net.Neg())
		default:
			snapshot.NetProfit = snapshot.NetProfit.Add(net.Neg())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// No postings yet: the balance is genuinely unknown, not zero.
	if !hasLines {
		return snapshot, nil
	}

	diff := snapshot.Assets.Sub(snapshot.Liabilities).Sub(snapshot.Capital).Sub(snapshot.NetProfit)
	snapshot.Difference = &diff

	for _, id := range entryOrder {
		et := entries[id]
		gap := et.debit.Sub(et.credit)
		if !gap.IsZero() {
			snapshot.UnbalancedTransactions = append(snapshot.UnbalancedTransactions, journal.UnbalancedTransaction{
				RecordID:    id,
				Date:        et.date,
				Description: et.description,
				Difference:  gap,
			})
		}
	}
	return snapshot, nil
}

/*
handlers.go - HTTP handlers for the reference development backend

PURPOSE:
  Exposes the trade ledger backend via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the store.

ENDPOINTS:
  Commodities:
    GET    /api/commodities            List commodity reference data
    GET    /api/commodities/{id}       Get one commodity

  Prices:
    GET    /api/prices/last            Last price for commodity+counterparty

  Records:
    GET    /api/records/{kind}         List purchase/sale records
    POST   /api/records/{kind}         Create record (server assigns ID)
    GET    /api/records/{kind}/{id}    Get record
    PUT    /api/records/{kind}/{id}    Patch record
    DELETE /api/records/{kind}/{id}    Delete record

  Journal:
    POST   /api/journal                Submit journal entry

  Balance:
    GET    /api/balance/snapshot       System balance snapshot

VALIDATION:
  The server validates independently of any client-side checks: record
  payloads are sanity-checked (known kind, known commodity, no negative
  quantities or prices) and journal entries are re-validated for
  double-entry balance. Client validation is an optimization, never a
  substitute.

ERROR HANDLING:
  Errors are returned as {"error": "..."} with appropriate HTTP status:
  - 400: Malformed request
  - 404: Resource not found
  - 422: Domain rejection (unbalanced entry, invalid record)
  - 500: Internal errors

SEE ALSO:
  - backend/dto.go: Wire types shared with the HTTP client
  - store/sqlite: Persistence
*/
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mazraa/trade-engine/backend"
	"github.com/mazraa/trade-engine/journal"
	"github.com/mazraa/trade-engine/store/sqlite"
	"github.com/mazraa/trade-engine/trade"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Epsilon is the balance tolerance used when re-validating journal
	// entries server-side.
	Epsilon decimal.Decimal
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Epsilon: journal.DefaultEpsilon,
	}
}

// =============================================================================
// COMMODITY HANDLERS
// =============================================================================

// ListCommodities returns all commodity reference data.
func (h *Handler) ListCommodities(w http.ResponseWriter, r *http.Request) {
	commodities, err := h.Store.ListCommodities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list commodities")
		return
	}

	dtos := make([]backend.CommodityDTO, len(commodities))
	for i, c := range commodities {
		dtos[i] = backend.CommodityToDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCommodity returns a single commodity.
func (h *Handler) GetCommodity(w http.ResponseWriter, r *http.Request) {
	id := trade.CommodityID(chi.URLParam(r, "id"))

	c, err := h.Store.GetCommodity(r.Context(), id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "commodity not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get commodity")
		return
	}
	writeJSON(w, http.StatusOK, backend.CommodityToDTO(*c))
}

// =============================================================================
// PRICE HANDLERS
// =============================================================================

// LastPrice returns the most recent traded price for a commodity and
// counterparty, or 204 when no history exists.
func (h *Handler) LastPrice(w http.ResponseWriter, r *http.Request) {
	commodity := trade.CommodityID(r.URL.Query().Get("commodity"))
	counterparty := trade.CounterpartyID(r.URL.Query().Get("counterparty"))
	if commodity == "" || counterparty == "" {
		writeError(w, http.StatusBadRequest, "commodity and counterparty are required")
		return
	}

	quote, err := h.Store.LastPrice(r.Context(), commodity, counterparty)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up price")
		return
	}
	if quote == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, backend.PriceQuoteToDTO(*quote))
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

func recordKind(r *http.Request) (backend.RecordKind, bool) {
	kind := backend.RecordKind(chi.URLParam(r, "kind"))
	return kind, kind == backend.KindPurchase || kind == backend.KindSale
}

// ListRecords returns all records of one kind, newest first.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	records, err := h.Store.ListRecords(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list records")
		return
	}

	dtos := make([]backend.TradeRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = backend.RecordToDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRecord returns a single record.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}
	id := trade.RecordID(chi.URLParam(r, "id"))

	rec, err := h.Store.GetRecord(r.Context(), kind, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	writeJSON(w, http.StatusOK, backend.RecordToDTO(*rec))
}

// CreateRecord validates and persists a new record. The response carries
// the server-assigned identity.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}

	var dto backend.TradeRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec := backend.RecordFromDTO(dto)
	rec.Kind = kind
	if msg := h.validateRecord(r, rec); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	created, err := h.Store.InsertRecord(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, backend.RecordToDTO(*created))
}

// UpdateRecord applies a partial update and returns the stored row.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}
	id := trade.RecordID(chi.URLParam(r, "id"))

	var dto backend.RecordPatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch := backend.PatchFromDTO(dto)

	current, err := h.Store.GetRecord(r.Context(), kind, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get record")
		return
	}
	if msg := h.validateRecord(r, patch.Apply(*current)); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	updated, err := h.Store.UpdateRecord(r.Context(), kind, id, patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update record")
		return
	}
	writeJSON(w, http.StatusOK, backend.RecordToDTO(*updated))
}

// DeleteRecord removes a record.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := recordKind(r)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown record kind")
		return
	}
	id := trade.RecordID(chi.URLParam(r, "id"))

	err := h.Store.DeleteRecord(r.Context(), kind, id)
	if errors.Is(err, sqlite.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateRecord sanity-checks a record about to be stored. Returns an
// empty string when valid, a rejection detail otherwise.
func (h *Handler) validateRecord(r *http.Request, rec backend.TradeRecord) string {
	if rec.Commodity == "" {
		return "commodity_id is required"
	}
	if rec.Counterparty == "" {
		return "counterparty_id is required"
	}
	if rec.Date.IsZero() {
		return "date is required"
	}
	if _, err := h.Store.GetCommodity(r.Context(), rec.Commodity); err != nil {
		return fmt.Sprintf("unknown commodity %q", rec.Commodity)
	}

	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"gross_quantity", rec.GrossQuantity},
		{"bag_count", rec.BagCount},
		{"total_tare", rec.TotalTare},
		{"net_quantity_base", rec.NetQuantityBase},
		{"price_per_base_unit", rec.PricePerBaseUnit},
		{"total_amount", rec.TotalAmount},
		{"settlement_amount", rec.SettlementAmount},
	} {
		if f.value.IsNegative() {
			return fmt.Sprintf("%s must not be negative", f.name)
		}
	}
	if rec.TotalTare.GreaterThanOrEqual(rec.GrossQuantity) && rec.GrossQuantity.IsPositive() {
		return "total tare must be less than gross quantity"
	}
	return ""
}

// =============================================================================
// JOURNAL HANDLERS
// =============================================================================

// CreateJournalEntry re-validates the double-entry balance and persists
// the entry. An unbalanced entry is rejected regardless of what the
// client checked.
func (h *Handler) CreateJournalEntry(w http.ResponseWriter, r *http.Request) {
	var req backend.JournalEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry := backend.EntryFromRequest(req)
	if entry.Date.IsZero() {
		writeError(w, http.StatusUnprocessableEntity, "entry_date is required")
		return
	}

	v := journal.ValidateEntry(entry.Lines, h.Epsilon)
	if !v.IsBalanced {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf(
			"entry does not balance: debits %s, credits %s, difference %s",
			v.TotalDebit, v.TotalCredit, v.Difference))
		return
	}

	id, err := h.Store.InsertEntry(r.Context(), entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create journal entry")
		return
	}
	writeJSON(w, http.StatusCreated, backend.JournalEntryResponse{ID: id})
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// BalanceSnapshot returns the system-wide balance figures.
func (h *Handler) BalanceSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Store.ComputeSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute snapshot")
		return
	}
	writeJSON(w, http.StatusOK, backend.SnapshotToDTO(*snapshot))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, backend.ErrorResponse{Error: message})
}

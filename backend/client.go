/*
client.go - HTTP implementation of the backend contracts

PURPOSE:
  The production implementation of every contract in contracts.go, over
  JSON/HTTP. Each call is bounded by the configured timeout; failures are
  sorted into the errors.go taxonomy so the mutation layer can decide
  between "retryable" and "the server said no".

TIMEOUT:
  Every request derives a context with the client's timeout (default 30s,
  configurable). Deadline expiry surfaces as a NetworkError with
  Timeout=true, which unwraps to ErrNetworkTimeout.

ERROR MAPPING:
  transport failure      -> *NetworkError (retryable)
  deadline exceeded      -> *NetworkError{Timeout: true}
  HTTP status >= 400     -> *ServerRejection carrying the server's
                            {"error": "..."} detail when the body has one

SEE ALSO:
  - server package: The matching reference implementation
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mazraa/trade-engine/journal"
	"github.com/mazraa/trade-engine/trade"
)

// DefaultTimeout bounds every network call unless configured otherwise.
const DefaultTimeout = 30 * time.Second

// Client talks to the authoritative backend over HTTP. It implements
// CommodityCatalog, PriceLookup, TransactionService, JournalService and
// SnapshotService.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a client for the backend at baseURL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
	}
}

// =============================================================================
// CONTRACT IMPLEMENTATIONS
// =============================================================================

func (c *Client) Commodities(ctx context.Context) ([]trade.Commodity, error) {
	var dtos []CommodityDTO
	if err := c.do(ctx, http.MethodGet, "/api/commodities", nil, &dtos, "load commodities"); err != nil {
		return nil, err
	}
	out := make([]trade.Commodity, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, CommodityFromDTO(d))
	}
	return out, nil
}

func (c *Client) Commodity(ctx context.Context, id trade.CommodityID) (*trade.Commodity, error) {
	var dto CommodityDTO
	if err := c.do(ctx, http.MethodGet, "/api/commodities/"+url.PathEscape(string(id)), nil, &dto, "load commodity"); err != nil {
		return nil, err
	}
	commodity := CommodityFromDTO(dto)
	return &commodity, nil
}

// LastPrice returns nil when no history exists (HTTP 204).
func (c *Client) LastPrice(ctx context.Context, commodity trade.CommodityID, counterparty trade.CounterpartyID) (*trade.PriceQuote, error) {
	q := url.Values{}
	q.Set("commodity", string(commodity))
	q.Set("counterparty", string(counterparty))

	var dto PriceQuoteDTO
	found, err := c.doOptional(ctx, "/api/prices/last?"+q.Encode(), &dto, "look up last price")
	if err != nil || !found {
		return nil, err
	}
	quote := PriceQuoteFromDTO(dto)
	return &quote, nil
}

func (c *Client) ListRecords(ctx context.Context, kind RecordKind) ([]TradeRecord, error) {
	var dtos []TradeRecordDTO
	op := fmt.Sprintf("list %s records", kind)
	if err := c.do(ctx, http.MethodGet, "/api/records/"+string(kind), nil, &dtos, op); err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, RecordFromDTO(d))
	}
	return out, nil
}

func (c *Client) CreateRecord(ctx context.Context, kind RecordKind, rec TradeRecord) (*TradeRecord, error) {
	rec.Kind = kind
	var dto TradeRecordDTO
	op := fmt.Sprintf("create %s record", kind)
	if err := c.do(ctx, http.MethodPost, "/api/records/"+string(kind), RecordToDTO(rec), &dto, op); err != nil {
		return nil, err
	}
	out := RecordFromDTO(dto)
	return &out, nil
}

func (c *Client) UpdateRecord(ctx context.Context, kind RecordKind, id trade.RecordID, patch RecordPatch) (*TradeRecord, error) {
	var dto TradeRecordDTO
	op := fmt.Sprintf("update %s record", kind)
	path := "/api/records/" + string(kind) + "/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodPut, path, PatchToDTO(patch), &dto, op); err != nil {
		return nil, err
	}
	out := RecordFromDTO(dto)
	return &out, nil
}

func (c *Client) DeleteRecord(ctx context.Context, kind RecordKind, id trade.RecordID) error {
	op := fmt.Sprintf("delete %s record", kind)
	path := "/api/records/" + string(kind) + "/" + url.PathEscape(string(id))
	return c.do(ctx, http.MethodDelete, path, nil, nil, op)
}

func (c *Client) CreateEntry(ctx context.Context, entry journal.EntryDraft) (string, error) {
	var resp JournalEntryResponse
	if err := c.do(ctx, http.MethodPost, "/api/journal", EntryToRequest(entry), &resp, "create journal entry"); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) BalanceSnapshot(ctx context.Context) (*journal.BalanceSnapshot, error) {
	var dto BalanceSnapshotDTO
	if err := c.do(ctx, http.MethodGet, "/api/balance/snapshot", nil, &dto, "load balance snapshot"); err != nil {
		return nil, err
	}
	snapshot := SnapshotFromDTO(dto)
	return &snapshot, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, body, out any, op string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.networkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.rejection(op, resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

// doOptional GETs a resource that may legitimately not exist (204).
// Returns found=false without error for the empty case.
func (c *Client) doOptional(ctx context.Context, path string, out any, op string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, c.networkError(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 400:
		return false, c.rejection(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return true, nil
}

func (c *Client) networkError(op string, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded)
	if !timeout {
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			timeout = true
		}
	}
	return &NetworkError{Op: op, Timeout: timeout, Err: err}
}

func (c *Client) rejection(op string, resp *http.Response) error {
	var body ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &ServerRejection{Op: op, Status: resp.StatusCode, Detail: body.Error}
}

/*
coordinator.go - Optimistic mutation state machine

PURPOSE:
  The single writer of the record cache. Update/delete apply their effect
  to the cache immediately (optimistic), send the request, and either
  commit (mark stale for lazy reconciliation) or roll back to an exact
  pre-mutation snapshot. Create never injects an unconfirmed record: no
  server-assigned identity exists yet, so the cache waits.

STATE MACHINE (per mutation):
  Idle -> Pending -> {Committed | RolledBack}

SNAPSHOT ARENA:
  Pre-mutation state is held in an explicit arena keyed by mutation ID,
  not in closures. Rollback restores deterministically from the arena and
  discards the entry; an entry leaves the arena only when its mutation
  reaches a terminal state.

CANCEL-THEN-RESTART:
  At most one in-flight mutation per record ID. A new mutation on the same
  ID cancels the in-flight request and restarts with the merged patch,
  against the ORIGINAL snapshot. Stacked edits therefore produce exactly
  one committed server call carrying the final state.

ERROR DISCIPLINE:
  This is the sole catcher of backend.NetworkError/ServerRejection. Every
  mutation is all-or-nothing against the cache: the cache is never left
  half-applied.

SEE ALSO:
  - recordset.go: The cache being coordinated
  - backend/errors.go: The failure taxonomy handled here
*/
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mazraa/trade-engine/backend"
	"github.com/mazraa/trade-engine/trade"
)

// =============================================================================
// STATES AND ERRORS
// =============================================================================

type MutationState string

const (
	StateIdle       MutationState = "idle"
	StatePending    MutationState = "pending"
	StateCommitted  MutationState = "committed"
	StateRolledBack MutationState = "rolled_back"
)

var (
	// ErrUnknownRecord is returned when mutating a record the cache
	// doesn't hold.
	ErrUnknownRecord = errors.New("record not in cache")

	// ErrNothingToRetry is returned when Retry finds no failed mutation
	// for the record.
	ErrNothingToRetry = errors.New("no failed mutation to retry")
)

// Invalidatable is a dependent aggregate cache (summary figures, report
// data) marked stale when any mutation settles. Refresh is the owner's
// concern, on next read.
type Invalidatable interface {
	MarkStale()
}

// =============================================================================
// MUTATION
// =============================================================================

type mutationKind string

const (
	mutationUpdate mutationKind = "update"
	mutationDelete mutationKind = "delete"
)

// Mutation is one optimistic update/delete in flight or settled.
type Mutation struct {
	ID     string
	Record trade.RecordID

	kind  mutationKind
	patch backend.RecordPatch

	coord      *Coordinator
	runCtx     context.Context
	cancel     context.CancelFunc
	superseded bool
	state      MutationState
	err        error
	done       chan struct{}
}

// State returns the mutation's current state.
func (m *Mutation) State() MutationState {
	m.coord.mu.Lock()
	defer m.coord.mu.Unlock()
	return m.state
}

// Wait blocks until the mutation reaches a terminal state and returns the
// failure, if any. A superseded mutation returns nil: its effect lives on
// in the restarted mutation.
func (m *Mutation) Wait() error {
	<-m.done
	m.coord.mu.Lock()
	defer m.coord.mu.Unlock()
	return m.err
}

type snapshot struct {
	record  backend.TradeRecord
	existed bool
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator manages optimistic mutations for one record set (sales or
// purchases). Safe for concurrent use.
type Coordinator struct {
	kind backend.RecordKind
	svc  backend.TransactionService
	set  *RecordSet[backend.TradeRecord]
	deps []Invalidatable
	log  *slog.Logger

	mu         sync.Mutex
	inflight   map[trade.RecordID]*Mutation
	lastFailed map[trade.RecordID]*Mutation
	arena      map[string]snapshot
}

// NewCoordinator creates a coordinator writing to set through svc.
// deps are dependent aggregate caches invalidated on settlement.
func NewCoordinator(kind backend.RecordKind, svc backend.TransactionService, set *RecordSet[backend.TradeRecord], deps ...Invalidatable) *Coordinator {
	return &Coordinator{
		kind:       kind,
		svc:        svc,
		set:        set,
		deps:       deps,
		log:        slog.Default(),
		inflight:   make(map[trade.RecordID]*Mutation),
		lastFailed: make(map[trade.RecordID]*Mutation),
		arena:      make(map[string]snapshot),
	}
}

// Records exposes the coordinated set for readers and subscribers.
func (c *Coordinator) Records() *RecordSet[backend.TradeRecord] { return c.set }

// Pending reports whether an optimistic mutation is in flight for id.
// Callers use this to visually distinguish unsettled values.
func (c *Coordinator) Pending(id trade.RecordID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[id] != nil
}

// =============================================================================
// REFRESH
// =============================================================================

// Refresh reloads the set from the backend and clears staleness. Skipped
// while any mutation is in flight: the fetch would race the optimistic
// values, and refresh is lazy anyway - the set stays stale and the next
// read triggers another attempt.
func (c *Coordinator) Refresh(ctx context.Context, lister backend.RecordLister) error {
	c.mu.Lock()
	busy := len(c.inflight) > 0
	c.mu.Unlock()
	if busy {
		return nil
	}

	records, err := lister.ListRecords(ctx, c.kind)
	if err != nil {
		c.log.Warn("refresh failed", "kind", c.kind, "err", err)
		return err
	}

	byID := make(map[string]backend.TradeRecord, len(records))
	for _, r := range records {
		byID[string(r.ID)] = r
	}
	c.set.Reset(byID)
	return nil
}

// =============================================================================
// CREATE - No optimistic injection
// =============================================================================

// Create submits a new record and waits for the server-assigned identity
// before the cache is touched. There is no tentative ID to key an
// optimistic entry by.
func (c *Coordinator) Create(ctx context.Context, rec backend.TradeRecord) (*backend.TradeRecord, error) {
	created, err := c.svc.CreateRecord(ctx, c.kind, rec)
	if err != nil {
		c.log.Warn("create failed", "kind", c.kind, "err", err)
		return nil, err
	}
	c.set.Put(string(created.ID), *created)
	c.settle()
	return created, nil
}

// =============================================================================
// UPDATE / DELETE - Optimistic with rollback
// =============================================================================

// Update applies patch to the cached record immediately and sends the
// request. If a mutation is already pending on id, it is canceled and the
// patches merge into one restarted request (cancel-then-restart).
func (c *Coordinator) Update(ctx context.Context, id trade.RecordID, patch backend.RecordPatch) (*Mutation, error) {
	c.mu.Lock()
	snap, patch, err := c.takeoverLocked(id, patch)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	m := c.startLocked(ctx, id, mutationUpdate, patch, snap)
	c.mu.Unlock()

	// Optimistic value is the merged patch over the original snapshot, so
	// stacked edits never compound on top of each other.
	c.set.Put(string(id), patch.Apply(snap.record))

	go c.run(m)
	return m, nil
}

// Delete removes the cached record immediately and sends the request. An
// in-flight mutation on the same id is canceled first; delete wins over
// any pending patch.
func (c *Coordinator) Delete(ctx context.Context, id trade.RecordID) (*Mutation, error) {
	c.mu.Lock()
	snap, _, err := c.takeoverLocked(id, backend.RecordPatch{})
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	m := c.startLocked(ctx, id, mutationDelete, backend.RecordPatch{}, snap)
	c.mu.Unlock()

	c.set.Remove(string(id))

	go c.run(m)
	return m, nil
}

// Retry re-submits the last rolled-back mutation for id.
func (c *Coordinator) Retry(ctx context.Context, id trade.RecordID) (*Mutation, error) {
	c.mu.Lock()
	failed := c.lastFailed[id]
	if failed == nil {
		c.mu.Unlock()
		return nil, ErrNothingToRetry
	}
	delete(c.lastFailed, id)
	kind, patch := failed.kind, failed.patch
	c.mu.Unlock()

	if kind == mutationDelete {
		return c.Delete(ctx, id)
	}
	return c.Update(ctx, id, patch)
}

// Cancel aborts a pending mutation and rolls the cache back to the
// pre-mutation snapshot. No-op when nothing is pending.
func (c *Coordinator) Cancel(id trade.RecordID) {
	c.mu.Lock()
	m := c.inflight[id]
	if m == nil {
		c.mu.Unlock()
		return
	}
	m.superseded = true
	m.cancel()
	delete(c.inflight, id)
	snap := c.arena[m.ID]
	delete(c.arena, m.ID)
	m.state = StateRolledBack
	c.mu.Unlock()

	c.set.Restore(string(id), snap.record, snap.existed)
	c.log.Info("mutation canceled", "kind", c.kind, "record", id, "mutation", m.ID)
}

// =============================================================================
// INTERNALS
// =============================================================================

// takeoverLocked prepares the snapshot for a new mutation on id. When a
// mutation is already pending it is canceled, its snapshot is inherited,
// and its patch merges under the incoming one.
func (c *Coordinator) takeoverLocked(id trade.RecordID, patch backend.RecordPatch) (snapshot, backend.RecordPatch, error) {
	if prev := c.inflight[id]; prev != nil {
		prev.superseded = true
		prev.cancel()
		delete(c.inflight, id)

		snap := c.arena[prev.ID]
		delete(c.arena, prev.ID)

		c.log.Debug("mutation restarted", "kind", c.kind, "record", id, "superseded", prev.ID)
		return snap, prev.patch.Merge(patch), nil
	}

	rec, ok := c.set.Get(string(id))
	if !ok {
		return snapshot{}, patch, ErrUnknownRecord
	}
	return snapshot{record: rec, existed: true}, patch, nil
}

func (c *Coordinator) startLocked(ctx context.Context, id trade.RecordID, kind mutationKind, patch backend.RecordPatch, snap snapshot) *Mutation {
	mctx, cancel := context.WithCancel(ctx)
	m := &Mutation{
		ID:     uuid.NewString(),
		Record: id,
		kind:   kind,
		patch:  patch,
		coord:  c,
		cancel: cancel,
		state:  StatePending,
		done:   make(chan struct{}),
	}
	m.runCtx = mctx
	c.arena[m.ID] = snap
	c.inflight[id] = m
	return m
}

// run sends the request and settles the mutation. The cache is restored
// exactly from the arena on failure; a superseded mutation touches nothing
// because its successor inherited the snapshot.
func (c *Coordinator) run(m *Mutation) {
	defer close(m.done)

	var (
		updated *backend.TradeRecord
		err     error
	)
	switch m.kind {
	case mutationUpdate:
		updated, err = c.svc.UpdateRecord(m.runCtx, c.kind, m.Record, m.patch)
	case mutationDelete:
		err = c.svc.DeleteRecord(m.runCtx, c.kind, m.Record)
	}
	m.cancel()

	c.mu.Lock()
	if m.superseded {
		// The restarted mutation owns the snapshot and the cache state.
		c.mu.Unlock()
		return
	}
	delete(c.inflight, m.Record)

	if err != nil {
		snap := c.arena[m.ID]
		delete(c.arena, m.ID)
		m.state = StateRolledBack
		m.err = err
		c.lastFailed[m.Record] = m
		c.mu.Unlock()

		c.set.Restore(string(m.Record), snap.record, snap.existed)
		c.log.Warn("mutation rolled back", "kind", c.kind, "record", m.Record,
			"mutation", m.ID, "retryable", backend.IsRetryable(err), "err", err)
		return
	}

	delete(c.arena, m.ID)
	delete(c.lastFailed, m.Record)
	m.state = StateCommitted
	c.mu.Unlock()

	if m.kind == mutationUpdate && updated != nil {
		c.set.Put(string(m.Record), *updated)
	}
	c.settle()
	c.log.Debug("mutation committed", "kind", c.kind, "record", m.Record, "mutation", m.ID)
}

// settle marks the set and every dependent aggregate stale. Nothing is
// recomputed synchronously; readers refresh lazily.
func (c *Coordinator) settle() {
	c.set.MarkStale()
	for _, d := range c.deps {
		d.MarkStale()
	}
}

/*
Package cache holds the client-side view of persisted records and the
optimistic mutation coordinator that keeps it consistent.

PURPOSE:
  The backend is the system of record; this package is the client's local
  mirror of it. Records are fetched once, read many times, and mutated
  ONLY by the Coordinator (coordinator.go). Everything else subscribes and
  receives invalidation notifications.

KEY CONCEPTS IN THIS FILE (recordset.go):
  - RecordSet[T]: Keyed collection with a staleness flag and TTL
  - Subscription: Change/invalidation notifications, never direct writes
  - Staleness: A stale set still serves reads; refresh is lazy

WRITER DISCIPLINE:
  The RecordSet exposes mutating methods, but the only caller of those is
  the Coordinator. Other components read through Get/List and subscribe.

SEE ALSO:
  - coordinator.go: The single writer
*/
package cache

import (
	"sort"
	"sync"
	"time"
)

// =============================================================================
// EVENTS
// =============================================================================

// EventType describes why subscribers are being poked.
type EventType string

const (
	// EventChanged: a record was inserted, replaced or removed.
	EventChanged EventType = "changed"
	// EventStale: the set needs a refetch; current data still serves reads.
	EventStale EventType = "stale"
)

type Event struct {
	Type EventType
	// Key is the affected record key for EventChanged; empty for set-wide
	// events.
	Key string
}

// =============================================================================
// RECORD SET
// =============================================================================

// RecordSet is a keyed collection of persisted records shared read-many.
// Safe for concurrent use.
type RecordSet[T any] struct {
	mu       sync.RWMutex
	records  map[string]T
	stale    bool
	loadedAt time.Time
	ttl      time.Duration

	subMu sync.Mutex
	subs  map[int]chan Event
	nextSub int
}

// NewRecordSet creates an empty, stale set. A zero ttl disables expiry.
func NewRecordSet[T any](ttl time.Duration) *RecordSet[T] {
	return &RecordSet[T]{
		records: make(map[string]T),
		stale:   true,
		ttl:     ttl,
		subs:    make(map[int]chan Event),
	}
}

// Reset replaces the whole set with freshly fetched data and clears
// staleness. Called after a (re)fetch settles.
func (s *RecordSet[T]) Reset(records map[string]T) {
	s.mu.Lock()
	s.records = make(map[string]T, len(records))
	for k, v := range records {
		s.records[k] = v
	}
	s.stale = false
	s.loadedAt = time.Now()
	s.mu.Unlock()
	s.notify(Event{Type: EventChanged})
}

// Get returns the record for key. Reads observe optimistic values while a
// mutation is pending.
func (s *RecordSet[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	return v, ok
}

// List returns all records ordered by key.
func (s *RecordSet[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.records[k])
	}
	return out
}

// Len returns the number of records currently visible.
func (s *RecordSet[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Put inserts or replaces a record. Coordinator only.
func (s *RecordSet[T]) Put(key string, record T) {
	s.mu.Lock()
	s.records[key] = record
	s.mu.Unlock()
	s.notify(Event{Type: EventChanged, Key: key})
}

// Remove deletes a record. Coordinator only.
func (s *RecordSet[T]) Remove(key string) {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	s.notify(Event{Type: EventChanged, Key: key})
}

// Restore puts a snapshotted record back, or removes the key when the
// snapshot says it didn't exist. Coordinator rollback only.
func (s *RecordSet[T]) Restore(key string, record T, existed bool) {
	s.mu.Lock()
	if existed {
		s.records[key] = record
	} else {
		delete(s.records, key)
	}
	s.mu.Unlock()
	s.notify(Event{Type: EventChanged, Key: key})
}

// =============================================================================
// STALENESS
// =============================================================================

// MarkStale flags the set for lazy refetch. Data keeps serving reads.
func (s *RecordSet[T]) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
	s.notify(Event{Type: EventStale})
}

// IsStale reports whether the set needs a refetch, either because a
// mutation settled or because the TTL expired.
func (s *RecordSet[T]) IsStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stale {
		return true
	}
	return s.ttl > 0 && time.Since(s.loadedAt) > s.ttl
}

// =============================================================================
// SUBSCRIPTION
// =============================================================================

// Subscribe registers for change/invalidation events. The returned cancel
// func must be called when the subscriber goes away. Slow subscribers drop
// events rather than block the writer.
func (s *RecordSet[T]) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, 16)
	s.subs[id] = ch
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *RecordSet[T]) notify(e Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is behind; it will resync from the set anyway.
		}
	}
}

package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazraa/trade-engine/backend"
	"github.com/mazraa/trade-engine/cache"
)

// =============================================================================
// RECORD SET
// =============================================================================

func TestRecordSet_StartsStale(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](0)
	assert.True(t, set.IsStale(), "an unfetched set is stale by definition")

	set.Reset(map[string]backend.TradeRecord{"7": record("7")})
	assert.False(t, set.IsStale())
	assert.Equal(t, 1, set.Len())
}

func TestRecordSet_ListOrderedByKey(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](0)
	set.Reset(map[string]backend.TradeRecord{
		"9": record("9"),
		"1": record("1"),
		"5": record("5"),
	})

	list := set.List()
	require.Len(t, list, 3)
	assert.Equal(t, "1", string(list[0].ID))
	assert.Equal(t, "5", string(list[1].ID))
	assert.Equal(t, "9", string(list[2].ID))
}

func TestRecordSet_TTLExpiry(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](10 * time.Millisecond)
	set.Reset(map[string]backend.TradeRecord{"7": record("7")})
	require.False(t, set.IsStale())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, set.IsStale(), "TTL expiry makes the set stale without a mutation")
}

func TestRecordSet_StaleStillServesReads(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](0)
	set.Reset(map[string]backend.TradeRecord{"7": record("7")})
	set.MarkStale()

	_, ok := set.Get("7")
	assert.True(t, ok, "staleness flags a refetch; it never drops data")
}

// =============================================================================
// SUBSCRIPTION
// =============================================================================

func TestSubscribe_ReceivesChangeAndStaleEvents(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](0)
	events, cancel := set.Subscribe()
	defer cancel()

	set.Put("7", record("7"))
	e := <-events
	assert.Equal(t, cache.EventChanged, e.Type)
	assert.Equal(t, "7", e.Key)

	set.MarkStale()
	e = <-events
	assert.Equal(t, cache.EventStale, e.Type)
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](0)
	events, cancel := set.Subscribe()
	cancel()

	// Closed channel: reads drain immediately.
	_, open := <-events
	assert.False(t, open)

	// Writes after cancel must not panic.
	set.Put("7", record("7"))
}

func TestSubscribe_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	set := cache.NewRecordSet[backend.TradeRecord](0)
	_, cancel := set.Subscribe()
	defer cancel()

	// Fill well past the buffer; the writer must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			set.MarkStale()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer blocked on a slow subscriber")
	}
}

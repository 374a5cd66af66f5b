package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("sess-%d", n)
	}
}

func newTestMemoryStore(clock *fakeClock) *MemoryStore {
	return NewMemoryStore(
		WithTimeout(time.Hour),
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs()),
	)
}

func TestMemoryStoreResolveCreatesAndReuses(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
	store := newTestMemoryStore(clock)

	h, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	assert.True(t, h.Created)
	id := h.Session.ID
	h.Session.TurnCount = 2
	require.NoError(t, h.Release(ctx))

	clock.Advance(30 * time.Minute)
	h, err = store.Resolve(ctx, id)
	require.NoError(t, err)
	assert.False(t, h.Created)
	assert.Equal(t, id, h.Session.ID)
	assert.Equal(t, 2, h.Session.TurnCount)
	assert.Equal(t, clock.Now(), h.Session.LastActiveAt)
	require.NoError(t, h.Release(ctx))
	assert.ErrorIs(t, h.Release(ctx), ErrReleased)
}

func TestMemoryStoreUnknownIDGetsFreshSession(t *testing.T) {
	ctx := context.Background()
	store := newTestMemoryStore(&fakeClock{now: time.Now()})

	h, err := store.Resolve(ctx, "s1")
	require.NoError(t, err)
	defer h.Release(ctx)
	assert.True(t, h.Created)
	assert.NotEqual(t, "s1", h.Session.ID)
	assert.Zero(t, h.Session.TurnCount)
}

func TestMemoryStoreExpiryReplacesState(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
	store := newTestMemoryStore(clock)

	h, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	oldID := h.Session.ID
	h.Session.BookingOffered = true
	h.Session.TurnCount = 5
	require.NoError(t, h.Release(ctx))

	clock.Advance(time.Hour + time.Second)
	h, err = store.Resolve(ctx, oldID)
	require.NoError(t, err)
	defer h.Release(ctx)

	assert.True(t, h.Created)
	assert.NotEqual(t, oldID, h.Session.ID)
	assert.False(t, h.Session.BookingOffered)
	assert.Zero(t, h.Session.TurnCount)
	assert.Equal(t, 1, store.Len(), "expired entry is dropped on access")
}

func TestMemoryStoreIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	// generator repeats itself before producing a new value
	calls := 0
	store := NewMemoryStore(WithIDGenerator(func() string {
		calls++
		if calls <= 3 {
			return "dup"
		}
		return fmt.Sprintf("id-%d", calls)
	}))

	first, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	require.NoError(t, first.Release(ctx))
	second, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))

	assert.Equal(t, "dup", first.Session.ID)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
}

func TestMemoryStoreSerializesSameSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	h, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	id := h.Session.ID
	require.NoError(t, h.Release(ctx))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := store.Resolve(ctx, id)
			if err != nil {
				return
			}
			h.Session.TurnCount++
			_ = h.Release(ctx)
		}()
	}
	wg.Wait()

	h, err = store.Resolve(ctx, id)
	require.NoError(t, err)
	defer h.Release(ctx)
	assert.Equal(t, workers, h.Session.TurnCount)
}

func TestMemoryStoreDifferentSessionsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	held, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	defer held.Release(ctx)

	done := make(chan struct{})
	go func() {
		h, err := store.Resolve(ctx, "")
		if err == nil {
			_ = h.Release(ctx)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("resolving a new session blocked behind a held one")
	}
}

func TestMemoryStoreResolveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Resolve(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
	store := newTestMemoryStore(clock)

	idle, err := store.Resolve(ctx, "")
	require.NoError(t, err)
	require.NoError(t, idle.Release(ctx))

	clock.Advance(50 * time.Minute)
	busy, err := store.Resolve(ctx, "")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	// busy is still held, so it survives this sweep
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	require.NoError(t, busy.Release(ctx))
	assert.Equal(t, 1, store.Sweep())
	assert.Zero(t, store.Len())
}

package timesync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirekit/wirectl/internal/kvstore"
)

// fakeClock lets tests move the monotonic and system readings independently,
// including moving the system clock backwards.
type fakeClock struct {
	mu        sync.Mutex
	monotonic float64
	system    float64
}

func (c *fakeClock) Monotonic() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monotonic
}

func (c *fakeClock) System() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.system
}

func (c *fakeClock) advance(seconds float64) {
	c.mu.Lock()
	c.monotonic += seconds
	c.system += seconds
	c.mu.Unlock()
}

// countingStore counts Set calls per key.
type countingStore struct {
	kvstore.Store
	mu   sync.Mutex
	sets map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{Store: kvstore.NewMemory(), sets: make(map[string]int)}
}

func (s *countingStore) Set(key, value string) error {
	s.mu.Lock()
	s.sets[key]++
	s.mu.Unlock()
	return s.Store.Set(key, value)
}

func (s *countingStore) setCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key]
}

func TestServerOffsetOnlyMovesForward(t *testing.T) {
	clock := &fakeClock{monotonic: 0, system: 1000}
	e, err := Load(kvstore.NewMemory(), clock)
	require.NoError(t, err)

	e.UpdateServerOffset(5)
	require.Equal(t, 5.0, e.Offset())

	e.UpdateServerOffset(3) // smaller, dropped
	require.Equal(t, 5.0, e.Offset())

	e.UpdateServerOffset(7)
	require.Equal(t, 7.0, e.Offset())
}

func TestDNSOffsetOverwrites(t *testing.T) {
	clock := &fakeClock{monotonic: 0, system: 1000}
	e, err := Load(kvstore.NewMemory(), clock)
	require.NoError(t, err)

	e.UpdateDNSOffset(4)
	require.Equal(t, 4.0, e.Offset())

	e.UpdateDNSOffset(2) // overwrite allowed in both directions
	require.Equal(t, 2.0, e.Offset())
}

func TestOffsetPrefersLargerWhenBothUpdated(t *testing.T) {
	clock := &fakeClock{monotonic: 0, system: 1000}
	e, err := Load(kvstore.NewMemory(), clock)
	require.NoError(t, err)

	e.UpdateServerOffset(5)
	e.UpdateDNSOffset(3)
	require.Equal(t, 5.0, e.Offset())

	e.UpdateDNSOffset(9)
	require.Equal(t, 9.0, e.Offset())
}

func TestOffsetDefaultsToLoadedStateBeforeUpdates(t *testing.T) {
	clock := &fakeClock{monotonic: 50, system: 1000}
	e, err := Load(kvstore.NewMemory(), clock)
	require.NoError(t, err)

	// Neither slot updated, store attached: the initialized default applies.
	require.Equal(t, 950.0, e.Offset())
}

func TestOffsetRecomputesAfterDetach(t *testing.T) {
	clock := &fakeClock{monotonic: 50, system: 1000}
	e, err := Load(kvstore.NewMemory(), clock)
	require.NoError(t, err)

	e.Detach()
	clock.mu.Lock()
	clock.system = 2000
	clock.monotonic = 60
	clock.mu.Unlock()

	require.Equal(t, 1940.0, e.Offset())
}

func TestLoadAppliesBackwardsClockFix(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Set("server_time_difference", kvstore.EncodeFloat64(5)))
	require.NoError(t, store.Set("system_time", kvstore.EncodeFloat64(1000)))

	// System clock was moved back 100 seconds between runs.
	clock := &fakeClock{monotonic: 50, system: 900}
	e, err := Load(store, clock)
	require.NoError(t, err)

	// saved_diff + (system - monotonic) + backwards fix = 5 + 850 + 100.
	require.Equal(t, 955.0, e.Offset())
}

func TestLoadWithoutSavedSystemTimeSkipsFix(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Set("server_time_difference", kvstore.EncodeFloat64(5)))

	clock := &fakeClock{monotonic: 50, system: 900}
	e, err := Load(store, clock)
	require.NoError(t, err)
	require.Equal(t, 855.0, e.Offset())
}

func TestLoadFailsOnMalformedValues(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Set("server_time_difference", "garbage"))

	_, err := Load(store, &fakeClock{system: 1000})
	require.ErrorIs(t, err, kvstore.ErrMalformedValue)

	store = kvstore.NewMemory()
	require.NoError(t, store.Set("server_time_difference", kvstore.EncodeFloat64(5)))
	require.NoError(t, store.Set("system_time", "bad"))

	_, err = Load(store, &fakeClock{system: 1000})
	require.ErrorIs(t, err, kvstore.ErrMalformedValue)
}

func TestSystemTimeWritesAreThrottled(t *testing.T) {
	store := newCountingStore()
	clock := &fakeClock{monotonic: 0, system: 1000}
	e, err := Load(store, clock)
	require.NoError(t, err)

	e.UpdateServerOffset(1)
	require.Equal(t, 1, store.setCount("system_time"))
	require.Equal(t, 1, store.setCount("server_time_difference"))

	clock.advance(5)
	e.UpdateServerOffset(2) // accepted, offset written, system time throttled
	require.Equal(t, 1, store.setCount("system_time"))
	require.Equal(t, 2, store.setCount("server_time_difference"))

	clock.advance(6) // past the 10s window now
	e.UpdateServerOffset(3)
	require.Equal(t, 2, store.setCount("system_time"))
}

func TestAcceptedOffsetSurvivesReload(t *testing.T) {
	store := kvstore.NewMemory()
	clock := &fakeClock{monotonic: 100, system: 1000}
	e, err := Load(store, clock)
	require.NoError(t, err)

	e.UpdateServerOffset(930)

	// Restart: fresh monotonic origin, system clock ticked forward.
	reClock := &fakeClock{monotonic: 0, system: 1010}
	reloaded, err := Load(store, reClock)
	require.NoError(t, err)

	// offset was 930 with system-monotonic = 900, so the server led the
	// system clock by 30; after restart the estimate keeps that lead.
	require.InDelta(t, 1040.0, reloaded.Offset(), 1e-9)
}

func TestSnapshotReportsSlots(t *testing.T) {
	clock := &fakeClock{monotonic: 0, system: 1000}
	e, err := Load(kvstore.NewMemory(), clock)
	require.NoError(t, err)

	s := e.Snapshot()
	require.False(t, s.ServerUpdated)
	require.False(t, s.DNSUpdated)

	e.UpdateServerOffset(7)
	e.UpdateDNSOffset(3)
	s = e.Snapshot()
	require.True(t, s.ServerUpdated)
	require.True(t, s.DNSUpdated)
	require.Equal(t, 7.0, s.ServerOffset)
	require.Equal(t, 3.0, s.DNSOffset)
}

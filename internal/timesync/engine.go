// Package timesync reconciles two independently-unreliable clock offset
// signals (authoritative server responses and best-effort DNS-derived
// timestamps) into the best available estimate of remote wall clock minus
// local monotonic time, and persists it with bounded write frequency.
package timesync

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/wirekit/wirectl/internal/kvstore"
	"github.com/wirekit/wirectl/internal/observability"
)

const (
	keyServerTimeDifference = "server_time_difference"
	keySystemTime           = "system_time"

	// Minimum monotonic seconds between persisted system-time writes.
	persistInterval = 10
)

// Engine holds the two signal slots and the persistence throttle. Offsets are
// guarded by the mutex; the throttle timestamp alone is atomic because it only
// gates a rate limit.
type Engine struct {
	clock Clock

	mu            sync.Mutex
	store         kvstore.Store // nil once detached at shutdown
	serverDiff    float64
	serverUpdated bool
	dnsDiff       float64
	dnsUpdated    bool

	savedAt atomic.Uint64 // Float64bits of the last persisted monotonic time
}

// State is a point-in-time snapshot of both signal slots.
type State struct {
	ServerOffset  float64 `json:"server_offset"`
	ServerUpdated bool    `json:"server_updated"`
	DNSOffset     float64 `json:"dns_offset"`
	DNSUpdated    bool    `json:"dns_updated"`
}

// Load restores persisted sync state from the store, falling back to a
// system-clock-derived default when nothing was saved. A present but
// malformed value is fatal: proceeding with a silently wrong clock offset
// would break authentication downstream.
func Load(store kvstore.Store, clock Clock) (*Engine, error) {
	system := clock.System()
	defaultDiff := system - clock.Monotonic()

	e := &Engine{
		clock:      clock,
		store:      store,
		serverDiff: defaultDiff,
		dnsDiff:    defaultDiff,
	}
	// Far in the past so the first accepted update persists immediately.
	e.savedAt.Store(math.Float64bits(-1e10))

	rawDiff, ok, err := store.Get(keyServerTimeDifference)
	if err != nil {
		return nil, fmt.Errorf("timesync: load %q: %w", keyServerTimeDifference, err)
	}
	if !ok {
		return e, nil
	}

	savedDiff, err := kvstore.DecodeFloat64(rawDiff)
	if err != nil {
		return nil, fmt.Errorf("timesync: load %q: %w", keyServerTimeDifference, err)
	}

	// A missing saved system time decodes as zero, which is always in the
	// past and therefore never triggers the backwards fix.
	var savedSystem float64
	rawSystem, ok, err := store.Get(keySystemTime)
	if err != nil {
		return nil, fmt.Errorf("timesync: load %q: %w", keySystemTime, err)
	}
	if ok {
		savedSystem, err = kvstore.DecodeFloat64(rawSystem)
		if err != nil {
			return nil, fmt.Errorf("timesync: load %q: %w", keySystemTime, err)
		}
	}

	diff := savedDiff + defaultDiff
	if savedSystem > system {
		fix := savedSystem - system
		log.Warn().
			Float64("fix_seconds", fix).
			Float64("saved_system_time", savedSystem).
			Float64("system_time", system).
			Msg("timesync_system_clock_moved_backwards")
		diff += fix
	}
	log.Debug().Float64("server_time_difference", diff).Msg("timesync_loaded")
	e.serverDiff = diff
	return e, nil
}

// UpdateServerOffset applies a freshly observed server-derived offset. The
// slot only moves forward: a smaller candidate is dropped because "server is
// further ahead" is the safer assumption under clock drift. Accepted values
// are persisted immediately, plus a throttled system-time write.
func (e *Engine) UpdateServerOffset(diff float64) {
	e.mu.Lock()
	if e.serverUpdated && e.serverDiff >= diff {
		e.mu.Unlock()
		observability.RecordTimeSyncUpdate("server", false)
		return
	}
	e.serverDiff = diff
	e.serverUpdated = true
	store := e.store
	e.mu.Unlock()

	observability.RecordTimeSyncUpdate("server", true)
	observability.SetTimeSyncOffset(diff)

	if store == nil {
		return
	}
	// diff is relative to the monotonic clock; rebase onto the system clock
	// so the value survives a restart.
	saveDiff := diff + e.clock.Monotonic() - e.clock.System()
	if err := store.Set(keyServerTimeDifference, kvstore.EncodeFloat64(saveDiff)); err != nil {
		log.Warn().Err(err).Msg("timesync_persist_offset_failed")
		return
	}
	e.SaveSystemTime()
}

// UpdateDNSOffset overwrites the DNS slot. Each DNS observation is trusted on
// its own, so no monotonic-increase restriction applies.
func (e *Engine) UpdateDNSOffset(diff float64) {
	e.mu.Lock()
	e.dnsDiff = diff
	e.dnsUpdated = true
	e.mu.Unlock()
	observability.RecordTimeSyncUpdate("dns", true)
}

// Offset returns the best current estimate of remote wall clock minus local
// monotonic time. It never fails: with no data and no store it recomputes a
// fresh instantaneous estimate instead of returning stale state.
func (e *Engine) Offset() float64 {
	e.mu.Lock()
	dnsFlag, dnsDiff := e.dnsUpdated, e.dnsDiff
	serverFlag, serverDiff := e.serverUpdated, e.serverDiff
	store := e.store
	e.mu.Unlock()

	if dnsFlag != serverFlag {
		if dnsFlag {
			return dnsDiff
		}
		return serverDiff
	}
	if dnsFlag {
		return math.Max(dnsDiff, serverDiff)
	}
	if store != nil {
		return serverDiff
	}
	return e.clock.System() - e.clock.Monotonic()
}

// SaveSystemTime persists the current wall-clock reading, at most once per
// persistInterval of monotonic time across all callers.
func (e *Engine) SaveSystemTime() {
	t := e.clock.Monotonic()
	last := math.Float64frombits(e.savedAt.Load())
	if last+persistInterval >= t {
		return
	}
	if !e.savedAt.CompareAndSwap(math.Float64bits(last), math.Float64bits(t)) {
		// Lost the race; the winner writes.
		return
	}

	e.mu.Lock()
	store := e.store
	e.mu.Unlock()
	if store == nil {
		return
	}
	if err := store.Set(keySystemTime, kvstore.EncodeFloat64(e.clock.System())); err != nil {
		log.Warn().Err(err).Msg("timesync_persist_system_time_failed")
		return
	}
	observability.RecordSystemTimeWrite()
	log.Debug().Msg("timesync_system_time_saved")
}

// Detach drops the store reference at shutdown. Later Offset calls fall back
// to the instantaneous estimate when no signal was ever accepted.
func (e *Engine) Detach() {
	e.mu.Lock()
	e.store = nil
	e.mu.Unlock()
}

// Snapshot reports both slots for the status surface.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		ServerOffset:  e.serverDiff,
		ServerUpdated: e.serverUpdated,
		DNSOffset:     e.dnsDiff,
		DNSUpdated:    e.dnsUpdated,
	}
}

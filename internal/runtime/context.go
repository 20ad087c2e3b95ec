// Package runtime holds the process-wide execution context every actor in
// the client reaches for: owned sub-actor handles, the clock-sync engine,
// scheduler partition assignments, and small derived caches.
package runtime

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wirekit/wirectl/internal/actors"
	"github.com/wirekit/wirectl/internal/db"
	"github.com/wirekit/wirectl/internal/dc"
	"github.com/wirekit/wirectl/internal/location"
	"github.com/wirekit/wirectl/internal/options"
	"github.com/wirekit/wirectl/internal/sched"
	"github.com/wirekit/wirectl/internal/timesync"
)

var (
	ErrAlreadyInitialized = errors.New("runtime: context already initialized")
	ErrNotInitialized     = errors.New("runtime: context not initialized")
)

// Context is the shared execution context. One logical instance per process,
// accessed concurrently from actors on different schedulers; all mutable
// state is guarded by the mutex. After CloseAll it returns to the empty
// state and can be initialized again.
type Context struct {
	clock timesync.Clock

	mu          sync.RWMutex
	initialized bool
	params      Parameters
	owner       string
	database    *db.Database
	timeSync    *timesync.Engine
	assignment  sched.Assignment
	locations   *location.Cache
	opts        options.Source

	connectionCreator *actors.ConnectionCreator
	tempKeyWatchdog   *actors.TempKeyWatchdog
	queryDispatcher   *actors.QueryDispatcher
	headerBuilder     *actors.HeaderBuilder
	networkState      *actors.NetworkStateManager
}

// New constructs an empty context. The clock is injected so tests can
// simulate clock jumps; pass timesync.NewSystemClock() in production.
func New(clock timesync.Clock) *Context {
	return &Context{clock: clock}
}

// Init populates the context: parameters by value, scheduler partitions,
// database ownership, and the persisted clock-sync state. Malformed
// persisted values fail Init rather than defaulting; a silently wrong clock
// offset must not reach the protocol layer.
func (c *Context) Init(params Parameters, owner string, schedID, schedCount int, database *db.Database) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return ErrAlreadyInitialized
	}

	engine, err := timesync.Load(database.KV(), c.clock)
	if err != nil {
		return fmt.Errorf("runtime: init: %w", err)
	}

	c.params = params
	c.owner = owner
	c.assignment = sched.Partition(schedID, schedCount)
	c.database = database
	c.timeSync = engine
	c.locations = location.NewCache()
	c.initialized = true

	log.Info().
		Str("owner", owner).
		Int("background_scheduler", c.assignment.Background).
		Int("slow_network_scheduler", c.assignment.SlowNetwork).
		Msg("runtime_context_initialized")
	return nil
}

// CloseAll releases the registry and resets parameters synchronously, then
// closes the database in the background, signaling done when finished.
// Sub-actors and parameters are gone by the time this returns; only the
// database close is still pending.
func (c *Context) CloseAll(done func()) {
	c.shutdown(done, false)
}

// CloseAndDestroyAll is CloseAll plus erasure of all persisted state.
func (c *Context) CloseAndDestroyAll(done func()) {
	c.shutdown(done, true)
}

func (c *Context) shutdown(done func(), destroy bool) {
	c.mu.Lock()
	database := c.database
	c.database = nil
	if c.timeSync != nil {
		c.timeSync.Detach()
	}
	c.releaseRegistryLocked()
	c.params = Parameters{}
	c.owner = ""
	c.opts = nil
	c.initialized = false
	c.mu.Unlock()

	log.Info().Bool("destroy", destroy).Msg("runtime_context_closed")

	if database == nil {
		if done != nil {
			go done()
		}
		return
	}
	if destroy {
		database.CloseAndDestroyAll(done)
		return
	}
	database.CloseAll(done)
}

func (c *Context) releaseRegistryLocked() {
	if c.connectionCreator != nil {
		c.connectionCreator.Close()
		c.connectionCreator = nil
	}
	if c.tempKeyWatchdog != nil {
		c.tempKeyWatchdog.Close()
		c.tempKeyWatchdog = nil
	}
	if c.queryDispatcher != nil {
		c.queryDispatcher.Close()
		c.queryDispatcher = nil
	}
	if c.headerBuilder != nil {
		c.headerBuilder.Close()
		c.headerBuilder = nil
	}
	if c.networkState != nil {
		c.networkState.Close()
		c.networkState = nil
	}
}

// Parameters returns a copy of the installed configuration.
func (c *Context) Parameters() Parameters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// Owner returns the identifier of the actor that initialized the context.
func (c *Context) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// Scheduler returns the partition assignment computed at Init.
func (c *Context) Scheduler() sched.Assignment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assignment
}

// Database returns the owned facade, or nil before Init / after CloseAll.
func (c *Context) Database() *db.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.database
}

// SetOptions installs the remote option source.
func (c *Context) SetOptions(src options.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts = src
}

// Options returns the remote option source; nil when not installed.
func (c *Context) Options() options.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// --- registry -------------------------------------------------------------

// SetConnectionCreator transfers ownership; a previously owned instance is
// closed after the replacement is installed.
func (c *Context) SetConnectionCreator(a *actors.ConnectionCreator) {
	c.mu.Lock()
	old := c.connectionCreator
	c.connectionCreator = a
	c.mu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
}

// ConnectionCreator returns a non-owning reference; nil when absent.
func (c *Context) ConnectionCreator() *actors.ConnectionCreator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connectionCreator
}

func (c *Context) SetTempKeyWatchdog(a *actors.TempKeyWatchdog) {
	c.mu.Lock()
	old := c.tempKeyWatchdog
	c.tempKeyWatchdog = a
	c.mu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
}

func (c *Context) TempKeyWatchdog() *actors.TempKeyWatchdog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tempKeyWatchdog
}

func (c *Context) SetQueryDispatcher(a *actors.QueryDispatcher) {
	c.mu.Lock()
	old := c.queryDispatcher
	c.queryDispatcher = a
	c.mu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
}

func (c *Context) QueryDispatcher() *actors.QueryDispatcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.queryDispatcher
}

func (c *Context) SetHeaderBuilder(a *actors.HeaderBuilder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headerBuilder = a
}

// HeaderBuilder returns the protocol header builder. This role is assumed
// always present after init; dereferencing it unset is a logic error in the
// surrounding system, so it aborts instead of returning an error.
func (c *Context) HeaderBuilder() *actors.HeaderBuilder {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.headerBuilder == nil {
		panic("runtime: header builder requested before it was installed")
	}
	return c.headerBuilder
}

// HasHeaderBuilder reports presence without the always-present assumption,
// for callers that merely stash the reference during startup.
func (c *Context) HasHeaderBuilder() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headerBuilder != nil
}

func (c *Context) SetNetworkState(a *actors.NetworkStateManager) {
	c.mu.Lock()
	old := c.networkState
	c.networkState = a
	c.mu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
}

func (c *Context) NetworkState() *actors.NetworkStateManager {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.networkState
}

// --- time sync ------------------------------------------------------------

// UpdateServerTimeDifference feeds a server-derived offset observation.
func (c *Context) UpdateServerTimeDifference(diff float64) {
	if e := c.timeSyncEngine(); e != nil {
		e.UpdateServerOffset(diff)
	}
}

// UpdateDNSTimeDifference feeds a DNS-derived offset observation.
func (c *Context) UpdateDNSTimeDifference(diff float64) {
	if e := c.timeSyncEngine(); e != nil {
		e.UpdateDNSOffset(diff)
	}
}

// TimeDifference returns the best current offset estimate. Never fails: when
// the context was never initialized (or has been shut down) it recomputes a
// fresh instantaneous estimate from the clock.
func (c *Context) TimeDifference() float64 {
	if e := c.timeSyncEngine(); e != nil {
		return e.Offset()
	}
	return c.clock.System() - c.clock.Monotonic()
}

// SaveSystemTime requests a throttled persistence of the wall-clock reading.
func (c *Context) SaveSystemTime() {
	if e := c.timeSyncEngine(); e != nil {
		e.SaveSystemTime()
	}
}

// TimeSyncState snapshots both signal slots for the status surface.
func (c *Context) TimeSyncState() timesync.State {
	if e := c.timeSyncEngine(); e != nil {
		return e.Snapshot()
	}
	return timesync.State{}
}

func (c *Context) timeSyncEngine() *timesync.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timeSync
}

// --- derived caches -------------------------------------------------------

// LocationAccessHash returns the cached token for the location's geocell, or
// zero when absent.
func (c *Context) LocationAccessHash(latitude, longitude float64) int64 {
	c.mu.RLock()
	cache := c.locations
	c.mu.RUnlock()
	if cache == nil {
		return 0
	}
	return cache.Get(latitude, longitude)
}

// AddLocationAccessHash caches a token for the location's geocell; the zero
// sentinel is rejected.
func (c *Context) AddLocationAccessHash(latitude, longitude float64, accessHash int64) {
	c.mu.RLock()
	cache := c.locations
	c.mu.RUnlock()
	if cache != nil {
		cache.Add(latitude, longitude, accessHash)
	}
}

// WebFileDC selects the data center for web-file downloads from the remote
// "webfile_dc_id" option, substituting an environment-dependent fallback
// when the option is absent or invalid.
func (c *Context) WebFileDC() dc.ID {
	c.mu.RLock()
	opts := c.opts
	test := c.params.UseTestDC
	c.mu.RUnlock()
	if opts == nil {
		panic("runtime: option source requested before it was installed")
	}

	id := dc.ID(opts.Integer("webfile_dc_id"))
	if !id.IsValid() {
		if test {
			id = dc.WebFileFallbackTest
		} else {
			id = dc.WebFileFallbackProduction
		}
		if !id.IsValid() {
			panic("runtime: webfile fallback dc id is invalid")
		}
	}
	return id
}

// IgnoreBackgroundUpdates reports whether background updates may be skipped:
// only when nothing durable depends on them and the remote option asks for it.
func (c *Context) IgnoreBackgroundUpdates() bool {
	c.mu.RLock()
	params := c.params
	opts := c.opts
	c.mu.RUnlock()
	if opts == nil {
		return false
	}
	return !params.UseFileDB && !params.UseSecretChats && opts.Bool("ignore_background_updates")
}

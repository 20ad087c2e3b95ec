// Package actors implements the long-lived sub-actors owned by the runtime
// context: connection planning, temp-key supervision, query dispatch,
// protocol header construction, and network state tracking.
package actors

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/wirekit/wirectl/internal/dc"
)

// BackoffConfig defines reconnect backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// DefaultBackoffConfig returns the reconnect defaults used by the connection
// creator.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// ConnectionPlan describes the next connection attempt against one DC.
type ConnectionPlan struct {
	DC      dc.ID
	Attempt int
	Delay   time.Duration
}

// ConnectionCreator hands out attempt plans per data center. Transport
// internals live elsewhere; this actor only decides when the next dial
// should happen.
type ConnectionCreator struct {
	cfg BackoffConfig
	rng *rand.Rand

	mu       sync.Mutex
	attempts map[dc.ID]int
	closed   bool
}

func NewConnectionCreator(cfg BackoffConfig) *ConnectionCreator {
	return &ConnectionCreator{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		attempts: make(map[dc.ID]int),
	}
}

// Plan returns the next attempt for the DC, advancing its attempt counter.
func (c *ConnectionCreator) Plan(id dc.ID) ConnectionPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts[id]++
	attempt := c.attempts[id]
	return ConnectionPlan{
		DC:      id,
		Attempt: attempt,
		Delay:   NextBackoffDelay(c.cfg, attempt, c.rng),
	}
}

// Reset clears the attempt counter after a successful connection.
func (c *ConnectionCreator) Reset(id dc.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, id)
}

func (c *ConnectionCreator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.attempts = make(map[dc.ID]int)
}

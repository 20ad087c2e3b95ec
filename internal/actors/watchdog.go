package actors

import (
	"sync"
	"time"
)

// TempKeyWatchdog tracks temporary authorization keys so stale ones get
// dropped server-side before they pile up.
type TempKeyWatchdog struct {
	ttl time.Duration

	mu   sync.Mutex
	keys map[int64]time.Time // key id -> registered at
}

func NewTempKeyWatchdog(ttl time.Duration) *TempKeyWatchdog {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TempKeyWatchdog{ttl: ttl, keys: make(map[int64]time.Time)}
}

// Register starts tracking a temp key id; re-registering refreshes it.
func (w *TempKeyWatchdog) Register(keyID int64, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys[keyID] = now
}

// Unregister stops tracking a key id.
func (w *TempKeyWatchdog) Unregister(keyID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.keys, keyID)
}

// Sweep removes keys older than the TTL and returns the ids dropped, for the
// caller to revoke remotely.
func (w *TempKeyWatchdog) Sweep(now time.Time) []int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var expired []int64
	for id, at := range w.keys {
		if now.Sub(at) > w.ttl {
			expired = append(expired, id)
			delete(w.keys, id)
		}
	}
	return expired
}

// Count returns the number of tracked keys.
func (w *TempKeyWatchdog) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.keys)
}

func (w *TempKeyWatchdog) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys = make(map[int64]time.Time)
}

package actors

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wirekit/wirectl/internal/dc"
)

// Query is one tagged protocol request ready for routing.
type Query struct {
	ID     string
	Method string
	DC     dc.ID
}

// QueryDispatcher assigns ids to outgoing queries and spreads them across the
// configured data centers. Routing beyond round-robin lives with the
// transport layer.
type QueryDispatcher struct {
	mu      sync.Mutex
	targets []dc.ID
	next    int
	pending map[string]Query
}

func NewQueryDispatcher(targets []dc.ID) *QueryDispatcher {
	if len(targets) == 0 {
		targets = []dc.ID{dc.WebFileFallbackProduction}
	}
	return &QueryDispatcher{
		targets: append([]dc.ID(nil), targets...),
		pending: make(map[string]Query),
	}
}

// Dispatch tags the method with a fresh id and the next target DC.
func (d *QueryDispatcher) Dispatch(method string) Query {
	d.mu.Lock()
	defer d.mu.Unlock()
	q := Query{
		ID:     uuid.NewString(),
		Method: method,
		DC:     d.targets[d.next%len(d.targets)],
	}
	d.next++
	d.pending[q.ID] = q
	return q
}

// Complete drops a finished query; unknown ids are a no-op.
func (d *QueryDispatcher) Complete(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
}

// PendingCount returns the number of in-flight queries.
func (d *QueryDispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *QueryDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = make(map[string]Query)
}

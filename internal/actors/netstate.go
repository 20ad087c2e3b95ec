package actors

import "sync"

// NetworkType classifies the active link, used to pick timeouts elsewhere.
type NetworkType string

const (
	NetworkNone   NetworkType = "none"
	NetworkMobile NetworkType = "mobile"
	NetworkWiFi   NetworkType = "wifi"
	NetworkOther  NetworkType = "other"
)

// NetworkState is the externally visible connectivity snapshot.
type NetworkState struct {
	Online bool
	Type   NetworkType
}

// NetworkStateManager tracks connectivity changes and fans them out to
// subscribers. Detection itself is platform code outside this core.
type NetworkStateManager struct {
	mu    sync.Mutex
	state NetworkState
	subs  []func(NetworkState)
}

func NewNetworkStateManager() *NetworkStateManager {
	return &NetworkStateManager{state: NetworkState{Online: false, Type: NetworkNone}}
}

// Update replaces the state and notifies subscribers on change.
func (m *NetworkStateManager) Update(state NetworkState) {
	m.mu.Lock()
	if m.state == state {
		m.mu.Unlock()
		return
	}
	m.state = state
	subs := append([]func(NetworkState){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers a change callback and immediately delivers the current
// state so subscribers never start stale.
func (m *NetworkStateManager) Subscribe(fn func(NetworkState)) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	state := m.state
	m.mu.Unlock()
	fn(state)
}

// State returns the current snapshot.
func (m *NetworkStateManager) State() NetworkState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *NetworkStateManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = nil
}

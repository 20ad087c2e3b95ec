package actors

import (
	"testing"
	"time"

	"github.com/wirekit/wirectl/internal/dc"
	"github.com/wirekit/wirectl/internal/testutil/testlog"
)

func TestNextBackoffDelayGrowsAndClamps(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     500 * time.Millisecond,
	}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 500 * time.Millisecond}, // clamped
		{10, 500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := NextBackoffDelay(cfg, tc.attempt, nil); got != tc.want {
			t.Fatalf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestNextBackoffDelayZeroInitial(t *testing.T) {
	testlog.Start(t)
	if got := NextBackoffDelay(BackoffConfig{}, 3, nil); got != 0 {
		t.Fatalf("zero initial delay: got %v, want 0", got)
	}
}

func TestConnectionCreatorPlanAndReset(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2.0}
	c := NewConnectionCreator(cfg)

	p1 := c.Plan(2)
	p2 := c.Plan(2)
	if p1.Attempt != 1 || p2.Attempt != 2 {
		t.Fatalf("attempts: got %d then %d, want 1 then 2", p1.Attempt, p2.Attempt)
	}
	if other := c.Plan(4); other.Attempt != 1 {
		t.Fatalf("attempt counters must be per-DC, got %d", other.Attempt)
	}

	c.Reset(2)
	if p := c.Plan(2); p.Attempt != 1 {
		t.Fatalf("after reset: got attempt %d, want 1", p.Attempt)
	}
}

func TestTempKeyWatchdogSweep(t *testing.T) {
	testlog.Start(t)
	now := time.Now()
	w := NewTempKeyWatchdog(time.Hour)

	w.Register(1, now.Add(-2*time.Hour))
	w.Register(2, now.Add(-10*time.Minute))
	if w.Count() != 2 {
		t.Fatalf("count: got %d, want 2", w.Count())
	}

	expired := w.Sweep(now)
	if len(expired) != 1 || expired[0] != 1 {
		t.Fatalf("sweep: got %v, want [1]", expired)
	}
	if w.Count() != 1 {
		t.Fatalf("count after sweep: got %d, want 1", w.Count())
	}
}

func TestQueryDispatcherRoundRobin(t *testing.T) {
	testlog.Start(t)
	d := NewQueryDispatcher([]dc.ID{1, 2, 3})

	seen := map[string]bool{}
	var targets []dc.ID
	for i := 0; i < 6; i++ {
		q := d.Dispatch("messages.getHistory")
		if q.ID == "" || seen[q.ID] {
			t.Fatalf("query ids must be unique and non-empty, got %q", q.ID)
		}
		seen[q.ID] = true
		targets = append(targets, q.DC)
	}
	want := []dc.ID{1, 2, 3, 1, 2, 3}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("round robin: got %v, want %v", targets, want)
		}
	}

	if d.PendingCount() != 6 {
		t.Fatalf("pending: got %d, want 6", d.PendingCount())
	}
	for id := range seen {
		d.Complete(id)
	}
	if d.PendingCount() != 0 {
		t.Fatalf("pending after complete: got %d, want 0", d.PendingCount())
	}
}

func TestHeaderBuilderValidation(t *testing.T) {
	testlog.Start(t)
	_, err := NewHeaderBuilder(HeaderConfig{AppVersion: "1.0", ProtocolLayer: 160})
	if err == nil {
		t.Fatalf("expected error for missing api_id")
	}

	b, err := NewHeaderBuilder(HeaderConfig{
		APIID:         12345,
		AppVersion:    "1.0",
		DeviceModel:   "test",
		ProtocolLayer: 160,
	})
	if err != nil {
		t.Fatalf("build header builder: %v", err)
	}
	blob, err := b.Build()
	if err != nil || len(blob) == 0 {
		t.Fatalf("build header: blob=%q err=%v", blob, err)
	}
}

func TestNetworkStateManagerNotifies(t *testing.T) {
	testlog.Start(t)
	m := NewNetworkStateManager()

	var got []NetworkState
	m.Subscribe(func(s NetworkState) { got = append(got, s) })
	if len(got) != 1 || got[0].Online {
		t.Fatalf("initial delivery: got %+v", got)
	}

	m.Update(NetworkState{Online: true, Type: NetworkWiFi})
	m.Update(NetworkState{Online: true, Type: NetworkWiFi}) // no change, no notify
	if len(got) != 2 {
		t.Fatalf("notifications: got %d, want 2", len(got))
	}
	if !m.State().Online || m.State().Type != NetworkWiFi {
		t.Fatalf("state: got %+v", m.State())
	}
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wirekit/wirectl/internal/db"
	"github.com/wirekit/wirectl/internal/kvstore"
	"github.com/wirekit/wirectl/internal/runtime"
	"github.com/wirekit/wirectl/internal/testutil/testlog"
	"github.com/wirekit/wirectl/internal/timesync"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c := runtime.New(timesync.NewSystemClock())
	err := c.Init(runtime.Parameters{APIID: 1, UseTestDC: true}, "client.main", 0, 4, db.Open(kvstore.NewMemory()))
	if err != nil {
		t.Fatalf("init context: %v", err)
	}
	return New(c, Config{Name: "wirectl-test", Addr: ":0"})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: got %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" || body["component"] != "wirectl-test" {
		t.Fatalf("health body: %v", body)
	}
}

func TestStatusEndpointReflectsContext(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rec := get(t, s, "/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var body struct {
		Owner     string `json:"owner"`
		Scheduler struct {
			Background  int `json:"background"`
			SlowNetwork int `json:"slow_network"`
		} `json:"scheduler"`
		Registry map[string]bool `json:"registry"`
		Flags    map[string]bool `json:"flags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode status body: %v", err)
	}
	if body.Owner != "client.main" {
		t.Fatalf("owner: got %q", body.Owner)
	}
	if body.Scheduler.Background != 2 || body.Scheduler.SlowNetwork != 3 {
		t.Fatalf("scheduler: got %+v", body.Scheduler)
	}
	if body.Registry["connection_creator"] || body.Registry["header_builder"] {
		t.Fatalf("registry should be empty before actors are installed: %v", body.Registry)
	}
	if !body.Flags["use_test_dc"] {
		t.Fatalf("flags: got %v", body.Flags)
	}
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	// Seed at least one request so the counters exist.
	get(t, s, "/health")

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: got %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("metrics body must not be empty")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rec := get(t, s, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route: got %d, want 404", rec.Code)
	}
}

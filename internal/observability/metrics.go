package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	timeSyncUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirectl",
			Subsystem: "timesync",
			Name:      "updates_total",
			Help:      "Time offset updates by source and acceptance.",
		},
		[]string{"source", "accepted"},
	)
	timeSyncPersists = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wirectl",
			Subsystem: "timesync",
			Name:      "system_time_writes_total",
			Help:      "Throttled system-time persistence writes.",
		},
	)
	timeSyncOffset = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wirectl",
			Subsystem: "timesync",
			Name:      "offset_seconds",
			Help:      "Best current estimate of remote clock offset.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wirectl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wirectl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(timeSyncUpdates, timeSyncPersists, timeSyncOffset, httpRequests, httpDuration)
	})
}

func RecordTimeSyncUpdate(source string, accepted bool) {
	RegisterMetrics()
	timeSyncUpdates.WithLabelValues(source, strconv.FormatBool(accepted)).Inc()
}

func RecordSystemTimeWrite() {
	RegisterMetrics()
	timeSyncPersists.Inc()
}

func SetTimeSyncOffset(seconds float64) {
	RegisterMetrics()
	timeSyncOffset.Set(seconds)
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridgequest",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridgequest",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	wsConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridgequest",
		Name:      "ws_connections",
		Help:      "Currently open WebSocket connections per channel kind",
	}, []string{"channel"})

	lifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridgequest",
		Name:      "lifecycle_transitions_total",
		Help:      "Completed game state transitions",
	}, []string{"to"})
)

// WSConnected / WSDisconnected track open sockets on the lobby or game channel.
func WSConnected(channel string)    { wsConnections.WithLabelValues(channel).Inc() }
func WSDisconnected(channel string) { wsConnections.WithLabelValues(channel).Dec() }

// TransitionCompleted counts a successful phase advance.
func TransitionCompleted(to string) { lifecycleTransitions.WithLabelValues(to).Inc() }

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Middleware records request metrics with Prometheus labels. WebSocket
// upgrades bypass it: the recorder cannot hijack the connection.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Package metrics provides Prometheus instrumentation for the wager engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsCreated counts betting events registered.
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_events_created_total",
		Help: "Total number of betting events created",
	})

	// EventsResolved counts events frozen with a winning outcome.
	EventsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_events_resolved_total",
		Help: "Total number of events resolved",
	})

	// BetsPlaced counts bets accepted, partitioned by bet type.
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_bets_placed_total",
		Help: "Total number of bets placed",
	}, []string{"bet_type"})

	// ClaimsSettled counts successful settlements, partitioned by bet type.
	ClaimsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_claims_settled_total",
		Help: "Total number of winning claims settled",
	}, []string{"bet_type"})

	// ClaimRejections counts repeat claims rejected by idempotency.
	ClaimRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_claim_rejections_total",
		Help: "Claims rejected because the bet was already claimed",
	})

	// StakeLimitRejections counts bets rejected by the stake limiter.
	StakeLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_stake_limit_rejections_total",
		Help: "Bets rejected by stake limits",
	})

	// StakedVolume accumulates stake inflow. Observability only — money
	// accounting lives in the treasury, in exact decimals.
	StakedVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_staked_volume_total",
		Help: "Cumulative stake volume accepted into pools",
	})

	// PayoutVolume accumulates settlement outflow. Observability only.
	PayoutVolume = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wager_payout_volume_total",
		Help: "Cumulative payout volume settled from pools",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wager_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wager_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wager_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

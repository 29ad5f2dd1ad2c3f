package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rollup"

var (
	// EnvelopeTransitions counts orchestrator state transitions by tx type and target state.
	EnvelopeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "envelope_transitions_total",
		Help:      "Signing pipeline state transitions.",
	}, []string{"tx_type", "state"})

	// SignaturesInvalidated counts envelopes reset to Built after their bytes changed.
	SignaturesInvalidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signatures_invalidated_total",
		Help:      "Envelopes whose signatures were dropped after a field change.",
	}, []string{"tx_type"})

	// AuthRequests counts base-chain authentication attempts by backend and outcome.
	AuthRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Base-chain authentication requests.",
	}, []string{"backend", "result"})

	// AuthDuration observes how long backends take to answer.
	AuthDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_duration_seconds",
		Help:      "Base-chain authentication latency.",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"backend"})

	// Submissions counts submit outcomes.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Transaction submissions by outcome.",
	}, []string{"result"})

	// Resubmissions counts resubmits after a confirmed non-acceptance.
	Resubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resubmissions_total",
		Help:      "Resubmits after the operator confirmed it never saw the transaction.",
	})

	// RPCRequests counts operator JSON-RPC calls by method and outcome.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Operator JSON-RPC requests.",
	}, []string{"method", "result"})

	// RPCFailovers counts endpoint switches.
	RPCFailovers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_failovers_total",
		Help:      "Endpoint failovers.",
	}, []string{"client"})
)

// Result labels
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
	ResultUnknown  = "unknown"
	ResultCanceled = "canceled"
)

// ObserveAuth records one authentication attempt.
func ObserveAuth(backend string, result string, started time.Time) {
	AuthRequests.WithLabelValues(backend, result).Inc()
	AuthDuration.WithLabelValues(backend).Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	httpMiddlewareOnce sync.Once
	httpMiddleware     echo.MiddlewareFunc
)

// HTTPMiddleware instruments the echo server. The collectors are registered once per process
// and shared by every server instance.
func HTTPMiddleware() echo.MiddlewareFunc {
	httpMiddlewareOnce.Do(func() {
		httpMiddleware = echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace: namespace,
			Subsystem: "http",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		})
	})
	return httpMiddleware
}

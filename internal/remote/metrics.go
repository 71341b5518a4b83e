package remote

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"storefront/internal/model"
)

var (
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_calls_total",
			Help: "Calls to the jewelry API by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_call_duration_seconds",
			Help:    "Latency of jewelry API calls including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_retries_total",
			Help: "Retried attempts against the jewelry API",
		},
		[]string{"op"},
	)

	authFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_backend_auth_short_circuits_total",
			Help: "Authorized calls refused locally for a missing or expired token",
		},
	)

	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_backend_circuit_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)
)

func observeCall(op string, err error, elapsed time.Duration) {
	callsTotal.WithLabelValues(op, outcome(err)).Inc()
	callDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// outcome is a low-cardinality label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return strings.ToLower(apiErr.Code)
	}
	return "other"
}

// stateToFloat maps gobreaker states to gauge values.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

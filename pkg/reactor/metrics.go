package reactor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/B3Pay/ic-reactor-sub004/pkg/icerrors"
)

// Call outcomes reported by Metrics.
const (
	OutcomeOK              = "ok"
	OutcomeCanisterError   = "canister_error"
	OutcomeValidationError = "validation_error"
	OutcomeCallError       = "call_error"
)

// Metrics records canister calls in Prometheus. A nil *Metrics records
// nothing.
type Metrics struct {
	callsTotal        *prometheus.CounterVec
	deduplicatedTotal *prometheus.CounterVec
	callDuration      *prometheus.HistogramVec
}

// NewMetrics registers the reactor metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icreactor_calls_total",
				Help: "Canister method calls by canister, method, kind and outcome",
			},
			[]string{"canister", "method", "kind", "outcome"},
		),
		deduplicatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icreactor_deduplicated_calls_total",
				Help: "Calls that joined a request already in flight",
			},
			[]string{"canister", "method"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "icreactor_call_duration_seconds",
				Help:    "Duration of canister method calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"canister", "method", "kind"},
		),
	}
}

// ObserveCall records a finished call.
func (m *Metrics) ObserveCall(canister, method, kind string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(canister, method, kind, outcome(err)).Inc()
	m.callDuration.WithLabelValues(canister, method, kind).Observe(duration.Seconds())
}

// IncDeduplicated records a call that shared a pending request.
func (m *Metrics) IncDeduplicated(canister, method string) {
	if m == nil {
		return
	}
	m.deduplicatedTotal.WithLabelValues(canister, method).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case icerrors.IsCanisterError(err):
		return OutcomeCanisterError
	case icerrors.IsValidationError(err):
		return OutcomeValidationError
	default:
		return OutcomeCallError
	}
}

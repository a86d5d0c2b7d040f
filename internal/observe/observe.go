// Package observe wraps the ledger services with logging and Prometheus
// metrics so the services themselves stay free of side channels.
package observe

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tinoosan/banking/internal/errs"
)

// Metrics holds the operation counters and latency histograms.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the ledger operation metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "banking",
				Name:      "ledger_operations_total",
				Help:      "Total number of ledger operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "banking",
				Name:      "ledger_operation_duration_seconds",
				Help:      "Duration of ledger operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.ops, m.duration)
	}
	return m
}

// Outcome maps err to a low-cardinality metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrAccountNotFound), errors.Is(err, errs.ErrNotFound):
		return "not_found"
	case errors.Is(err, errs.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, errs.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, errs.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}

// record logs and counts one finished operation. Rejections are logged at
// WARN, store and unknown failures at ERROR.
func (m *Metrics) record(l *slog.Logger, op string, start time.Time, err error, attrs ...any) {
	outcome := Outcome(err)
	elapsed := time.Since(start)
	if m != nil {
		m.ops.WithLabelValues(op, outcome).Inc()
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if l == nil {
		return
	}
	attrs = append(attrs, "op", op, "outcome", outcome, "duration", elapsed.String())
	switch outcome {
	case "ok":
		l.Info("ledger operation", attrs...)
	case "store_unavailable", "error":
		l.Error("ledger operation failed", append(attrs, "err", err)...)
	default:
		l.Warn("ledger operation rejected", append(attrs, "err", err)...)
	}
}

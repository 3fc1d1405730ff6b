// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcomes used as the "result" label.
const (
	ResultOK                = "ok"
	ResultInvalidInput      = "invalid_input"
	ResultNotFound          = "not_found"
	ResultInsufficientFunds = "insufficient_funds"
	ResultError             = "error"
)

// Metrics holds the ledger's Prometheus collectors.
type Metrics struct {
	Operations     *prometheus.CounterVec
	CoinsAwarded   prometheus.Counter
	CoinsWithdrawn prometheus.Counter
	Accounts       prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clicker",
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by operation and result.",
		}, []string{"op", "result"}),
		CoinsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clicker",
			Name:      "coins_awarded_total",
			Help:      "Coins credited by accepted clicks.",
		}),
		CoinsWithdrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clicker",
			Name:      "coins_withdrawn_total",
			Help:      "Coins debited by accepted withdrawals.",
		}),
		Accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clicker",
			Name:      "accounts",
			Help:      "Number of accounts in the ledger.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.CoinsAwarded, m.CoinsWithdrawn, m.Accounts)
	}
	return m
}

// Observe counts one operation outcome.
func (m *Metrics) Observe(op, result string) {
	m.Operations.WithLabelValues(op, result).Inc()
}

// internal/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("click", ResultOK)
	m.Observe("click", ResultOK)
	m.Observe("withdraw", ResultInsufficientFunds)
	m.CoinsAwarded.Add(20)
	m.Accounts.Set(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("click", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("withdraw", ResultInsufficientFunds)))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.CoinsAwarded))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "clicker_ledger_operations_total")
	assert.Contains(t, names, "clicker_coins_awarded_total")
	assert.Contains(t, names, "clicker_accounts")
}

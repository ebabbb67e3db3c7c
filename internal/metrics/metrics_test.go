package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Posted(ResultOK, 3)
	m.Posted(ResultOK, 2)
	m.Posted(ResultRejected, 0)
	m.InvoiceIssued("client")
	m.Settled("vendor")
	m.Matched(ResultOK)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Postings.WithLabelValues(ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Postings.WithLabelValues(ResultRejected)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.LinesPosted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Invoices.WithLabelValues("client")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Settlements.WithLabelValues("vendor")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Matches.WithLabelValues(ResultOK)), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Posted(ResultOK, 1)
		m.InvoiceIssued("client")
		m.Settled("client")
		m.Matched(ResultError)
	})
}

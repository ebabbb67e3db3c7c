// Package metrics exposes Prometheus counters for ledger activity. A nil
// *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "ledger"

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics holds the counters shared by the engines.
type Metrics struct {
	Postings    *prometheus.CounterVec
	LinesPosted prometheus.Counter
	Invoices    *prometheus.CounterVec
	Settlements *prometheus.CounterVec
	Matches     *prometheus.CounterVec
}

// New creates the counters and registers them on reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Postings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "postings_total",
				Help:      "Journal posting attempts by result",
			},
			[]string{"result"},
		),
		LinesPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_posted_total",
			Help:      "Journal lines appended to the ledger",
		}),
		Invoices: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_issued_total",
				Help:      "Open items issued by entity type",
			},
			[]string{"type"},
		),
		Settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Open item settlements by entity type",
			},
			[]string{"type"},
		),
		Matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciliation_matches_total",
				Help:      "Bank match attempts by result",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Postings, m.LinesPosted, m.Invoices, m.Settlements, m.Matches)
	}
	return m
}

// Posted records a posting attempt and, on success, its line count.
func (m *Metrics) Posted(result string, lines int) {
	if m == nil {
		return
	}
	m.Postings.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.LinesPosted.Add(float64(lines))
	}
}

// InvoiceIssued counts an issued open item.
func (m *Metrics) InvoiceIssued(entityType string) {
	if m == nil {
		return
	}
	m.Invoices.WithLabelValues(entityType).Inc()
}

// Settled counts a settlement.
func (m *Metrics) Settled(entityType string) {
	if m == nil {
		return
	}
	m.Settlements.WithLabelValues(entityType).Inc()
}

// Matched records a match attempt.
func (m *Metrics) Matched(result string) {
	if m == nil {
		return
	}
	m.Matches.WithLabelValues(result).Inc()
}

package enrichment

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters/histograms for enrichment flows.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spiritatlas",
			Subsystem: "enrichment",
			Name:      "requests_total",
			Help:      "Total enrichment requests by provider and outcome",
		}, []string{"provider", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spiritatlas",
			Subsystem: "enrichment",
			Name:      "latency_seconds",
			Help:      "Latency of provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

func (m *Metrics) observe(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "none"
	}
	m.requestsTotal.WithLabelValues(provider, status).Inc()
	m.latency.WithLabelValues(provider).Observe(seconds)
}

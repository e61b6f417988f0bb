package usage

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for provider quota accounting.
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	throttledTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spiritatlas",
			Subsystem: "usage",
			Name:      "requests_total",
			Help:      "Total recorded provider requests",
		}, []string{"provider"}),
		throttledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spiritatlas",
			Subsystem: "usage",
			Name:      "throttled_total",
			Help:      "Requests turned away by quota limits",
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.throttledTotal)
	return m
}

func (m *Metrics) observeRequest(provider string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider).Inc()
}

func (m *Metrics) observeThrottled(provider string) {
	if m == nil {
		return
	}
	m.throttledTotal.WithLabelValues(provider).Inc()
}

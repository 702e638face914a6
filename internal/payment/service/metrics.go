package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts callback verdicts and order transitions. Registration is
// explicit against the injected registry; nothing touches the process-wide
// default registerer.
type Metrics struct {
	Callbacks   *prometheus.CounterVec
	Transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maib_callbacks_total",
			Help: "Inbound payment notifications by signature verdict.",
		}, []string{"verdict"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maib_order_transitions_total",
			Help: "Order state transitions driven by the payment lifecycle.",
		}, []string{"transition"}),
	}
	reg.MustRegister(m.Callbacks, m.Transitions)
	return m
}

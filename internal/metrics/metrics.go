package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ITN collects ITN processing metrics on its own registry.
type ITN struct {
	registry        *prometheus.Registry
	outcomeCounter  *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

func NewITN() *ITN {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	outcome := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payfast_itn_notifications_total",
			Help: "Total number of ITN notifications by outcome",
		},
		[]string{"outcome"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payfast_gateway_call_duration_seconds",
			Help:    "Duration of calls made to validate an ITN, by call and result",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"call", "result"},
	)

	registry.MustRegister(outcome, duration)

	return &ITN{
		registry:        registry,
		outcomeCounter:  outcome,
		gatewayDuration: duration,
	}
}

func (m *ITN) ObserveOutcome(outcome string) {
	m.outcomeCounter.WithLabelValues(outcome).Inc()
}

func (m *ITN) ObserveGatewayCall(call string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayDuration.WithLabelValues(call, result).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *ITN) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package metrics holds the Prometheus collectors of the delivery pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crm"

// Metrics is safe to use as a nil pointer, every method is then a no-op.
type Metrics struct {
	messages     *prometheus.CounterVec
	campaigns    *prometheus.CounterVec
	deduplicated prometheus.Counter
	sweeps       prometheus.Counter
	gatherer     prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Campaign messages attempted, by outcome.",
		}, []string{"status"}),
		campaigns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "campaigns_finished_total",
			Help:      "Campaign delivery runs finished, by final status.",
		}, []string{"status"}),
		deduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_jobs_deduplicated_total",
			Help:      "Delivery jobs dropped because the campaign was already queued or claimed.",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeper_requeued_total",
			Help:      "Stalled campaigns republished by the sweeper.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.messages,
		m.campaigns,
		m.deduplicated,
		m.sweeps,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) MessageSent() {
	if m != nil {
		m.messages.WithLabelValues("sent").Inc()
	}
}

func (m *Metrics) MessageFailed() {
	if m != nil {
		m.messages.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) CampaignFinished(status string) {
	if m != nil {
		m.campaigns.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) JobDeduplicated() {
	if m != nil {
		m.deduplicated.Inc()
	}
}

func (m *Metrics) Requeued(n int) {
	if m != nil {
		m.sweeps.Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

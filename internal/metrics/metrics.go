// Package metrics exposes relay activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tyrowin/roomrelay/internal/relay"
)

const namespace = "roomrelay"

// StatsSource reports current registry table sizes.
type StatsSource interface {
	Stats() relay.Stats
}

// Collector records broadcasts and rejected requests. It implements
// relay.Recorder.
type Collector struct {
	broadcasts *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

// New registers the relay counters on reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Room broadcasts by event type.",
		}, []string{"type"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Frames accepted by recipients, by event type.",
		}, []string{"type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Requests answered with an error, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.broadcasts, c.deliveries, c.rejections)
	return c
}

// RegisterGauges publishes table sizes read from src at scrape time.
func RegisterGauges(reg prometheus.Registerer, src StatsSource) {
	reg.MustRegister(
		gauge("connections", "Live connections.", func(s relay.Stats) int { return s.Connections }, src),
		gauge("rooms", "Active rooms.", func(s relay.Stats) int { return s.Rooms }, src),
		gauge("participants", "Room memberships across all rooms.", func(s relay.Stats) int { return s.Participants }, src),
	)
}

func gauge(name, help string, pick func(relay.Stats) int, src StatsSource) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(pick(src.Stats())) })
}

// EventBroadcast implements relay.Recorder.
func (c *Collector) EventBroadcast(eventType string, recipients int) {
	c.broadcasts.WithLabelValues(eventType).Inc()
	c.deliveries.WithLabelValues(eventType).Add(float64(recipients))
}

// RequestRejected implements relay.Recorder.
func (c *Collector) RequestRejected(kind string) {
	c.rejections.WithLabelValues(kind).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

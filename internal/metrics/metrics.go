// Package metrics exposes signaling counters for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voice"

type Metrics struct {
	registry *prometheus.Registry

	rooms         prometheus.Gauge
	participants  prometheus.Gauge
	envelopes     *prometheus.CounterVec
	relayDropped  prometheus.Counter
	backpressure  prometheus.Counter
	rejectedConns prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms with at least one participant.",
		}),
		participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants_active",
			Help:      "Participants joined to any room.",
		}),
		envelopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "envelopes_received_total",
			Help:      "Signaling envelopes received from clients, by type.",
		}, []string{"type"}),
		relayDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_dropped_total",
			Help:      "Negotiation envelopes dropped because the target peer was gone.",
		}),
		backpressure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backpressure_events_total",
			Help:      "Messages that did not fit a member's outbound queue.",
		}),
		rejectedConns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_connections_total",
			Help:      "Websocket attempts rejected before upgrade.",
		}),
	}
	m.registry.MustRegister(
		m.rooms,
		m.participants,
		m.envelopes,
		m.relayDropped,
		m.backpressure,
		m.rejectedConns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry and the collector accessors below are exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Rooms() prometheus.Gauge { return m.rooms }

func (m *Metrics) Participants() prometheus.Gauge { return m.participants }

func (m *Metrics) RelayDroppedCounter() prometheus.Counter { return m.relayDropped }

func (m *Metrics) Envelopes() *prometheus.CounterVec { return m.envelopes }

func (m *Metrics) RoomOpened() {
	if m != nil {
		m.rooms.Inc()
	}
}

func (m *Metrics) RoomClosed() {
	if m != nil {
		m.rooms.Dec()
	}
}

func (m *Metrics) ParticipantJoined() {
	if m != nil {
		m.participants.Inc()
	}
}

func (m *Metrics) ParticipantLeft() {
	if m != nil {
		m.participants.Dec()
	}
}

func (m *Metrics) EnvelopeReceived(kind string) {
	if m != nil {
		m.envelopes.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RelayDropped() {
	if m != nil {
		m.relayDropped.Inc()
	}
}

func (m *Metrics) Backpressure(n int) {
	if m != nil && n > 0 {
		m.backpressure.Add(float64(n))
	}
}

func (m *Metrics) ConnectionRejected() {
	if m != nil {
		m.rejectedConns.Inc()
	}
}

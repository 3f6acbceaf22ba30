// Package observability exposes the engine counters to prometheus.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ingested        *prometheus.CounterVec
	duplicates      prometheus.Counter
	malformed       prometheus.Counter
	conflicts       *prometheus.CounterVec
	deltas          prometheus.Counter
	persistFailures prometheus.Counter
	roomsOpen       prometheus.Gauge
	restarts        *prometheus.CounterVec
	queueLength     *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ingested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_sync_ingested_total",
				Help: "Mutations accepted at ingest.",
			},
			[]string{"kind"},
		),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_sync_duplicates_total",
			Help: "Re-delivered mutations dropped at ingest.",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_sync_malformed_total",
			Help: "Malformed mutations dropped at ingest.",
		}),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_sync_conflicts_total",
				Help: "Mutations that left the projection unchanged, by conflict kind.",
			},
			[]string{"kind"},
		),
		deltas: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_sync_deltas_total",
			Help: "Non-empty projection deltas emitted.",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_sync_persist_failures_total",
			Help: "Projection snapshots that could not be saved.",
		}),
		roomsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chat_sync_rooms_open",
			Help: "Rooms with an active mutation subscription.",
		}),
		restarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_sync_worker_restarts_total",
				Help: "Supervised workers restarted after a crash.",
			},
			[]string{"worker"},
		),
		queueLength: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chat_sync_room_queue_length",
				Help: "Mutations waiting in the queue of a room, sampled.",
			},
			[]string{"room"},
		),
	}
	reg.MustRegister(m.ingested, m.duplicates, m.malformed, m.conflicts,
		m.deltas, m.persistFailures, m.roomsOpen, m.restarts, m.queueLength)
	return m
}

func (m *Metrics) IncIngested(kind string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *Metrics) IncMalformed() {
	if m == nil {
		return
	}
	m.malformed.Inc()
}

func (m *Metrics) IncConflict(kind string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncDelta() {
	if m == nil {
		return
	}
	m.deltas.Inc()
}

func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *Metrics) RoomOpened() {
	if m == nil {
		return
	}
	m.roomsOpen.Inc()
}

func (m *Metrics) RoomClosed() {
	if m == nil {
		return
	}
	m.roomsOpen.Dec()
}

func (m *Metrics) IncWorkerRestart(worker string) {
	if m == nil {
		return
	}
	m.restarts.WithLabelValues(worker).Inc()
}

func (m *Metrics) SetQueueLength(room string, length int) {
	if m == nil {
		return
	}
	m.queueLength.WithLabelValues(room).Set(float64(length))
}

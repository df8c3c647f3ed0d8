// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every Prometheus collector the engine populates across a
// tick's lifetime: reservation outcomes, shard fan-out, and merge
// tripwires. A nil *Metrics is valid and every method becomes a no-op,
// mirroring NoopSink's "telemetry is optional" contract.
type Metrics struct {
	reservations     *prometheus.CounterVec
	shardOccupancy   prometheus.Histogram
	mergeTripwires   *prometheus.CounterVec
	channelSizeBytes *prometheus.HistogramVec
}

// NewMetrics registers the engine's collectors against reg and returns the
// populated Metrics. Pass a fresh prometheus.Registry per engine instance,
// or nil to disable metrics entirely.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warpcore",
			Subsystem: "scheduler",
			Name:      "reservations_total",
			Help:      "Reservation outcomes by disposition (reserved, no_match, conflict).",
		}, []string{"disposition"}),
		shardOccupancy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "warpcore",
			Subsystem: "executor",
			Name:      "shard_occupancy",
			Help:      "Number of reservations assigned to a virtual shard per tick.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		mergeTripwires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warpcore",
			Subsystem: "merge",
			Name:      "tripwires_total",
			Help:      "Canonical merge tripwire triggers by kind.",
		}, []string{"kind"}),
		channelSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "warpcore",
			Subsystem: "materialization",
			Name:      "channel_bytes",
			Help:      "Finalized byte size of a materialization channel per tick.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}, []string{"channel"}),
	}
	reg.MustRegister(m.reservations, m.shardOccupancy, m.mergeTripwires, m.channelSizeBytes)
	return m
}

// ObserveReservation records one reservation outcome.
func (m *Metrics) ObserveReservation(disposition string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(disposition).Inc()
}

// ObserveShardOccupancy records how many reservations one shard received.
func (m *Metrics) ObserveShardOccupancy(n int) {
	if m == nil {
		return
	}
	m.shardOccupancy.Observe(float64(n))
}

// ObserveTripwire records one canonical-merge tripwire trigger.
func (m *Metrics) ObserveTripwire(kind string) {
	if m == nil {
		return
	}
	m.mergeTripwires.WithLabelValues(kind).Inc()
}

// ObserveChannelBytes records the finalized byte size of a channel.
func (m *Metrics) ObserveChannelBytes(channel string, n int) {
	if m == nil {
		return
	}
	m.channelSizeBytes.WithLabelValues(channel).Observe(float64(n))
}

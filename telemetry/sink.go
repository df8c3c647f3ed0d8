// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package telemetry defines the engine's one observability seam: a
// capability the host injects at construction time, never a package-level
// logger or metrics registry reached into from deterministic code paths.
// The default, NoopSink, makes telemetry entirely optional.
package telemetry

import "github.com/flyingrobots/warp-core/ids"

// Sink receives notifications from the reservation scheduler and the
// tick pipeline. Every method must return quickly and must never mutate
// engine state; a slow or panicking sink is a host bug, not an engine
// one, but the engine does not defend against it beyond calling it
// synchronously on the reservation-phase goroutine.
type Sink interface {
	// OnReserved fires once per tick per successfully reserved candidate.
	OnReserved(tx uint64, ruleID ids.Hash)
	// OnConflict fires once per tick per rejected candidate, tagged with
	// why it was rejected.
	OnConflict(tx uint64, ruleID ids.Hash, reason string)
	// OnSummary fires once per tick, after reservation completes, with the
	// total reserved and conflicted counts.
	OnSummary(tx uint64, reservedCount, conflictCount int)
}

// NoopSink is the default Sink: every method is a no-op. Engines that
// never configure a Sink pay no telemetry cost beyond an interface call.
type NoopSink struct{}

// OnReserved implements Sink.
func (NoopSink) OnReserved(uint64, ids.Hash) {}

// OnConflict implements Sink.
func (NoopSink) OnConflict(uint64, ids.Hash, string) {}

// OnSummary implements Sink.
func (NoopSink) OnSummary(uint64, int, int) {}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the tunable parameters a host passes to
// engine.New: shard/worker fan-out, retention policy, and telemetry
// opt-in. It mirrors the shape of a consensus engine's Parameters type —
// a plain value struct with defaults per environment and a Validate
// method — applied here to tick-pipeline tuning instead of quorum math.
package config

import (
	"errors"
	"time"

	"github.com/flyingrobots/warp-core/worldline"
)

// Parameter validation errors.
var (
	ErrNumShardsTooLow      = errors.New("config: num shards must be >= 1")
	ErrMaxWorkersNegative   = errors.New("config: max workers must be >= 0")
	ErrRetentionTicksTooLow = errors.New("config: retention ticks must be >= 1 when bounded")
	ErrCheckpointEveryLow   = errors.New("config: checkpoint interval must be >= 1 tick")
)

// RetentionPolicy bounds how much worldline history an engine keeps
// in-memory before pruning, independent of checkpoint cadence.
type RetentionPolicy struct {
	// Unbounded, when true, never prunes; MaxTicks is ignored.
	Unbounded bool
	// MaxTicks is the number of most recent ticks kept once Unbounded is
	// false. Must be >= 1.
	MaxTicks uint64
}

// Parameters tunes one Engine instance.
type Parameters struct {
	// NumShards is the virtual shard count boaw.ExecuteParallel partitions
	// reservations into. Higher values increase scheduling overhead but
	// improve load balance across MaxWorkers goroutines.
	NumShards int
	// MaxWorkers bounds concurrent executor goroutines. Zero means one
	// goroutine per shard (no additional limiting).
	MaxWorkers int
	// CheckpointEvery is the tick interval at which the worldline records
	// a full-store checkpoint. Must be >= 1.
	CheckpointEvery uint64
	// Retention bounds in-memory worldline history.
	Retention RetentionPolicy
	// TelemetryEnabled records whether telemetry is wanted. It is set by
	// the presets and carried in Parameters only: no package in this
	// module reads it, and engine.New uses whatever Config.Metrics it is
	// given.
	TelemetryEnabled bool
	// SlowTickWarn is a commit-duration threshold. It is set by the
	// presets and carried in Parameters only: no package in this module
	// reads it, and no slow-tick warning is logged anywhere.
	SlowTickWarn time.Duration
}

// Default returns the engine's default tuning: conservative shard count,
// unlimited workers, checkpoint every 64 ticks, unbounded retention,
// telemetry on.
func Default() Parameters {
	return Parameters{
		NumShards:        64,
		MaxWorkers:       0,
		CheckpointEvery:  64,
		Retention:        RetentionPolicy{Unbounded: true},
		TelemetryEnabled: true,
		SlowTickWarn:     250 * time.Millisecond,
	}
}

// Local returns tuning suited to a single-process local run: small shard
// count (parallelism adds nothing below a handful of cores), bounded
// retention so a long-running dev session doesn't grow unbounded.
func Local() Parameters {
	p := Default()
	p.NumShards = 8
	p.MaxWorkers = 4
	p.Retention = RetentionPolicy{MaxTicks: 4096}
	return p
}

// Production returns tuning suited to a long-lived service: larger shard
// count for load balance across many cores, bounded retention with a
// tighter checkpoint cadence so recovery after a crash replays less.
func Production() Parameters {
	p := Default()
	p.NumShards = 256
	p.CheckpointEvery = 16
	p.Retention = RetentionPolicy{MaxTicks: 1 << 20}
	return p
}

// WorldlineRetention translates p's retention budget and checkpoint
// cadence into the worldline.RetentionPolicy engine.Config.Retention
// actually consumes: unbounded retention with a checkpoint cadence maps to
// CheckpointEveryK, bounded retention maps to KeepRecentWindow, which
// drops records older than the window whether or not a retained
// checkpoint still needs them.
func (p Parameters) WorldlineRetention() worldline.RetentionPolicy {
	if p.Retention.Unbounded {
		return worldline.CheckpointEveryK(p.CheckpointEvery)
	}
	return worldline.KeepRecentWindow(p.Retention.MaxTicks, p.CheckpointEvery)
}

// Validate checks p for internal consistency.
func (p Parameters) Validate() error {
	if p.NumShards < 1 {
		return ErrNumShardsTooLow
	}
	if p.MaxWorkers < 0 {
		return ErrMaxWorkersNegative
	}
	if p.CheckpointEvery < 1 {
		return ErrCheckpointEveryLow
	}
	if !p.Retention.Unbounded && p.Retention.MaxTicks < 1 {
		return ErrRetentionTicksTooLow
	}
	return nil
}

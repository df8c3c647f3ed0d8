// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package boaw

import (
	"context"
	"sort"
	"sync"

	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/scheduler"
	"github.com/flyingrobots/warp-core/telemetry"
	"golang.org/x/sync/errgroup"
)

// ExecuteSerial runs every reservation's executor in canonical order
// against store, without any concurrency. Useful for small ticks and for
// differential testing against ExecuteParallel: both must produce the
// same multiset of deltas (merge order, not execution order, determines
// the final result).
func ExecuteSerial(store *graph.Store, reservations []scheduler.Reservation) []rule.Delta {
	ordered := sortedReservations(reservations)
	var out []rule.Delta
	for _, r := range ordered {
		out = append(out, r.Candidate.Rule.Execute(store, r.Candidate.Match)...)
	}
	return out
}

// ExecuteParallel runs each virtual shard's reservations concurrently,
// each executor reading only from store (never mutating it — executors
// must be pure with respect to store and return their mutations as
// deltas), and returns every delta produced. numShards <= 0 defaults to
// DefaultNumShards. maxWorkers <= 0 runs one goroutine per shard. metrics
// may be nil; each shard's reservation count is otherwise recorded via
// ObserveShardOccupancy.
func ExecuteParallel(ctx context.Context, store *graph.Store, reservations []scheduler.Reservation, numShards, maxWorkers int, metrics *telemetry.Metrics) ([]rule.Delta, error) {
	if numShards <= 0 {
		numShards = DefaultNumShards
	}
	shards := Partition(reservations, numShards)

	shardIDs := make([]int, 0, len(shards))
	for id := range shards {
		shardIDs = append(shardIDs, id)
	}
	sort.Ints(shardIDs)

	results := make([][]rule.Delta, len(shardIDs))

	g, ctx := errgroup.WithContext(ctx)
	if maxWorkers > 0 {
		g.SetLimit(maxWorkers)
	}

	var mu sync.Mutex
	for i, id := range shardIDs {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			shard := sortedReservations(shards[id])
			metrics.ObserveShardOccupancy(len(shard))
			var deltas []rule.Delta
			for _, r := range shard {
				deltas = append(deltas, r.Candidate.Rule.Execute(store, r.Candidate.Match)...)
			}
			mu.Lock()
			results[i] = deltas
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []rule.Delta
	for _, d := range results {
		out = append(out, d...)
	}
	return out, nil
}

// sortedReservations orders reservations by their canonical scope hash so
// both serial and per-shard execution always iterate in the same order a
// single-threaded reference implementation would.
func sortedReservations(reservations []scheduler.Reservation) []scheduler.Reservation {
	out := append([]scheduler.Reservation(nil), reservations...)
	sort.Slice(out, func(i, j int) bool {
		a, b := scopeHash(out[i]), scopeHash(out[j])
		return a.Less(b)
	})
	return out
}

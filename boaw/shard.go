// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package boaw ("ball of all worlds") implements the parallel execution and
// canonical merge phases of a tick: reserved matches are partitioned into
// virtual shards and executed concurrently against read-only state, and
// their resulting deltas are merged back into the real graph in a single
// deterministic pass.
package boaw

import (
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/scheduler"
)

// DefaultNumShards is the default virtual shard count. It only bounds
// concurrency; it never affects the result, since shard assignment is a
// pure function of scope and merge is canonical regardless of how work
// was partitioned.
const DefaultNumShards = 256

// ShardOf deterministically assigns a reservation to a virtual shard from
// its canonical scope hash, so the same reservation set always partitions
// identically regardless of machine, goroutine count, or scheduling order.
func ShardOf(r scheduler.Reservation, numShards int) int {
	h := scopeHash(r)
	var acc uint64
	for _, b := range h[:8] {
		acc = acc<<8 | uint64(b)
	}
	return int(acc % uint64(numShards))
}

func scopeHash(r scheduler.Reservation) ids.Hash {
	var buf []byte
	buf = append(buf, r.Candidate.Rule.ID[:]...)
	warp := ids.Hash(r.Candidate.Match.Warp)
	buf = append(buf, warp[:]...)
	for _, a := range r.Candidate.Match.Anchors {
		node := ids.Hash(a)
		buf = append(buf, node[:]...)
	}
	return ids.HashBytes("scope:", buf)
}

// Partition splits reservations into numShards buckets by ShardOf. Empty
// buckets are omitted from the returned map.
func Partition(reservations []scheduler.Reservation, numShards int) map[int][]scheduler.Reservation {
	out := make(map[int][]scheduler.Reservation)
	for _, r := range reservations {
		s := ShardOf(r, numShards)
		out[s] = append(out[s], r)
	}
	return out
}

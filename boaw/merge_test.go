// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package boaw

import (
	"context"
	"testing"

	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/scheduler"
	"github.com/flyingrobots/warp-core/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMergeRejectsCrossWarpDelta(t *testing.T) {
	warp := ids.MakeWarpID("w")
	other := ids.MakeWarpID("other")
	store := graph.New(warp)
	delta := rule.Delta{Warp: other, Kind: rule.DeltaInsertNode, Node: ids.MakeNodeID("n")}
	require.ErrorIs(t, Merge(store, []rule.Delta{delta}, nil, nil, false, nil), ErrCrossWarpWrite)
}

func TestMergeRejectsSameTickPortalWrite(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	delta := rule.Delta{Warp: warp, Kind: rule.DeltaInsertNode, Node: ids.MakeNodeID("n")}
	require.ErrorIs(t, Merge(store, []rule.Delta{delta}, nil, nil, true, nil), ErrSameTickPortalWrite)
}

func TestMergeRejectsUndeclaredWrite(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	delta := rule.Delta{Warp: warp, Kind: rule.DeltaInsertNode, Node: ids.MakeNodeID("n"), Origin: ids.HashBytes("origin:", nil)}
	reserved := map[ids.Hash]footprintKeys{} // no origin declared anything
	require.ErrorIs(t, Merge(store, []rule.Delta{delta}, reserved, nil, false, nil), ErrUndeclaredWrite)
}

func TestMergeAppliesNodeBeforeEdge(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	edge := ids.MakeEdgeID("a->b")

	deltas := []rule.Delta{
		{Warp: warp, Kind: rule.DeltaInsertEdge, Edge: edge, Edge2: graph.EdgeRecord{ID: edge, From: a, To: b}},
		{Warp: warp, Kind: rule.DeltaInsertNode, Node: a},
		{Warp: warp, Kind: rule.DeltaInsertNode, Node: b},
	}
	require.NoError(t, Merge(store, deltas, nil, nil, false, nil))

	_, ok := store.Node(a)
	require.True(t, ok)
	require.Len(t, store.EdgesFrom(a), 1)
}

func TestMergeLastWriterWinsIsOriginOrderDeterministic(t *testing.T) {
	warp := ids.MakeWarpID("w")
	n := ids.MakeNodeID("n")
	typeA := ids.MakeTypeID("a")
	typeB := ids.MakeTypeID("b")

	deltas := []rule.Delta{
		{Warp: warp, Kind: rule.DeltaInsertNode, Node: n, Type: typeA, Origin: ids.HashBytes("o:", []byte("1"))},
		{Warp: warp, Kind: rule.DeltaInsertNode, Node: n, Type: typeB, Origin: ids.HashBytes("o:", []byte("2"))},
	}

	store1 := graph.New(warp)
	require.NoError(t, Merge(store1, deltas, nil, nil, false, nil))
	rec1, _ := store1.Node(n)

	reversed := []rule.Delta{deltas[1], deltas[0]}
	store2 := graph.New(warp)
	require.NoError(t, Merge(store2, reversed, nil, nil, false, nil))
	rec2, _ := store2.Node(n)

	require.Equal(t, rec1, rec2, "merge outcome must not depend on input slice order")
}

func TestMergeJoinPolicyCombinesAttachments(t *testing.T) {
	warp := ids.MakeWarpID("w")
	n := ids.MakeNodeID("n")
	typeID := ids.MakeTypeID("counter")

	joinRule := &rule.Rule{
		ID:       ids.MakeRuleID("joiner"),
		Conflict: rule.PolicyJoin,
		Join: func(a, b graph.AttachmentValue) graph.AttachmentValue {
			return graph.Atom(typeID, append(append([]byte{}, a.Bytes...), b.Bytes...))
		},
	}
	ruleByOrigin := map[ids.Hash]*rule.Rule{
		ids.HashBytes("o:", []byte("1")): joinRule,
		ids.HashBytes("o:", []byte("2")): joinRule,
	}

	deltas := []rule.Delta{
		{Warp: warp, Kind: rule.DeltaSetAttachment, Node: n, Value: graph.Atom(typeID, []byte("a")), Origin: ids.HashBytes("o:", []byte("1"))},
		{Warp: warp, Kind: rule.DeltaSetAttachment, Node: n, Value: graph.Atom(typeID, []byte("b")), Origin: ids.HashBytes("o:", []byte("2"))},
	}

	store := graph.New(warp)
	require.NoError(t, Merge(store, deltas, nil, ruleByOrigin, false, nil))
	v, ok := store.Attachment(graph.AttachmentKey{Owner: graph.NodeOwner(n), Plane: graph.PlaneAlpha})
	require.True(t, ok)
	require.Equal(t, []byte("ab"), v.Bytes)
}

func TestMergeAbortPolicyRejectsDuplicateKey(t *testing.T) {
	warp := ids.MakeWarpID("w")
	n := ids.MakeNodeID("n")
	typeA := ids.MakeTypeID("a")
	typeB := ids.MakeTypeID("b")

	abortRule := &rule.Rule{ID: ids.MakeRuleID("aborter"), Conflict: rule.PolicyAbort}
	ruleByOrigin := map[ids.Hash]*rule.Rule{
		ids.HashBytes("o:", []byte("1")): abortRule,
		ids.HashBytes("o:", []byte("2")): abortRule,
	}

	deltas := []rule.Delta{
		{Warp: warp, Kind: rule.DeltaInsertNode, Node: n, Type: typeA, Origin: ids.HashBytes("o:", []byte("1"))},
		{Warp: warp, Kind: rule.DeltaInsertNode, Node: n, Type: typeB, Origin: ids.HashBytes("o:", []byte("2"))},
	}

	store := graph.New(warp)
	require.ErrorIs(t, Merge(store, deltas, nil, ruleByOrigin, false, nil), ErrDuplicateKey)
	_, ok := store.Node(n)
	require.False(t, ok, "a rejected merge must not apply any delta")
}

func TestMergeTripwiresAreObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	warp := ids.MakeWarpID("w")
	other := ids.MakeWarpID("other")
	store := graph.New(warp)
	delta := rule.Delta{Warp: other, Kind: rule.DeltaInsertNode, Node: ids.MakeNodeID("n")}
	require.ErrorIs(t, Merge(store, []rule.Delta{delta}, nil, nil, false, metrics), ErrCrossWarpWrite)

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "warpcore_merge_tripwires_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "kind" && l.GetValue() == "cross_warp_write" {
					found = true
				}
			}
		}
	}
	require.True(t, found, "ErrCrossWarpWrite must be recorded as a merge tripwire")
}

func TestPartitionIsDeterministicAcrossCalls(t *testing.T) {
	warp := ids.MakeWarpID("w")
	r := &rule.Rule{ID: ids.MakeRuleID("r")}
	reservations := []scheduler.Reservation{
		{Candidate: scheduler.Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("1")}}}},
		{Candidate: scheduler.Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("2")}}}},
	}

	p1 := Partition(reservations, 8)
	p2 := Partition(reservations, 8)
	require.Equal(t, p1, p2)
}

func TestExecuteSerialAndParallelProduceSameDeltaMultiset(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)

	execRule := &rule.Rule{
		ID: ids.MakeRuleID("inserter"),
		Execute: func(store *graph.Store, m rule.Match) []rule.Delta {
			return []rule.Delta{{Warp: warp, Kind: rule.DeltaInsertNode, Node: m.Anchors[0]}}
		},
	}

	var reservations []scheduler.Reservation
	for i := 0; i < 20; i++ {
		n := ids.MakeNodeID(string(rune('a' + i)))
		reservations = append(reservations, scheduler.Reservation{
			Candidate: scheduler.Candidate{Rule: execRule, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{n}, MatchIx: uint64(i)}},
		})
	}

	serial := ExecuteSerial(store, reservations)
	parallel, err := ExecuteParallel(context.Background(), store, reservations, 4, 0, nil)
	require.NoError(t, err)

	require.ElementsMatch(t, serial, parallel)
}

func TestExecuteParallelObservesShardOccupancy(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	execRule := &rule.Rule{
		ID: ids.MakeRuleID("inserter"),
		Execute: func(store *graph.Store, m rule.Match) []rule.Delta {
			return []rule.Delta{{Warp: warp, Kind: rule.DeltaInsertNode, Node: m.Anchors[0]}}
		},
	}
	var reservations []scheduler.Reservation
	for i := 0; i < 8; i++ {
		n := ids.MakeNodeID(string(rune('a' + i)))
		reservations = append(reservations, scheduler.Reservation{
			Candidate: scheduler.Candidate{Rule: execRule, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{n}, MatchIx: uint64(i)}},
		})
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	_, err := ExecuteParallel(context.Background(), store, reservations, 4, 0, metrics)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var sampleCount uint64
	for _, mf := range families {
		if mf.GetName() != "warpcore_executor_shard_occupancy" {
			continue
		}
		for _, m := range mf.GetMetric() {
			sampleCount += m.GetHistogram().GetSampleCount()
		}
	}
	require.Positive(t, sampleCount, "each shard's occupancy must be observed")
}

func TestShardOfIsStableForSameReservation(t *testing.T) {
	warp := ids.MakeWarpID("w")
	r := &rule.Rule{ID: ids.MakeRuleID("r")}
	res := scheduler.Reservation{Candidate: scheduler.Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("n")}}}}

	require.Equal(t, ShardOf(res, 16), ShardOf(res, 16))
}

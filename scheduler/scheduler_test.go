// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import (
	"testing"

	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/stretchr/testify/require"
)

func writeFootprintRule(warp ids.WarpId) *rule.Rule {
	return &rule.Rule{
		Name: "writes-anchor",
		ID:   ids.MakeRuleID("writes-anchor"),
		ComputeFootprint: func(store *graph.Store, m rule.Match) footprint.Footprint {
			fp := footprint.New()
			fp.NWrite.Insert(ids.NodeKey{Warp: warp, Node: m.Anchors[0]})
			return fp
		},
	}
}

func TestReserveAcceptsIndependentCandidates(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	store.InsertNode(a, graph.NodeRecord{})
	store.InsertNode(b, graph.NodeRecord{})

	r := writeFootprintRule(warp)
	candidates := []Candidate{
		{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{a}}},
		{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{b}}},
	}

	result := Reserve(store, candidates)
	require.Len(t, result.Reserved, 2)
	require.Empty(t, result.Rejected)
}

func TestReserveRejectsFootprintConflict(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	a := ids.MakeNodeID("a")
	store.InsertNode(a, graph.NodeRecord{})

	r := writeFootprintRule(warp)
	candidates := []Candidate{
		{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{a}, MatchIx: 0}},
		{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{a}, MatchIx: 1}},
	}

	result := Reserve(store, candidates)
	require.Len(t, result.Reserved, 1)
	require.Len(t, result.Rejected, 1)
	require.Equal(t, RejectFootprintConflict, result.Rejected[0].Reason)
}

func TestReserveRejectsNoLongerMatching(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	missing := ids.MakeNodeID("missing") // never inserted

	r := writeFootprintRule(warp)
	candidates := []Candidate{
		{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{missing}}},
	}

	result := Reserve(store, candidates)
	require.Empty(t, result.Reserved)
	require.Len(t, result.Rejected, 1)
	require.Equal(t, RejectNoMatch, result.Rejected[0].Reason)
}

func TestReserveOutcomeIndependentOfInputOrder(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	a := ids.MakeNodeID("a")
	store.InsertNode(a, graph.NodeRecord{})

	r := writeFootprintRule(warp)
	c0 := Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{a}, MatchIx: 0}}
	c1 := Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{a}, MatchIx: 1}}

	forward := Reserve(store, []Candidate{c0, c1})
	backward := Reserve(store, []Candidate{c1, c0})

	require.Equal(t, forward.Reserved[0].Candidate.Match.MatchIx, backward.Reserved[0].Candidate.Match.MatchIx,
		"canonical scope-hash/rule-id/match-index tie-break must be independent of discovery order")
}

func TestReserveAtPredicateRejectsStaleCandidate(t *testing.T) {
	warp := ids.MakeWarpID("w")
	store := graph.New(warp)
	a := ids.MakeNodeID("a")
	store.InsertNode(a, graph.NodeRecord{})

	r := writeFootprintRule(warp)
	r.At = func(store *graph.Store, scope ids.NodeId) bool { return false }

	candidates := []Candidate{{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{a}}}}
	result := Reserve(store, candidates)
	require.Empty(t, result.Reserved)
	require.Equal(t, RejectNoMatch, result.Rejected[0].Reason)
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package demo

import (
	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
)

// DispatchInboxRuleName is the public identifier for the inbox-draining
// rule: every event node that an edge from a `sim/inbox`-typed node
// points to is deleted, clearing the way for downstream command rules (not provided
// here) that match against those events before this rule runs.
const DispatchInboxRuleName = "sys/dispatch_inbox"

var (
	dispatchInboxRuleID = ids.MakeRuleID(DispatchInboxRuleName)
	// InboxTypeID is the node type a warp's inbox root must carry for
	// DispatchInboxRule to consider it.
	InboxTypeID = ids.MakeTypeID("sim/inbox")
)

func inboxAt(store *graph.Store, scope ids.NodeId) bool {
	rec, ok := store.Node(scope)
	if !ok || rec.Type != InboxTypeID {
		return false
	}
	return len(store.EdgesFrom(scope)) > 0
}

func inboxFootprint(store *graph.Store, m rule.Match) footprint.Footprint {
	fp := footprint.New()
	scope := m.Anchors[0]
	fp.NRead.Insert(ids.NodeKey{Warp: m.Warp, Node: scope})
	fp.NWrite.Insert(ids.NodeKey{Warp: m.Warp, Node: scope})
	fp.AWrite.Insert(graph.AttachmentKey{Owner: graph.NodeOwner(scope), Plane: graph.PlaneAlpha}.FootprintKey(m.Warp))

	for _, e := range store.SortedEdgesFrom(scope) {
		fp.EWrite.Insert(ids.EdgeKey{Warp: m.Warp, Edge: e.ID})
		fp.NWrite.Insert(ids.NodeKey{Warp: m.Warp, Node: e.To})
		fp.AWrite.Insert(graph.AttachmentKey{Owner: graph.NodeOwner(e.To), Plane: graph.PlaneAlpha}.FootprintKey(m.Warp))
	}
	return fp
}

// inboxExecute drains the inbox: every child event node is deleted (the
// isolating edge first, since the store never cascades), and the inbox
// node's own alpha attachment breadcrumb is cleared.
func inboxExecute(store *graph.Store, m rule.Match) []rule.Delta {
	scope := m.Anchors[0]
	origin := rule.ScopeHash(dispatchInboxRuleID, m)

	var deltas []rule.Delta
	for _, e := range store.SortedEdgesFrom(scope) {
		deltas = append(deltas,
			rule.Delta{Warp: m.Warp, Kind: rule.DeltaDeleteEdge, Edge: e.ID, Origin: origin},
			rule.Delta{Warp: m.Warp, Kind: rule.DeltaDeleteNode, Node: e.To, Origin: origin},
		)
	}
	deltas = append(deltas, rule.Delta{
		Warp:   m.Warp,
		Kind:   rule.DeltaClearAttachment,
		Node:   scope,
		Plane:  graph.PlaneAlpha,
		Origin: origin,
	})
	return deltas
}

// NewDispatchInboxRule returns the sys/dispatch_inbox rule.
func NewDispatchInboxRule() *rule.Rule {
	return &rule.Rule{
		ID:               dispatchInboxRuleID,
		Name:             DispatchInboxRuleName,
		At:               inboxAt,
		ComputeFootprint: inboxFootprint,
		Execute:          inboxExecute,
		Conflict:         rule.PolicyLastWriterWins,
	}
}

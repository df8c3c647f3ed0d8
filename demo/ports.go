// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package demo

import (
	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
)

// PortRuleName is the public identifier for the demo boundary-port rule.
const PortRuleName = "demo/port_nop"

var portRuleID = ids.MakeRuleID(PortRuleName)

func portAt(store *graph.Store, scope ids.NodeId) bool {
	_, ok := store.Node(scope)
	return ok
}

func portFootprint(store *graph.Store, m rule.Match) footprint.Footprint {
	fp := footprint.New()
	scope := m.Anchors[0]
	fp.NWrite.Insert(ids.NodeKey{Warp: m.Warp, Node: scope})
	fp.BIn.Insert(m.Warp, footprint.PackPortKey(scope, 0, true))
	return fp
}

// portExecute reserves boundary input port 0 on the scoped node and
// increments the x component of its motion payload by 1.0, initializing
// one if the node has none yet. It exists to exercise port-based
// independence checks, not to model any real game behavior.
func portExecute(store *graph.Store, m rule.Match) []rule.Delta {
	scope := m.Anchors[0]
	key := graph.AttachmentKey{Owner: graph.NodeOwner(scope), Plane: graph.PlaneAlpha}
	origin := rule.ScopeHash(portRuleID, m)

	v, ok := store.Attachment(key)
	if !ok {
		payload := EncodeMotionPayload([3]float32{1, 0, 0}, [3]float32{0, 0, 0})
		return []rule.Delta{{
			Warp:   m.Warp,
			Kind:   rule.DeltaSetAttachment,
			Node:   scope,
			Plane:  graph.PlaneAlpha,
			Value:  graph.Atom(motionPayloadType, payload),
			Origin: origin,
		}}
	}

	pos, vel, ok := DecodeMotionPayload(v.Bytes)
	if !ok {
		return nil
	}
	pos[0] += 1.0
	return []rule.Delta{{
		Warp:   m.Warp,
		Kind:   rule.DeltaSetAttachment,
		Node:   scope,
		Plane:  graph.PlaneAlpha,
		Value:  graph.Atom(v.Type, EncodeMotionPayload(pos, vel)),
		Origin: origin,
	}}
}

// motionPayloadType is the attachment type id new motion payloads are
// tagged with when a rule initializes one from scratch rather than
// mutating an existing payload whose type it can simply carry forward.
var motionPayloadType = ids.MakeTypeID("demo/motion-payload")

// NewPortRule returns the demo/port_nop rule: it matches any node present
// in the store, reserves
// boundary input port 0 on the scoped node, and nudges its motion payload,
// used by tests to exercise port-based reservation independence.
func NewPortRule() *rule.Rule {
	return &rule.Rule{
		ID:               portRuleID,
		Name:             PortRuleName,
		At:               portAt,
		ComputeFootprint: portFootprint,
		Execute:          portExecute,
		Conflict:         rule.PolicyLastWriterWins,
	}
}

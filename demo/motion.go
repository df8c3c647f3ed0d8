// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package demo

import (
	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/mathx"
	"github.com/flyingrobots/warp-core/rule"
)

// MotionRuleName is the public identifier for the built-in motion
// integration rule.
const MotionRuleName = "motion/update"

var motionRuleID = ids.MakeRuleID(MotionRuleName)

func motionAt(store *graph.Store, scope ids.NodeId) bool {
	v, ok := store.Attachment(graph.AttachmentKey{Owner: graph.NodeOwner(scope), Plane: graph.PlaneAlpha})
	if !ok {
		return false
	}
	_, _, ok = DecodeMotionPayload(v.Bytes)
	return ok
}

func motionFootprint(store *graph.Store, m rule.Match) footprint.Footprint {
	fp := footprint.New()
	scope := m.Anchors[0]
	fp.NRead.Insert(ids.NodeKey{Warp: m.Warp, Node: scope})
	fp.NWrite.Insert(ids.NodeKey{Warp: m.Warp, Node: scope})
	key := graph.AttachmentKey{Owner: graph.NodeOwner(scope), Plane: graph.PlaneAlpha}
	fp.AWrite.Insert(key.FootprintKey(m.Warp))
	return fp
}

func motionExecute(store *graph.Store, m rule.Match) []rule.Delta {
	scope := m.Anchors[0]
	key := graph.AttachmentKey{Owner: graph.NodeOwner(scope), Plane: graph.PlaneAlpha}
	v, ok := store.Attachment(key)
	if !ok {
		return nil
	}
	pos, vel, ok := DecodeMotionPayload(v.Bytes)
	if !ok {
		return nil
	}
	pos[0] = mathx.CanonicalF32(pos[0] + vel[0])
	pos[1] = mathx.CanonicalF32(pos[1] + vel[1])
	pos[2] = mathx.CanonicalF32(pos[2] + vel[2])

	next := graph.Atom(v.Type, EncodeMotionPayload(pos, vel))
	return []rule.Delta{{
		Warp:   m.Warp,
		Kind:   rule.DeltaSetAttachment,
		Node:   scope,
		Plane:  graph.PlaneAlpha,
		Value:  next,
		Origin: rule.ScopeHash(motionRuleID, m),
	}}
}

// NewMotionRule returns the built-in motion/update rule: it matches any
// node whose alpha attachment decodes as a motion payload, and advances
// its position by its velocity, canonicalizing every float before it can
// reach a digest.
func NewMotionRule() *rule.Rule {
	return &rule.Rule{
		ID:               motionRuleID,
		Name:             MotionRuleName,
		At:               motionAt,
		ComputeFootprint: motionFootprint,
		Execute:          motionExecute,
		Conflict:         rule.PolicyLastWriterWins,
	}
}

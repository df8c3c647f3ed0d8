// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package boaw

import (
	"errors"
	"sort"

	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/scheduler"
	"github.com/flyingrobots/warp-core/telemetry"
)

// ErrCrossWarpWrite is a tripwire error: a delta's warp does not match the
// store it is being merged into. Scheduling should make this impossible;
// its presence here means a rule computed a footprint that lied about
// which warp it would touch.
var ErrCrossWarpWrite = errors.New("boaw: delta targets a different warp than the merge target")

// ErrUndeclaredWrite is a tripwire error: a delta touches a key that was
// never declared in its originating reservation's footprint. Reservation
// independence only protects keys that were declared; an undeclared write
// means the rule's ComputeFootprint under-reported its own mutation.
var ErrUndeclaredWrite = errors.New("boaw: delta touches a key outside its reserved footprint")

// ErrSameTickPortalWrite is a tripwire error: store was opened as a new
// warp (a same-tick portal) in this very tick, and some rewrite still
// targeted it. A warp born this tick is invisible to every rule's
// reservation phase, so any delta reaching it this tick could only have
// arrived by a rule hardcoding a warp id instead of discovering it —
// schedule-time independence never protected that write.
var ErrSameTickPortalWrite = errors.New("boaw: delta targets a warp opened as a portal this same tick")

// ErrDuplicateKey is a tripwire error: two survivors wrote the same target
// key and at least one of their originating rules is registered with
// PolicyAbort. Abort means exactly that — merge rejects the whole tick
// rather than picking a winner, and no mutation is applied.
var ErrDuplicateKey = errors.New("boaw: two survivors wrote the same key under an Abort conflict policy")

// mergeKey identifies the target a delta writes to, for grouping and
// tie-break during merge.
type mergeKey struct {
	kind rule.DeltaKind
	node ids.NodeId
	edge ids.EdgeId
}

func keyOf(d rule.Delta) mergeKey {
	switch d.Kind {
	case rule.DeltaInsertNode, rule.DeltaDeleteNode, rule.DeltaSetAttachment, rule.DeltaClearAttachment:
		return mergeKey{kind: normalizedKind(d.Kind), node: d.Node}
	case rule.DeltaInsertEdge, rule.DeltaDeleteEdge:
		return mergeKey{kind: normalizedKind(d.Kind), edge: d.Edge}
	default:
		return mergeKey{kind: d.Kind, node: d.Node}
	}
}

// normalizedKind collapses opposing delta kinds onto a single bucket so
// they compete in one tie-break group: a set and a clear of the same
// node's attachment share one group (the single "last writer" slot that
// attachment occupies), as do an insert and a delete of the same edge, and
// an insert and a delete of the same node.
func normalizedKind(k rule.DeltaKind) rule.DeltaKind {
	switch k {
	case rule.DeltaSetAttachment, rule.DeltaClearAttachment:
		return rule.DeltaSetAttachment
	case rule.DeltaDeleteEdge:
		return rule.DeltaInsertEdge
	case rule.DeltaDeleteNode:
		return rule.DeltaInsertNode
	default:
		return k
	}
}

// Merge applies deltas to store in canonical order. Deltas are first
// grouped by target key; within a group, a PolicyAbort rule's presence
// rejects the tick outright with ErrDuplicateKey, PolicyJoin rules have
// their JoinFn applied pairwise in (Origin, Warp) order, and all other
// groups keep only the delta that sorts last by (Warp, TargetKey, Origin)
// — last-writer-wins. ruleByID resolves each delta's originating rule for
// conflict policy lookup; a delta whose Origin cannot be resolved to a
// registered rule falls back to last-writer-wins.
//
// store must belong to the single warp every delta targets; ErrCrossWarpWrite
// is returned (and no mutation applied) the instant a delta disagrees.
// openedThisTick must be true when store's warp was itself created by an
// UpsertWarpInstance op earlier in this same tick; in that case any delta
// at all reaching it trips ErrSameTickPortalWrite. A group resolution
// failure (ErrDuplicateKey) is likewise returned before any delta in the
// tick is applied: Merge either applies every winner or none. metrics may
// be nil; every tripwire error is otherwise recorded via ObserveTripwire
// before it is returned.
func Merge(store *graph.Store, deltas []rule.Delta, reservedKeys map[ids.Hash]footprintKeys, ruleByOrigin map[ids.Hash]*rule.Rule, openedThisTick bool, metrics *telemetry.Metrics) error {
	if openedThisTick && len(deltas) > 0 {
		metrics.ObserveTripwire("same_tick_portal_write")
		return ErrSameTickPortalWrite
	}
	for _, d := range deltas {
		if d.Warp != store.WarpID() {
			metrics.ObserveTripwire("cross_warp_write")
			return ErrCrossWarpWrite
		}
	}
	if reservedKeys != nil {
		for _, d := range deltas {
			if !declaredWrite(reservedKeys, d) {
				metrics.ObserveTripwire("undeclared_write")
				return ErrUndeclaredWrite
			}
		}
	}

	groups := make(map[mergeKey][]rule.Delta)
	var order []mergeKey
	for _, d := range deltas {
		k := keyOf(d)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], d)
	}

	// Resolve each group's winner before ordering groups against each
	// other: a node deleted and an edge deleted in the same tick must
	// apply edge-first regardless of insertion order, but a node created
	// and an edge created must apply node-first (the edge's endpoint must
	// exist). Which phase a key is in depends on which delta actually wins
	// its group's conflict, not on the group's normalized kind bucket, so
	// resolution has to happen before the cross-group sort key is known.
	winners := make(map[mergeKey]rule.Delta, len(order))
	for _, k := range order {
		group := groups[k]
		sort.Slice(group, func(i, j int) bool { return group[i].Origin.Less(group[j].Origin) })
		winner, err := resolve(group, ruleByOrigin)
		if err != nil {
			metrics.ObserveTripwire("duplicate_key")
			return err
		}
		winners[k] = winner
	}

	sort.Slice(order, func(i, j int) bool { return lessKey(order[i], winners[order[i]], order[j], winners[order[j]]) })

	for _, k := range order {
		applyDelta(store, winners[k])
	}
	return nil
}

// applyPhase ranks a winning delta's kind into the order Merge applies
// groups in: nodes are created, then edges (which may reference them),
// then attachments, then edges are torn down, then nodes (now isolated).
func applyPhase(k rule.DeltaKind) int {
	switch k {
	case rule.DeltaInsertNode:
		return 0
	case rule.DeltaInsertEdge:
		return 1
	case rule.DeltaSetAttachment, rule.DeltaClearAttachment:
		return 2
	case rule.DeltaDeleteEdge:
		return 3
	case rule.DeltaDeleteNode:
		return 4
	default:
		return 2
	}
}

func lessKey(a mergeKey, aWinner rule.Delta, b mergeKey, bWinner rule.Delta) bool {
	if pa, pb := applyPhase(aWinner.Kind), applyPhase(bWinner.Kind); pa != pb {
		return pa < pb
	}
	if a.kind != b.kind {
		return a.kind < b.kind
	}
	if a.node != b.node {
		return ids.Hash(a.node).Less(ids.Hash(b.node))
	}
	return ids.Hash(a.edge).Less(ids.Hash(b.edge))
}

// resolve picks the delta to apply from a same-key group. If any delta in
// the group originates from a rule registered with PolicyAbort, the group
// is a hard conflict: resolve reports ErrDuplicateKey and the whole tick is
// rejected. Otherwise, if every delta in the group originates from a rule
// registered with PolicyJoin and carries an attachment value, the values
// are folded left-to-right with JoinFn (already in canonical Origin order);
// otherwise the last delta in canonical order wins (last-writer-wins, the
// default for rules that never declared a conflict policy at all).
func resolve(group []rule.Delta, ruleByOrigin map[ids.Hash]*rule.Rule) (rule.Delta, error) {
	if len(group) == 1 {
		return group[0], nil
	}

	allJoin := true
	for _, d := range group {
		r, ok := ruleByOrigin[d.Origin]
		if ok && r.Conflict == rule.PolicyAbort {
			return rule.Delta{}, ErrDuplicateKey
		}
		if !ok || r.Conflict != rule.PolicyJoin || r.Join == nil || d.Kind != rule.DeltaSetAttachment {
			allJoin = false
		}
	}
	if !allJoin {
		return group[len(group)-1], nil
	}

	acc := group[0]
	for _, d := range group[1:] {
		r := ruleByOrigin[d.Origin]
		acc.Value = r.Join(acc.Value, d.Value)
	}
	return acc, nil
}

func applyDelta(store *graph.Store, d rule.Delta) {
	switch d.Kind {
	case rule.DeltaInsertNode:
		store.InsertNode(d.Node, graph.NodeRecord{Type: d.Type})
	case rule.DeltaDeleteNode:
		_ = store.DeleteNode(d.Node)
	case rule.DeltaInsertEdge:
		store.InsertEdge(d.Edge2.From, d.Edge2)
	case rule.DeltaDeleteEdge:
		store.DeleteEdge(d.Edge)
	case rule.DeltaSetAttachment:
		v := d.Value
		store.SetAttachment(graph.AttachmentKey{Owner: graph.NodeOwner(d.Node), Plane: d.Plane}, &v)
	case rule.DeltaClearAttachment:
		store.SetAttachment(graph.AttachmentKey{Owner: graph.NodeOwner(d.Node), Plane: d.Plane}, nil)
	}
}

// FootprintKeys is the flattened set of keys a single reservation declared
// as writable, used by Merge to enforce ErrUndeclaredWrite.
type FootprintKeys = footprintKeys

// footprintKeys is the flattened set of keys a single reservation declared
// as writable, used by Merge to enforce ErrUndeclaredWrite.
type footprintKeys struct {
	Nodes map[ids.NodeId]struct{}
	Edges map[ids.EdgeId]struct{}
}

// ReservedKeysFromReservations flattens each reservation's footprint into
// the origin-keyed write-set Merge checks every delta against, so a caller
// driving a real tick (as opposed to worldline replay, which trusts
// already-merged history) can enforce ErrUndeclaredWrite.
func ReservedKeysFromReservations(reservations []scheduler.Reservation) map[ids.Hash]FootprintKeys {
	out := make(map[ids.Hash]FootprintKeys, len(reservations))
	for _, r := range reservations {
		keys := footprintKeys{Nodes: make(map[ids.NodeId]struct{}), Edges: make(map[ids.EdgeId]struct{})}
		for k := range r.Footprint.NWrite {
			keys.Nodes[k.Node] = struct{}{}
		}
		for k := range r.Footprint.EWrite {
			keys.Edges[k.Edge] = struct{}{}
		}
		origin := rule.ScopeHash(r.Candidate.Rule.ID, r.Candidate.Match)
		out[origin] = keys
	}
	return out
}

func declaredWrite(reservedKeys map[ids.Hash]footprintKeys, d rule.Delta) bool {
	keys, ok := reservedKeys[d.Origin]
	if !ok {
		return false
	}
	switch d.Kind {
	case rule.DeltaInsertNode, rule.DeltaDeleteNode, rule.DeltaSetAttachment, rule.DeltaClearAttachment:
		_, ok := keys.Nodes[d.Node]
		return ok
	case rule.DeltaInsertEdge, rule.DeltaDeleteEdge:
		_, ok := keys.Edges[d.Edge]
		return ok
	default:
		return false
	}
}

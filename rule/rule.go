// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rule defines a rewrite rule: a left-hand pattern matcher, a
// footprint computation over a match, an executor that emits deltas, and
// the conflict-resolution policy the canonical merge stage applies if two
// instances of this rule (or this rule and another) are forced to touch
// overlapping state across shards.
package rule

import (
	"errors"

	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
)

// ErrDuplicateRuleName is returned by Registry.Register when a rule with
// the same Name is already registered.
var ErrDuplicateRuleName = errors.New("rule: duplicate rule name")

// ErrDuplicateRuleID is returned by Registry.Register when a rule with the
// same ID (derived from a different name that happens to collide) is
// already registered. A collision here indicates a BLAKE3 break or a
// programming error, not ordinary operation.
var ErrDuplicateRuleID = errors.New("rule: duplicate rule id")

// Match is a single binding of a rule's left-hand pattern to concrete graph
// state: the warp it was found in and whatever anchor node(s) the rule's
// Matcher chose to report. Rules are free to encode richer binding data in
// Anchors; the scheduler orders candidates by a scope hash of rule id,
// Warp and Anchors, then by MatchIx, and re-checks At against the first
// anchor.
type Match struct {
	Warp    ids.WarpId
	Anchors []ids.NodeId
	MatchIx uint64 // stable index among matches found for one rule in one tick
}

// Delta is one unit of mutation a rule's Executor produces for a match.
// The canonical merge stage is the only place these are actually applied
// to a graph.Store; shard-local execution only produces them.
type Delta struct {
	Warp   ids.WarpId
	Kind   DeltaKind
	Node   ids.NodeId
	Edge   ids.EdgeId
	Edge2  graph.EdgeRecord // valid iff Kind == DeltaInsertEdge
	Type   ids.TypeId       // valid iff Kind == DeltaInsertNode
	Plane  graph.AttachmentPlane
	Value  graph.AttachmentValue // valid iff Kind == DeltaSetAttachment
	Origin ids.Hash              // scope hash of the match that produced this delta, for tie-break
}

// DeltaKind discriminates the Delta tagged union.
type DeltaKind uint8

// DeltaKind values.
const (
	DeltaInsertNode DeltaKind = iota
	DeltaDeleteNode
	DeltaInsertEdge
	DeltaDeleteEdge
	DeltaSetAttachment
	DeltaClearAttachment
)

// Matcher finds every match of a rule's left-hand pattern within store.
// Implementations must be deterministic: given identical store content,
// they must return matches in some fixed order (MatchIx is assigned by
// the caller from that order, not by the matcher itself re-deriving it).
type Matcher func(store *graph.Store) []Match

// MatchAtFn checks whether a rule's left-hand pattern holds anchored at a
// single, caller-supplied scope, without enumerating every match in the
// store. This is what the engine façade's explicit apply(tx, rule, scope)
// calls, and what the scheduler re-invokes to verify a candidate still
// holds immediately before reservation.
type MatchAtFn func(store *graph.Store, scope ids.NodeId) bool

// FootprintFn computes the read/write declaration a specific match would
// make, without performing any mutation.
type FootprintFn func(store *graph.Store, m Match) footprint.Footprint

// Executor performs the mutation for a reserved match, returning the
// deltas it produced. Executors never write directly to store; shard
// execution only collects the returned deltas, and only canonical merge
// commits them to the warp's real Store.
type Executor func(store *graph.Store, m Match) []Delta

// ConflictPolicy tells canonical merge how to resolve two deltas from
// different rewrites that target the same key after scheduling already
// guaranteed the underlying footprints were independent in-tick (this
// only matters for cross-tick/cross-shard boundary writes the footprint
// model does not fully serialize, e.g. reduce channels).
type ConflictPolicy uint8

// ConflictPolicy values.
const (
	// PolicyLastWriterWins resolves by ascending Delta.Origin (the
	// producing match's scope hash): the writer that sorts last applies.
	PolicyLastWriterWins ConflictPolicy = iota
	// PolicyJoin resolves by calling the rule's JoinFn to combine both
	// values deterministically instead of picking one.
	PolicyJoin
	// PolicyAbort rejects the whole tick the instant two survivors write
	// the same key: canonical merge returns ErrDuplicateKey and applies
	// nothing, rather than silently picking a winner.
	PolicyAbort
)

// JoinFn deterministically combines two conflicting attachment values for
// rules registered with PolicyJoin. Must be associative and commutative so
// that joining more than two values in any order yields the same result.
type JoinFn func(a, b graph.AttachmentValue) graph.AttachmentValue

// Rule is a fully registered rewrite rule.
type Rule struct {
	ID    ids.Hash
	Name  string
	Match Matcher   // optional: bulk discovery across the whole store
	At    MatchAtFn // optional: single-scope predicate used by engine.Apply

	ComputeFootprint FootprintFn
	Execute          Executor

	// FactorMask seeds footprint.Footprint.FactorMask for every match this
	// rule produces, letting the scheduler's cheap early-out work even
	// before a match-specific footprint is computed.
	FactorMask uint64

	Conflict ConflictPolicy
	Join     JoinFn // only consulted when Conflict == PolicyJoin
}

// ScopeHash derives the same canonical tie-break key the scheduler and
// canonical merge compute from a reservation: a hash of the rule's id, the
// match's warp, and its anchors. Executors use it to stamp Delta.Origin so
// merge can resolve same-key conflicts in a deterministic order without
// needing to see the whole reservation. ruleID is the rule's own ID field
// (known to the executor at definition time, since it is derived
// deterministically from the rule's name).
func ScopeHash(ruleID ids.Hash, m Match) ids.Hash {
	var buf []byte
	buf = append(buf, ruleID[:]...)
	warp := ids.Hash(m.Warp)
	buf = append(buf, warp[:]...)
	for _, a := range m.Anchors {
		node := ids.Hash(a)
		buf = append(buf, node[:]...)
	}
	return ids.HashBytes("scope:", buf)
}

// Registry is the set of rules known to an engine instance, keyed both by
// name and by derived id so duplicate registration is caught either way.
type Registry struct {
	byName map[string]*Rule
	byID   map[ids.Hash]*Rule
	order  []*Rule // registration order, for deterministic iteration
}

// NewRegistry returns an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Rule),
		byID:   make(map[ids.Hash]*Rule),
	}
}

// Register adds r to the registry, deriving r.ID from r.Name via
// ids.MakeRuleID if r.ID is the zero hash. Fails with ErrDuplicateRuleName
// or ErrDuplicateRuleID if either is already taken.
func (reg *Registry) Register(r *Rule) error {
	if r.ID.IsZero() {
		r.ID = ids.MakeRuleID(r.Name)
	}
	if _, ok := reg.byName[r.Name]; ok {
		return ErrDuplicateRuleName
	}
	if _, ok := reg.byID[r.ID]; ok {
		return ErrDuplicateRuleID
	}
	reg.byName[r.Name] = r
	reg.byID[r.ID] = r
	reg.order = append(reg.order, r)
	return nil
}

// Lookup returns the rule registered under name, if any.
func (reg *Registry) Lookup(name string) (*Rule, bool) {
	r, ok := reg.byName[name]
	return r, ok
}

// All returns every registered rule in registration order.
func (reg *Registry) All() []*Rule {
	return append([]*Rule(nil), reg.order...)
}

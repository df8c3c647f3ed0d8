// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler implements the reservation phase of a tick: for every
// candidate match of every registered rule, verify the match still holds,
// compute its footprint, and attempt to reserve it against the union of
// everything already reserved this tick. Rejections are recorded, never
// silently dropped, so a tick's receipt fully explains its own outcome.
package scheduler

import (
	"sort"

	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
)

// RejectReason discriminates why a candidate was not reserved.
type RejectReason uint8

// RejectReason values.
const (
	// RejectNoMatch means the match no longer held when re-verified
	// immediately before reservation (another, earlier-sorted candidate
	// already mutated state it depended on).
	RejectNoMatch RejectReason = iota
	// RejectFootprintConflict means the match's footprint overlapped the
	// union of footprints already reserved this tick.
	RejectFootprintConflict
)

// Candidate is one match paired with the rule that produced it, carrying
// everything the scheduler needs to compute a canonical sort key.
type Candidate struct {
	Rule  *rule.Rule
	Match rule.Match
}

// scopeHash derives a deterministic tie-break key for a candidate from its
// rule id, warp, and anchors — independent of registration or discovery
// order, so two engines fed the same graph and rule set always reserve in
// the same order.
func scopeHash(c Candidate) ids.Hash {
	var buf []byte
	buf = append(buf, c.Rule.ID[:]...)
	warp := ids.Hash(c.Match.Warp)
	buf = append(buf, warp[:]...)
	for _, a := range c.Match.Anchors {
		node := ids.Hash(a)
		buf = append(buf, node[:]...)
	}
	return ids.HashBytes("scope:", buf)
}

// Reservation is one accepted candidate plus the footprint it was
// reserved under.
type Reservation struct {
	Candidate Candidate
	Footprint footprint.Footprint
}

// Rejection is one candidate that failed to reserve, plus why.
type Rejection struct {
	Candidate Candidate
	Reason    RejectReason
}

// Result is the complete outcome of one reservation pass.
type Result struct {
	Reserved []Reservation
	Rejected []Rejection
}

// sortKey orders candidates canonically: by scope hash, then rule id, then
// match index, so reservation order — and therefore every rejection — is
// fully deterministic regardless of how candidates were discovered.
type sortKey struct {
	scope   ids.Hash
	ruleID  ids.Hash
	matchIx uint64
	idx     int
}

// Reserve runs the reservation phase over candidates against store. store
// is read-only during this phase: reservation never mutates graph state,
// it only decides which matches proceed to execution.
func Reserve(store *graph.Store, candidates []Candidate) Result {
	keys := make([]sortKey, len(candidates))
	for i, c := range candidates {
		keys[i] = sortKey{scope: scopeHash(c), ruleID: c.Rule.ID, matchIx: c.Match.MatchIx, idx: i}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if cmp := a.scope.Compare(b.scope); cmp != 0 {
			return cmp < 0
		}
		if cmp := a.ruleID.Compare(b.ruleID); cmp != 0 {
			return cmp < 0
		}
		return a.matchIx < b.matchIx
	})

	var res Result
	var reservedUnion footprint.Footprint
	first := true

	for _, k := range keys {
		c := candidates[k.idx]

		if !rematch(store, c) {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: RejectNoMatch})
			continue
		}

		fp := c.Rule.ComputeFootprint(store, c.Match)
		fp.FactorMask |= c.Rule.FactorMask

		if !first && !footprint.Independent(fp, reservedUnion) {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: RejectFootprintConflict})
			continue
		}

		res.Reserved = append(res.Reserved, Reservation{Candidate: c, Footprint: fp})
		reservedUnion = union(reservedUnion, fp, first)
		first = false
	}

	return res
}

// rematch re-verifies that c.Match's anchor set is still present in store.
// A full rule implementation may re-run its own Matcher restricted to the
// anchors; this conservative check only confirms the anchor nodes were
// not removed out from under the match by an earlier, canonically-sorted
// reservation in the same pass.
func rematch(store *graph.Store, c Candidate) bool {
	for _, n := range c.Match.Anchors {
		if _, ok := store.Node(n); !ok {
			return false
		}
	}
	if c.Rule.At != nil && len(c.Match.Anchors) > 0 {
		return c.Rule.At(store, c.Match.Anchors[0])
	}
	return true
}

// union merges b into a, widening the accumulated reservation footprint.
// When first is true, a is the zero Footprint and the result is simply a
// copy of b's sets.
func union(a, b footprint.Footprint, first bool) footprint.Footprint {
	if first {
		out := footprint.New()
		mergeInto(out, b)
		out.FactorMask = b.FactorMask
		return out
	}
	mergeInto(a, b)
	a.FactorMask |= b.FactorMask
	return a
}

func mergeInto(dst, src footprint.Footprint) {
	for k := range src.NRead {
		dst.NRead.Insert(k)
	}
	for k := range src.NWrite {
		dst.NWrite.Insert(k)
	}
	for k := range src.ERead {
		dst.ERead.Insert(k)
	}
	for k := range src.EWrite {
		dst.EWrite.Insert(k)
	}
	for k := range src.ARead {
		dst.ARead.Insert(k)
	}
	for k := range src.AWrite {
		dst.AWrite.Insert(k)
	}
	for k := range src.BIn {
		dst.BIn[k] = struct{}{}
	}
	for k := range src.BOut {
		dst.BOut[k] = struct{}{}
	}
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package patch defines the per-tick commitment chain: the patch (the
// deltas the tick's executors produced), the receipt (reservations,
// rejections, and the resulting digests), and the composed commit hash
// that chains one tick to the next.
package patch

import (
	"encoding/binary"
	"sort"

	"github.com/flyingrobots/warp-core/domain"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/scheduler"
	"github.com/zeebo/blake3"
)

// TickPatch is the list of deltas a tick's executors produced, as the
// engine collected them (unsorted, and including deltas that lost a
// last-writer-wins group in boaw.Merge). Digest sorts its own copy by
// (Kind, Node, Edge, Origin), so the digest is independent of execution
// order.
type TickPatch struct {
	Warp   ids.WarpId
	TickNo uint64
	Deltas []rule.Delta
}

// Digest computes the domain-separated patch digest per spec.md's
// `patch_digest = blake3(PATCH_DIGEST_V1 ⧺ length(ops) ⧺ canonical_op_bytes)`:
// a BLAKE3 hash over the ops count and every delta's (Kind, Node, Edge,
// Origin, attachment Value) in canonical order. The digest intentionally
// does not depend on TickNo — two ticks merging an identical op list would
// otherwise be indistinguishable from the patch alone anyway, and tick
// identity is already carried by the commit hash's parent-chain, not the
// patch digest.
func (p TickPatch) Digest() ids.Hash {
	sorted := append([]rule.Delta(nil), p.Deltas...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Node != b.Node {
			return ids.Hash(a.Node).Less(ids.Hash(b.Node))
		}
		if a.Edge != b.Edge {
			return ids.Hash(a.Edge).Less(ids.Hash(b.Edge))
		}
		return a.Origin.Less(b.Origin)
	})

	h := blake3.New()
	_, _ = h.Write(domain.PatchDigestV1)

	var lenBuf [8]byte
	writeUvarint := func(n uint64) {
		binary.LittleEndian.PutUint64(lenBuf[:], n)
		_, _ = h.Write(lenBuf[:])
	}

	writeUvarint(uint64(len(sorted)))
	for _, d := range sorted {
		_, _ = h.Write([]byte{byte(d.Kind)})
		_, _ = h.Write(d.Node[:])
		_, _ = h.Write(d.Edge[:])
		_, _ = h.Write(d.Origin[:])
		_, _ = h.Write([]byte{byte(d.Value.Kind)})
		typeID := ids.Hash(d.Value.Type)
		_, _ = h.Write(typeID[:])
		writeUvarint(uint64(len(d.Value.Bytes)))
		_, _ = h.Write(d.Value.Bytes)
	}

	var out ids.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// TickReceipt is the full, auditable record of one tick's reservation
// phase: every reservation that was accepted, every rejection and its
// reason, and the resulting state root / patch digest.
type TickReceipt struct {
	Warp       ids.WarpId
	TickNo     uint64
	Reserved   []scheduler.Reservation
	Rejected   []scheduler.Rejection
	StateRoot  ids.Hash
	PatchHash  ids.Hash
	DecisionID ids.Hash
}

// DecisionDigest computes the decision digest (no domain prefix) per
// spec.md's `decision_digest = blake3(len(entries) ⧺ for each entry:
// rule_id ⧺ scope_hash ⧺ disposition_tag)`, so two engines that reserved
// identically (even if they rejected for different underlying reasons
// would be a bug) can prove it without comparing full receipts. An empty
// entry list collapses to ids.DigestLen0U64 rather than hashing anything.
func DecisionDigest(reserved []scheduler.Reservation, rejected []scheduler.Rejection) ids.Hash {
	if len(reserved) == 0 && len(rejected) == 0 {
		return ids.DigestLen0U64
	}
	type entry struct {
		ruleID    ids.Hash
		scopeHash ids.Hash
		status    byte // 0 = reserved, 1 = no-match, 2 = conflict
	}
	var entries []entry
	for _, r := range reserved {
		cand := r.Candidate
		entries = append(entries, entry{ruleID: cand.Rule.ID, scopeHash: rule.ScopeHash(cand.Rule.ID, cand.Match), status: 0})
	}
	for _, r := range rejected {
		status := byte(1)
		if r.Reason == scheduler.RejectFootprintConflict {
			status = 2
		}
		cand := r.Candidate
		entries = append(entries, entry{ruleID: cand.Rule.ID, scopeHash: rule.ScopeHash(cand.Rule.ID, cand.Match), status: status})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if cmp := a.ruleID.Compare(b.ruleID); cmp != 0 {
			return cmp < 0
		}
		return a.scopeHash.Less(b.scopeHash)
	})

	h := blake3.New()
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(entries)))
	_, _ = h.Write(lenBuf[:])
	for _, e := range entries {
		_, _ = h.Write(e.ruleID[:])
		_, _ = h.Write(e.scopeHash[:])
		_, _ = h.Write([]byte{e.status})
	}

	var out ids.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// CommitHash composes the per-tick commit hash that chains ticks together:
// domain prefix, previous commit hash, state root, patch digest, decision
// digest, and emissions digest. prev should be the zero Hash for the
// warp's genesis tick. emissionsDigest should be ids.DigestLen0U64 when a
// tick emitted nothing, so genesis and empty-emission ticks hash
// identically regardless of which materialization channels exist.
func CommitHash(prev, stateRoot, patchDigest, decisionDigest, emissionsDigest ids.Hash) ids.Hash {
	h := blake3.New()
	_, _ = h.Write(domain.CommitIDV2)
	_, _ = h.Write(prev[:])
	_, _ = h.Write(stateRoot[:])
	_, _ = h.Write(patchDigest[:])
	_, _ = h.Write(decisionDigest[:])
	_, _ = h.Write(emissionsDigest[:])

	var out ids.Hash
	copy(out[:], h.Sum(nil))
	return out
}

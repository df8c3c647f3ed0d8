// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the typed, content-addressed identifiers used
// throughout the engine: nodes, edges, types, and warps are all BLAKE3
// digests wrapped in distinct types so the compiler rejects accidental
// mixing (e.g. passing a TypeId where a NodeId is expected).
package ids

import (
	"bytes"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash is the canonical 256-bit BLAKE3 digest shared by every identifier
// and commitment in the engine.
type Hash [32]byte

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Compare returns -1, 0, or 1 as h is less than, equal to, or greater than
// other, using lexicographic order over the 32 bytes.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// Less reports whether h sorts strictly before other.
func (h Hash) Less(other Hash) bool {
	return h.Compare(other) < 0
}

// IsZero reports whether h is the all-zero digest.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func hashLabel(domain, label string) Hash {
	return HashBytes(domain, []byte(label))
}

// HashBytes derives a domain-separated Hash from arbitrary bytes. Exported
// for callers outside this package that need to mint their own derived,
// content-addressed keys (e.g. the scheduler's canonical scope hash).
func HashBytes(domain string, data []byte) Hash {
	hasher := blake3.New()
	_, _ = hasher.Write([]byte(domain))
	_, _ = hasher.Write(data)
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out
}

// Domain prefixes used to derive each identifier kind from a label. These
// are distinct so that, e.g., MakeNodeID("x") and MakeTypeID("x") never
// collide even though they hash the same label bytes.
const (
	domainType = "type:"
	domainNode = "node:"
	domainEdge = "edge:"
	domainWarp = "warp:"
	domainRule = "rule:"
)

// TypeId identifies the logical kind of a node or edge.
type TypeId Hash

// NodeId identifies a node within a single warp.
type NodeId Hash

// EdgeId identifies a directed edge within a single warp.
type EdgeId Hash

// WarpId identifies a branchable sub-universe of the graph.
type WarpId Hash

// MakeTypeID derives a stable TypeId from a label.
func MakeTypeID(label string) TypeId { return TypeId(hashLabel(domainType, label)) }

// MakeNodeID derives a stable NodeId from a label.
func MakeNodeID(label string) NodeId { return NodeId(hashLabel(domainNode, label)) }

// MakeEdgeID derives a stable EdgeId from a label.
func MakeEdgeID(label string) EdgeId { return EdgeId(hashLabel(domainEdge, label)) }

// MakeWarpID derives a stable WarpId from a label.
func MakeWarpID(label string) WarpId { return WarpId(hashLabel(domainWarp, label)) }

// MakeRuleID derives the deterministic rule identifier used by the runtime.
// Registering two rules whose names hash to the same id is fatal (see
// rule.Registry.Register).
func MakeRuleID(name string) Hash { return hashLabel(domainRule, name) }

func (t TypeId) String() string { return Hash(t).String() }
func (n NodeId) String() string { return Hash(n).String() }
func (e EdgeId) String() string { return Hash(e).String() }
func (w WarpId) String() string { return Hash(w).String() }

// Less reports lexicographic order, used for canonical sorting.
func (t TypeId) Less(other TypeId) bool { return Hash(t).Less(Hash(other)) }
func (n NodeId) Less(other NodeId) bool { return Hash(n).Less(Hash(other)) }
func (e EdgeId) Less(other EdgeId) bool { return Hash(e).Less(Hash(other)) }
func (w WarpId) Less(other WarpId) bool { return Hash(w).Less(Hash(other)) }

// NodeKey is the cross-warp-safe reference to a node: a bare NodeId is only
// meaningful inside a single, already-known warp.
type NodeKey struct {
	Warp WarpId
	Node NodeId
}

// Less gives NodeKey a canonical order: warp first, then node.
func (k NodeKey) Less(other NodeKey) bool {
	if k.Warp != other.Warp {
		return Hash(k.Warp).Less(Hash(other.Warp))
	}
	return k.Node.Less(other.Node)
}

// EdgeKey is the cross-warp-safe reference to an edge.
type EdgeKey struct {
	Warp WarpId
	Edge EdgeId
}

// Less gives EdgeKey a canonical order: warp first, then edge.
func (k EdgeKey) Less(other EdgeKey) bool {
	if k.Warp != other.Warp {
		return Hash(k.Warp).Less(Hash(other.Warp))
	}
	return k.Edge.Less(other.Edge)
}

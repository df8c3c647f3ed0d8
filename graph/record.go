// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package graph implements the per-warp content-addressed property graph:
// a skeleton plane of nodes and edges, and a separate attachment plane of
// typed payloads. Deletions are explicit and never cascade, so footprint
// enforcement can never be bypassed by a hidden mutation.
package graph

import (
	"github.com/flyingrobots/warp-core/footprint"
	"github.com/flyingrobots/warp-core/ids"
)

// NodeRecord is the skeleton-plane record for a node: structural identity
// only. Payloads live in the attachment plane, addressed separately by
// AttachmentKey.
type NodeRecord struct {
	Type ids.TypeId
}

// EdgeRecord is the skeleton-plane record for a directed edge. Both
// endpoints live in the same warp as the edge itself.
type EdgeRecord struct {
	ID   ids.EdgeId
	From ids.NodeId
	To   ids.NodeId
	Type ids.TypeId
}

// AttachmentPlane names an attachment namespace. Alpha is the default
// plane; future planes can host claims/commitments without colliding with
// application payloads.
type AttachmentPlane uint8

// AttachmentPlane values.
const (
	PlaneAlpha AttachmentPlane = iota
)

// AttachmentOwnerKind discriminates whether an AttachmentKey addresses a
// node or an edge.
type AttachmentOwnerKind uint8

// AttachmentOwnerKind values.
const (
	OwnerNode AttachmentOwnerKind = iota
	OwnerEdge
)

// AttachmentOwner is the tagged union of the two things an attachment can
// be attached to.
type AttachmentOwner struct {
	Kind AttachmentOwnerKind
	Node ids.NodeId // valid iff Kind == OwnerNode
	Edge ids.EdgeId // valid iff Kind == OwnerEdge
}

// NodeOwner builds an AttachmentOwner pointing at a node.
func NodeOwner(n ids.NodeId) AttachmentOwner { return AttachmentOwner{Kind: OwnerNode, Node: n} }

// EdgeOwner builds an AttachmentOwner pointing at an edge.
func EdgeOwner(e ids.EdgeId) AttachmentOwner { return AttachmentOwner{Kind: OwnerEdge, Edge: e} }

// AttachmentKey addresses a single attachment slot: an owner plus a plane.
type AttachmentKey struct {
	Owner AttachmentOwner
	Plane AttachmentPlane
}

// AttachmentValueKind discriminates the AttachmentValue tagged union.
type AttachmentValueKind uint8

// AttachmentValueKind values. Additional variants (claims, commitments,
// reducer intermediates) are reserved for future phases; encoders must
// treat an unknown kind as a hard decode error, never silently ignore it.
const (
	ValueAtom AttachmentValueKind = iota
)

// AttachmentValue is the tagged union of payloads an attachment slot can
// hold. Two atoms with identical bytes but different TypeID must hash
// differently at every commitment boundary (see snapshot.StateRoot and
// patch.TickPatch.Digest).
type AttachmentValue struct {
	Kind  AttachmentValueKind
	Type  ids.TypeId
	Bytes []byte
}

// Atom constructs an AttachmentValue carrying an opaque typed payload.
func Atom(typeID ids.TypeId, payload []byte) AttachmentValue {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return AttachmentValue{Kind: ValueAtom, Type: typeID, Bytes: buf}
}

// FootprintKey converts k, scoped to warp, into the warp-scoped key
// footprint.AttachmentSet uses. Node and edge owners both flatten to their
// Hash form; footprint sets never need to distinguish the owner kind
// beyond that, since node and edge ids already live in disjoint id spaces
// at the point a rule declares its footprint.
func (k AttachmentKey) FootprintKey(warp ids.WarpId) footprint.AttachmentKey {
	var owner ids.Hash
	switch k.Owner.Kind {
	case OwnerNode:
		owner = ids.Hash(k.Owner.Node)
	case OwnerEdge:
		owner = ids.Hash(k.Owner.Edge)
	}
	return footprint.AttachmentKey{Warp: warp, Owner: owner, Plane: uint8(k.Plane)}
}

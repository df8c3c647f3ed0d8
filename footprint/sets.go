// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package footprint implements the read/write declaration a pending
// rewrite makes over the graph, and the independence predicate the
// scheduler uses to decide whether two pending rewrites may be reserved
// in the same tick without racing.
//
// All resource sets are warp-scoped: they store ids.NodeKey/ids.EdgeKey
// pairs rather than bare local identifiers, so a rewrite in warp A and a
// rewrite in warp B never collide merely because they happen to touch the
// same local NodeId.
package footprint

import "github.com/flyingrobots/warp-core/ids"

// NodeSet is a set of warp-scoped node keys.
type NodeSet map[ids.NodeKey]struct{}

// NewNodeSet returns an empty NodeSet.
func NewNodeSet() NodeSet { return make(NodeSet) }

// Insert adds key to the set.
func (s NodeSet) Insert(key ids.NodeKey) { s[key] = struct{}{} }

// Has reports whether key is in the set.
func (s NodeSet) Has(key ids.NodeKey) bool { _, ok := s[key]; return ok }

// Intersects reports whether s and other share any element.
func (s NodeSet) Intersects(other NodeSet) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if _, ok := big[k]; ok {
			return true
		}
	}
	return false
}

// EdgeSet is a set of warp-scoped edge keys.
type EdgeSet map[ids.EdgeKey]struct{}

// NewEdgeSet returns an empty EdgeSet.
func NewEdgeSet() EdgeSet { return make(EdgeSet) }

// Insert adds key to the set.
func (s EdgeSet) Insert(key ids.EdgeKey) { s[key] = struct{}{} }

// Has reports whether key is in the set.
func (s EdgeSet) Has(key ids.EdgeKey) bool { _, ok := s[key]; return ok }

// Intersects reports whether s and other share any element.
func (s EdgeSet) Intersects(other EdgeSet) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if _, ok := big[k]; ok {
			return true
		}
	}
	return false
}

// AttachmentKey is a warp-scoped attachment address. Defined locally
// (rather than imported from package graph) to avoid a footprint<->graph
// import cycle; graph.AttachmentKey values are converted via its FootprintKey method
// at the call site (see rule.ComputeFootprint implementations).
type AttachmentKey struct {
	Warp  ids.WarpId
	Owner ids.Hash // node or edge id, reinterpreted as a flat 32-byte key
	Plane uint8
}

// AttachmentSet is a set of warp-scoped attachment keys.
type AttachmentSet map[AttachmentKey]struct{}

// NewAttachmentSet returns an empty AttachmentSet.
func NewAttachmentSet() AttachmentSet { return make(AttachmentSet) }

// Insert adds key to the set.
func (s AttachmentSet) Insert(key AttachmentKey) { s[key] = struct{}{} }

// Has reports whether key is in the set.
func (s AttachmentSet) Has(key AttachmentKey) bool { _, ok := s[key]; return ok }

// Intersects reports whether s and other share any element.
func (s AttachmentSet) Intersects(other AttachmentSet) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if _, ok := big[k]; ok {
			return true
		}
	}
	return false
}

// PortKey is a 64-bit packed boundary-port key within a single warp:
// upper 32 bits carry the low 32 bits of the node id, bits 31..2 carry the
// port id (must fit in 30 bits), bit 1 is reserved (zero), and bit 0 is the
// direction flag (1 = input, 0 = output).
type PortKey uint64

// PackPortKey packs a node/port/direction triple into a PortKey. Collisions
// are possible across nodes that share the same low 32-bit fingerprint;
// rule authors must choose ids/ports accordingly, exactly as noted in the
// original engine design.
func PackPortKey(node ids.NodeId, portID uint32, dirIn bool) PortKey {
	var low4 [4]byte
	copy(low4[:], node[:4])
	nodeLow := uint64(low4[0]) | uint64(low4[1])<<8 | uint64(low4[2])<<16 | uint64(low4[3])<<24

	key := nodeLow << 32
	key |= uint64(portID&0x3fffffff) << 2
	if dirIn {
		key |= 1
	}
	return PortKey(key)
}

// WarpPortKey scopes a PortKey to its warp, because ports (like every
// other resource) must never cause a cross-warp false conflict.
type WarpPortKey struct {
	Warp ids.WarpId
	Port PortKey
}

// PortSet is a set of warp-scoped boundary ports.
type PortSet map[WarpPortKey]struct{}

// NewPortSet returns an empty PortSet.
func NewPortSet() PortSet { return make(PortSet) }

// Insert adds a port key, scoped to warp, to the set.
func (s PortSet) Insert(warp ids.WarpId, port PortKey) {
	s[WarpPortKey{Warp: warp, Port: port}] = struct{}{}
}

// Intersects reports whether s and other share any scoped port.
func (s PortSet) Intersects(other PortSet) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if _, ok := big[k]; ok {
			return true
		}
	}
	return false
}

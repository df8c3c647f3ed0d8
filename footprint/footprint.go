// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package footprint

// Footprint is the full read/write declaration a matched rewrite makes
// before it is allowed into the reservation set for a tick. Every set is
// warp-scoped; a rewrite that never crosses a warp boundary only ever
// populates sets for that one warp, but the type itself does not assume
// single-warp scope, since portal-crossing rules exist.
type Footprint struct {
	NRead  NodeSet
	NWrite NodeSet
	ERead  EdgeSet
	EWrite EdgeSet
	ARead  AttachmentSet
	AWrite AttachmentSet
	BIn    PortSet
	BOut   PortSet

	// FactorMask is a coarse O(1) pre-filter: each rule declares, ahead of
	// matching, which bits of a 64-bit factor space it can possibly touch.
	// Two footprints whose masks share no bit are independent without ever
	// inspecting the sets below. A zero mask means "touches everything",
	// forcing the full check; rules should avoid this unless genuinely
	// unbounded.
	FactorMask uint64
}

// New returns an empty Footprint with every set initialized.
func New() Footprint {
	return Footprint{
		NRead:  NewNodeSet(),
		NWrite: NewNodeSet(),
		ERead:  NewEdgeSet(),
		EWrite: NewEdgeSet(),
		ARead:  NewAttachmentSet(),
		AWrite: NewAttachmentSet(),
		BIn:    NewPortSet(),
		BOut:   NewPortSet(),
	}
}

// Independent reports whether a and b may be reserved together in the same
// tick. If both factor masks are non-zero and share no bit, the two are
// independent without further checks (the cheap early-out); otherwise
// every read/write set pairing that could conflict — write/write and
// read/write in both directions, across nodes, edges, attachments, and
// boundary ports — must be disjoint. Two reads never conflict with each
// other.
func Independent(a, b Footprint) bool {
	if a.FactorMask != 0 && b.FactorMask != 0 && a.FactorMask&b.FactorMask == 0 {
		return true
	}

	if a.NWrite.Intersects(b.NWrite) || a.NWrite.Intersects(b.NRead) || a.NRead.Intersects(b.NWrite) {
		return false
	}
	if a.EWrite.Intersects(b.EWrite) || a.EWrite.Intersects(b.ERead) || a.ERead.Intersects(b.EWrite) {
		return false
	}
	if a.AWrite.Intersects(b.AWrite) || a.AWrite.Intersects(b.ARead) || a.ARead.Intersects(b.AWrite) {
		return false
	}
	// Boundary ports: an input port reserved by one rewrite conflicts with
	// the same port reserved as either input or output by another, and
	// likewise for output; ports do not distinguish read/write, only
	// direction, so BIn/BOut are each checked against both of the other's.
	if a.BIn.Intersects(b.BIn) || a.BIn.Intersects(b.BOut) || a.BOut.Intersects(b.BIn) || a.BOut.Intersects(b.BOut) {
		return false
	}

	return true
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"encoding/hex"

	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/patch"
	"github.com/flyingrobots/warp-core/scheduler"
)

// SerializableTick is a UI-friendly, JSON-marshalable view of one
// committed tick, combining its Snapshot, TickReceipt, and TickPatch into
// the single consumption contract host layers outside this module's
// scope (an HTTP daemon, a viewer) are expected to build against.
type SerializableTick struct {
	Snapshot SerializableSnapshot `json:"snapshot"`
	Receipt  SerializableReceipt  `json:"receipt"`
	Patch    patch.TickPatch      `json:"patch"`
}

// SerializableSnapshot is a JSON-friendly view of Snapshot: the commit hash
// is carried both raw and hex-encoded, since JSON has no native byte-string
// type and most viewers want the hex form directly; the parent hash is
// carried raw only.
type SerializableSnapshot struct {
	Root     ids.NodeId `json:"root"`
	Hash     ids.Hash   `json:"hash"`
	HashHex  string     `json:"hash_hex"`
	ParentID ids.Hash   `json:"parent"`
	Tx       TxId       `json:"tx"`
}

// SerializableReceipt is a JSON-friendly view of patch.TickReceipt: every
// reservation and rejection is flattened to one entry tagged with its
// disposition, rather than exposed as two separate slices.
type SerializableReceipt struct {
	Tx      TxId                      `json:"tx"`
	Entries []SerializableReceiptEntry `json:"entries"`
}

// ReceiptDisposition discriminates a SerializableReceiptEntry's outcome.
type ReceiptDisposition string

// ReceiptDisposition values.
const (
	DispositionReserved          ReceiptDisposition = "reserved"
	DispositionNoMatch           ReceiptDisposition = "no_match"
	DispositionFootprintConflict ReceiptDisposition = "footprint_conflict"
)

// SerializableReceiptEntry is one candidate's outcome, carrying the
// short (first 8 bytes, hex) rule id a viewer would actually want to
// render alongside the full one.
type SerializableReceiptEntry struct {
	RuleID      ids.Hash           `json:"rule_id"`
	RuleIDShort string             `json:"rule_id_short"`
	Scope       ids.NodeId         `json:"scope"`
	Disposition ReceiptDisposition `json:"disposition"`
}

// NewSerializableTick builds a SerializableTick from a committed tick's
// raw engine components.
func NewSerializableTick(snap Snapshot, receipt patch.TickReceipt, tickPatch patch.TickPatch) SerializableTick {
	return SerializableTick{
		Snapshot: newSerializableSnapshot(snap),
		Receipt:  newSerializableReceipt(snap.Tx, receipt),
		Patch:    tickPatch,
	}
}

func newSerializableSnapshot(snap Snapshot) SerializableSnapshot {
	return SerializableSnapshot{
		Root:     snap.Root,
		Hash:     snap.Hash,
		HashHex:  hex.EncodeToString(snap.Hash[:]),
		ParentID: snap.Parent,
		Tx:       snap.Tx,
	}
}

func newSerializableReceipt(tx TxId, receipt patch.TickReceipt) SerializableReceipt {
	entries := make([]SerializableReceiptEntry, 0, len(receipt.Reserved)+len(receipt.Rejected))
	for _, r := range receipt.Reserved {
		entries = append(entries, newReceiptEntry(r.Candidate, DispositionReserved))
	}
	for _, r := range receipt.Rejected {
		entries = append(entries, newReceiptEntry(r.Candidate, rejectionDisposition(r.Reason)))
	}
	return SerializableReceipt{Tx: tx, Entries: entries}
}

func newReceiptEntry(c scheduler.Candidate, disposition ReceiptDisposition) SerializableReceiptEntry {
	ruleID := c.Rule.ID
	scope := ids.NodeId{}
	if len(c.Match.Anchors) > 0 {
		scope = c.Match.Anchors[0]
	}
	return SerializableReceiptEntry{
		RuleID:      ruleID,
		RuleIDShort: hex.EncodeToString(ruleID[:8]),
		Scope:       scope,
		Disposition: disposition,
	}
}

func rejectionDisposition(reason scheduler.RejectReason) ReceiptDisposition {
	if reason == scheduler.RejectFootprintConflict {
		return DispositionFootprintConflict
	}
	return DispositionNoMatch
}

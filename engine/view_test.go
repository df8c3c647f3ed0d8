// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"encoding/json"
	"testing"

	"github.com/flyingrobots/warp-core/demo"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/patch"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/scheduler"
	"github.com/stretchr/testify/require"
)

func patchFromReceipt(receipt patch.TickReceipt) patch.TickPatch {
	return patch.TickPatch{Warp: receipt.Warp, TickNo: receipt.TickNo}
}

func TestNewSerializableTickRoundTripsThroughJSON(t *testing.T) {
	e, _, scope := newMotionFixture(t)
	tx := e.Begin()
	result, err := e.Apply(tx, "motion/update", scope)
	require.NoError(t, err)
	require.Equal(t, Applied, result)

	snap, receipt, err := e.CommitWithReceipt(tx)
	require.NoError(t, err)

	tickPatch := patchFromReceipt(receipt)
	view := NewSerializableTick(snap, receipt, tickPatch)

	require.Equal(t, snap.Hash, view.Snapshot.Hash)
	require.Len(t, view.Snapshot.HashHex, 64)
	require.Len(t, view.Receipt.Entries, 1)
	require.Equal(t, DispositionReserved, view.Receipt.Entries[0].Disposition)
	require.Len(t, view.Receipt.Entries[0].RuleIDShort, 16)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var decoded SerializableTick
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, view.Snapshot.HashHex, decoded.Snapshot.HashHex)
}

func TestSerializableReceiptTagsFootprintConflictDisposition(t *testing.T) {
	warp := ids.MakeWarpID("view-test")
	scope := ids.MakeNodeID("scope")
	r := demo.NewMotionRule()

	reserved := scheduler.Reservation{Candidate: scheduler.Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{scope}, MatchIx: 0}}}
	rejected := scheduler.Rejection{
		Candidate: scheduler.Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{scope}, MatchIx: 1}},
		Reason:    scheduler.RejectFootprintConflict,
	}
	receipt := patch.TickReceipt{
		Warp:     warp,
		TickNo:   1,
		Reserved: []scheduler.Reservation{reserved},
		Rejected: []scheduler.Rejection{rejected},
	}

	view := NewSerializableTick(Snapshot{Tx: 7}, receipt, patchFromReceipt(receipt))
	require.Equal(t, TxId(7), view.Receipt.Tx)
	require.Len(t, view.Receipt.Entries, 2)
	require.Equal(t, DispositionReserved, view.Receipt.Entries[0].Disposition)
	require.Equal(t, DispositionFootprintConflict, view.Receipt.Entries[1].Disposition)
}

func TestSerializableReceiptTagsNoMatchDisposition(t *testing.T) {
	warp := ids.MakeWarpID("view-test")
	scope := ids.MakeNodeID("scope")
	r := demo.NewMotionRule()

	rejected := scheduler.Rejection{
		Candidate: scheduler.Candidate{Rule: r, Match: rule.Match{Warp: warp, Anchors: []ids.NodeId{scope}}},
		Reason:    scheduler.RejectNoMatch,
	}
	receipt := patch.TickReceipt{Warp: warp, TickNo: 1, Rejected: []scheduler.Rejection{rejected}}

	view := NewSerializableTick(Snapshot{}, receipt, patchFromReceipt(receipt))
	require.Len(t, view.Receipt.Entries, 1)
	require.Equal(t, DispositionNoMatch, view.Receipt.Entries[0].Disposition)
}

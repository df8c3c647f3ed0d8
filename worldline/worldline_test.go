// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package worldline

import (
	"testing"

	"github.com/flyingrobots/warp-core/boaw"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/patch"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/snapshot"
	"github.com/stretchr/testify/require"
)

// insertNodeDelta builds a trivial one-node insert delta for warp, so
// tests can advance a worldline through a few ticks without the full
// scheduler/rule pipeline.
func insertNodeDelta(warp ids.WarpId, node ids.NodeId, typeID ids.TypeId) rule.Delta {
	return rule.Delta{Warp: warp, Kind: rule.DeltaInsertNode, Node: node, Type: typeID}
}

// setAttachmentDelta attaches a payload to an existing node. boaw.Merge's
// DeltaSetAttachment case only ever targets node owners; edge-owned
// attachments are set directly on the store (see
// TestCheckpointCloneCopiesEdgeOwnedAttachments), never through a delta.
func setAttachmentDelta(warp ids.WarpId, node ids.NodeId, typeID ids.TypeId, payload []byte) rule.Delta {
	return rule.Delta{
		Warp: warp, Kind: rule.DeltaSetAttachment,
		Node:  node,
		Plane: graph.PlaneAlpha,
		Value: graph.Atom(typeID, payload),
	}
}

// advance merges deltas into store, appends the resulting tick onto w via
// a ProvenanceStore-free path, and returns the new state root. It mirrors
// the slice of engine.commit this package's own tests need, without
// pulling in the engine package (which would be a circular import anyway).
func advance(t *testing.T, w *Worldline, store *graph.Store, root ids.NodeId, tickNo uint64, deltas []rule.Delta) ids.Hash {
	t.Helper()
	require.NoError(t, boaw.Merge(store, deltas, nil, nil, false, nil))
	stateRoot := snapshot.StateRoot(store, root)
	w.Append(TickRecord{
		TickNo: tickNo,
		Patch:  patch.TickPatch{Warp: store.WarpID(), TickNo: tickNo, Deltas: deltas},
		Triplet: HashTriplet{
			StateRoot:   stateRoot,
			PatchDigest: patch.TickPatch{Warp: store.WarpID(), TickNo: tickNo, Deltas: deltas}.Digest(),
			CommitHash:  ids.HashBytes("test:commit:", []byte{byte(tickNo)}),
		},
	})
	return stateRoot
}

func newFixture() (*Worldline, *graph.Store, ids.NodeId, ids.WarpId) {
	warp := ids.MakeWarpID("worldline-test")
	root := ids.MakeNodeID("root")
	store := graph.New(warp)
	store.InsertNode(root, graph.NodeRecord{Type: ids.MakeTypeID("root")})
	w := &Worldline{ID: MakeWorldlineID("worldline-test"), Warp: warp}
	return w, store, root, warp
}

func computeRoot(root ids.NodeId) func(*graph.Store) ids.Hash {
	return func(s *graph.Store) ids.Hash { return snapshot.StateRoot(s, root) }
}

func TestCheckpointCloneCopiesEdgeOwnedAttachments(t *testing.T) {
	warp := ids.MakeWarpID("clone-test")
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	edge := ids.MakeEdgeID("a->b")
	typeID := ids.MakeTypeID("edge-payload")

	store := graph.New(warp)
	store.InsertNode(a, graph.NodeRecord{Type: ids.MakeTypeID("a")})
	store.InsertNode(b, graph.NodeRecord{Type: ids.MakeTypeID("b")})
	store.InsertEdge(a, graph.EdgeRecord{ID: edge, From: a, To: b, Type: typeID})
	key := graph.AttachmentKey{Owner: graph.EdgeOwner(edge), Plane: graph.PlaneAlpha}
	val := graph.Atom(typeID, []byte("payload"))
	store.SetAttachment(key, &val)

	clone := cloneStore(store)

	got, ok := clone.Attachment(key)
	require.True(t, ok, "edge-owned attachment must survive cloneStore")
	require.Equal(t, val, got)

	// Mutating the source after cloning must never affect the clone.
	mutated := graph.Atom(typeID, []byte("mutated"))
	store.SetAttachment(key, &mutated)
	got, ok = clone.Attachment(key)
	require.True(t, ok)
	require.Equal(t, val, got)
}

func TestAppendSeekReplaysHistory(t *testing.T) {
	w, store, root, warp := newFixture()
	typeID := ids.MakeTypeID("demo")

	n1 := ids.MakeNodeID("n1")
	n2 := ids.MakeNodeID("n2")
	advance(t, w, store, root, 1, []rule.Delta{insertNodeDelta(warp, n1, typeID)})
	advance(t, w, store, root, 2, []rule.Delta{insertNodeDelta(warp, n2, typeID)})

	p := NewProvenanceStore()
	p.worldlines[w.ID] = w

	cursor, err := Seek(p, w.ID, 2, nil, computeRoot(root))
	require.NoError(t, err)
	require.Equal(t, uint64(2), cursor.CurrentTick)
	_, ok := cursor.Store().Node(n1)
	require.True(t, ok)
	_, ok = cursor.Store().Node(n2)
	require.True(t, ok)
}

func TestSeekDetectsReplayMismatch(t *testing.T) {
	w, store, root, warp := newFixture()
	typeID := ids.MakeTypeID("demo")
	n1 := ids.MakeNodeID("n1")
	advance(t, w, store, root, 1, []rule.Delta{insertNodeDelta(warp, n1, typeID)})

	// Corrupt the recorded triplet so replay can never agree with it.
	w.Records[0].Triplet.StateRoot = ids.HashBytes("corrupt:", nil)

	p := NewProvenanceStore()
	p.worldlines[w.ID] = w

	_, err := Seek(p, w.ID, 1, nil, computeRoot(root))
	require.ErrorIs(t, err, ErrReplayMismatch)
}

func TestSeekReplaysAttachmentDeltas(t *testing.T) {
	w, store, root, warp := newFixture()
	typeID := ids.MakeTypeID("demo")
	payloadType := ids.MakeTypeID("demo-payload")
	n1 := ids.MakeNodeID("n1")

	advance(t, w, store, root, 1, []rule.Delta{insertNodeDelta(warp, n1, typeID)})
	advance(t, w, store, root, 2, []rule.Delta{
		setAttachmentDelta(warp, n1, payloadType, []byte("hello")),
	})

	p := NewProvenanceStore()
	p.worldlines[w.ID] = w

	cursor, err := Seek(p, w.ID, 2, nil, computeRoot(root))
	require.NoError(t, err)
	got, ok := cursor.Store().Attachment(graph.AttachmentKey{Owner: graph.NodeOwner(n1), Plane: graph.PlaneAlpha})
	require.True(t, ok)
	require.Equal(t, []byte("hello"), got.Bytes)
}

func TestSeekUnknownWorldline(t *testing.T) {
	p := NewProvenanceStore()
	_, err := Seek(p, WorldlineId{}, 1, nil, func(*graph.Store) ids.Hash { return ids.Hash{} })
	require.ErrorIs(t, err, ErrUnknownWorldline)
}

func TestForkIsolatesSubsequentAppends(t *testing.T) {
	w, store, root, warp := newFixture()
	typeID := ids.MakeTypeID("demo")
	n1 := ids.MakeNodeID("n1")
	n2 := ids.MakeNodeID("n2")
	advance(t, w, store, root, 1, []rule.Delta{insertNodeDelta(warp, n1, typeID)})

	p := NewProvenanceStore()
	p.worldlines[w.ID] = w

	forkID := MakeWorldlineID("fork-target")
	fork, err := Fork(p, w, 1, forkID)
	require.NoError(t, err)
	require.Len(t, fork.Records, 1)

	advance(t, w, store, root, 2, []rule.Delta{insertNodeDelta(warp, n2, typeID)})
	require.Len(t, w.Records, 2, "appending to the source worldline after Fork must not touch the fork")
	require.Len(t, fork.Records, 1)
}

func TestRetentionKeepAllNeverCheckpoints(t *testing.T) {
	w, _, _, _ := newFixture()
	called := false
	err := w.Apply(KeepAll(), 10, func() (Checkpoint, bool) {
		called = true
		return Checkpoint{}, true
	})
	require.NoError(t, err)
	require.False(t, called)
	require.Empty(t, w.Checkpoints)
}

func TestRetentionCheckpointEveryCreatesCheckpointsOnInterval(t *testing.T) {
	w, store, root, warp := newFixture()
	policy := CheckpointEveryK(2)

	for tick := uint64(1); tick <= 4; tick++ {
		stateRoot := advance(t, w, store, root, tick, nil)
		require.NoError(t, w.Apply(policy, tick, func() (Checkpoint, bool) {
			return Checkpoint{TickNo: tick, StateRoot: stateRoot, Store: store}, true
		}))
	}

	require.Len(t, w.Checkpoints, 2, "should checkpoint at tick 2 and tick 4")
	require.Equal(t, uint64(2), w.Checkpoints[0].TickNo)
	require.Equal(t, uint64(4), w.Checkpoints[1].TickNo)
}

func TestRetentionKeepRecentPrunesOldRecords(t *testing.T) {
	w, store, root, warp := newFixture()
	_ = warp
	policy := KeepRecentWindow(2, 10) // window=2, checkpoint_every large so it won't fire here

	for tick := uint64(1); tick <= 5; tick++ {
		advance(t, w, store, root, tick, nil)
		require.NoError(t, w.Apply(policy, tick, func() (Checkpoint, bool) {
			return Checkpoint{}, false
		}))
	}

	// After tick 5 with window 2, only ticks >= 3 should remain.
	require.Len(t, w.Records, 3)
	require.Equal(t, uint64(3), w.Records[0].TickNo)
	require.Equal(t, uint64(2), w.BaseTick)
}

func TestRetentionArchiveToWormholeNotImplemented(t *testing.T) {
	w, _, _, _ := newFixture()
	err := w.Apply(ArchiveToWormholeAfter(100, 10), 1, func() (Checkpoint, bool) {
		return Checkpoint{}, false
	})
	require.ErrorIs(t, err, ErrNotImplemented)
}

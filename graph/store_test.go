// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package graph

import (
	"testing"

	"github.com/flyingrobots/warp-core/ids"
	"github.com/stretchr/testify/require"
)

func TestInsertAndDeleteEdge(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	edge := ids.MakeEdgeID("a->b")
	s.InsertNode(a, NodeRecord{Type: ids.MakeTypeID("a")})
	s.InsertNode(b, NodeRecord{Type: ids.MakeTypeID("b")})
	s.InsertEdge(a, EdgeRecord{ID: edge, From: a, To: b, Type: ids.MakeTypeID("child")})

	require.Len(t, s.EdgesFrom(a), 1)
	require.True(t, s.DeleteEdge(edge))
	require.Empty(t, s.EdgesFrom(a))
	require.False(t, s.DeleteEdge(edge), "deleting an already-deleted edge reports false")
}

func TestDeleteNodeFailsUnlessIsolated(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	edge := ids.MakeEdgeID("a->b")
	s.InsertNode(a, NodeRecord{})
	s.InsertNode(b, NodeRecord{})
	s.InsertEdge(a, EdgeRecord{ID: edge, From: a, To: b})

	require.ErrorIs(t, s.DeleteNode(a), ErrNotIsolated, "outgoing edge must block deletion")
	require.ErrorIs(t, s.DeleteNode(b), ErrNotIsolated, "incoming edge must block deletion")

	require.True(t, s.DeleteEdge(edge))
	require.NoError(t, s.DeleteNode(a))
	_, ok := s.Node(a)
	require.False(t, ok)
}

func TestSetAttachmentNilClears(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	n := ids.MakeNodeID("n")
	key := AttachmentKey{Owner: NodeOwner(n), Plane: PlaneAlpha}
	val := Atom(ids.MakeTypeID("t"), []byte("x"))

	s.SetAttachment(key, &val)
	_, ok := s.Attachment(key)
	require.True(t, ok)

	s.SetAttachment(key, nil)
	_, ok = s.Attachment(key)
	require.False(t, ok)
}

func TestSortedEdgesFromIsCanonicallyOrdered(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	a := ids.MakeNodeID("a")
	s.InsertNode(a, NodeRecord{})
	// Insert in an order that is not already sorted by EdgeId.
	e1 := EdgeRecord{ID: ids.MakeEdgeID("zzz"), From: a}
	e2 := EdgeRecord{ID: ids.MakeEdgeID("aaa"), From: a}
	s.InsertEdge(a, e1)
	s.InsertEdge(a, e2)

	sorted := s.SortedEdgesFrom(a)
	require.Len(t, sorted, 2)
	require.True(t, sorted[0].ID.Less(sorted[1].ID))
}

func TestAttachmentsEnumeratesNodeAndEdgeOwners(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	n := ids.MakeNodeID("n")
	e := ids.MakeEdgeID("e")
	v1 := Atom(ids.MakeTypeID("t1"), []byte("a"))
	v2 := Atom(ids.MakeTypeID("t2"), []byte("b"))
	s.SetAttachment(AttachmentKey{Owner: NodeOwner(n), Plane: PlaneAlpha}, &v1)
	s.SetAttachment(AttachmentKey{Owner: EdgeOwner(e), Plane: PlaneAlpha}, &v2)

	entries := s.Attachments()
	require.Len(t, entries, 2)
}

func TestAllEdgesFlattensEveryBucket(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	s.InsertEdge(a, EdgeRecord{ID: ids.MakeEdgeID("1"), From: a, To: b})
	s.InsertEdge(b, EdgeRecord{ID: ids.MakeEdgeID("2"), From: b, To: a})
	require.Len(t, s.AllEdges(), 2)
}

func TestWalkOmitsUnreachableNodes(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	root := ids.MakeNodeID("root")
	child := ids.MakeNodeID("child")
	orphan := ids.MakeNodeID("orphan")

	s.InsertNode(root, NodeRecord{Type: ids.MakeTypeID("root")})
	s.InsertNode(child, NodeRecord{Type: ids.MakeTypeID("child")})
	s.InsertNode(orphan, NodeRecord{Type: ids.MakeTypeID("orphan")})
	s.InsertEdge(root, EdgeRecord{ID: ids.MakeEdgeID("r->c"), From: root, To: child})

	visited := Walk(s, root)
	ids2 := map[ids.NodeId]bool{}
	for _, v := range visited {
		ids2[v.ID] = true
	}
	require.True(t, ids2[root])
	require.True(t, ids2[child])
	require.False(t, ids2[orphan], "unreachable nodes must never appear in the walk")
}

func TestWalkHandlesCycles(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	s.InsertNode(a, NodeRecord{})
	s.InsertNode(b, NodeRecord{})
	s.InsertEdge(a, EdgeRecord{ID: ids.MakeEdgeID("a->b"), From: a, To: b})
	s.InsertEdge(b, EdgeRecord{ID: ids.MakeEdgeID("b->a"), From: b, To: a})

	visited := Walk(s, a)
	require.Len(t, visited, 2, "each node must be visited exactly once despite the cycle")
}

func TestWalkIncludesResolvedAttachment(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := New(warp)
	root := ids.MakeNodeID("root")
	s.InsertNode(root, NodeRecord{})
	val := Atom(ids.MakeTypeID("t"), []byte("payload"))
	s.SetAttachment(AttachmentKey{Owner: NodeOwner(root), Plane: PlaneAlpha}, &val)

	visited := Walk(s, root)
	require.Len(t, visited, 1)
	require.NotNil(t, visited[0].Attachment)
	require.Equal(t, val, *visited[0].Attachment)
}

func TestSortedByNodeIDIsDeterministicRegardlessOfInputOrder(t *testing.T) {
	a := VisitedNode{ID: ids.MakeNodeID("zzz")}
	b := VisitedNode{ID: ids.MakeNodeID("aaa")}

	sorted1 := SortedByNodeID([]VisitedNode{a, b})
	sorted2 := SortedByNodeID([]VisitedNode{b, a})
	require.Equal(t, sorted1, sorted2)
	require.True(t, sorted1[0].ID.Less(sorted1[1].ID))
}

func TestFootprintKeyFlattensOwnerKinds(t *testing.T) {
	warp := ids.MakeWarpID("w")
	n := ids.MakeNodeID("n")
	e := ids.MakeEdgeID("e")

	nodeKey := AttachmentKey{Owner: NodeOwner(n), Plane: PlaneAlpha}.FootprintKey(warp)
	edgeKey := AttachmentKey{Owner: EdgeOwner(e), Plane: PlaneAlpha}.FootprintKey(warp)

	require.Equal(t, warp, nodeKey.Warp)
	require.NotEqual(t, nodeKey.Owner, edgeKey.Owner)
}

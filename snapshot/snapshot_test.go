// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"testing"

	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/stretchr/testify/require"
)

func TestStateRootDeterministicForIdenticalStores(t *testing.T) {
	warp := ids.MakeWarpID("w")
	build := func() (*graph.Store, ids.NodeId) {
		s := graph.New(warp)
		root := ids.MakeNodeID("root")
		child := ids.MakeNodeID("child")
		s.InsertNode(root, graph.NodeRecord{Type: ids.MakeTypeID("root")})
		s.InsertNode(child, graph.NodeRecord{Type: ids.MakeTypeID("child")})
		s.InsertEdge(root, graph.EdgeRecord{ID: ids.MakeEdgeID("r->c"), From: root, To: child, Type: ids.MakeTypeID("edge")})
		return s, root
	}

	s1, r1 := build()
	s2, r2 := build()
	require.Equal(t, StateRoot(s1, r1), StateRoot(s2, r2))
}

func TestStateRootOmitsUnreachableNodes(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := graph.New(warp)
	root := ids.MakeNodeID("root")
	s.InsertNode(root, graph.NodeRecord{Type: ids.MakeTypeID("root")})
	before := StateRoot(s, root)

	orphan := ids.MakeNodeID("orphan")
	s.InsertNode(orphan, graph.NodeRecord{Type: ids.MakeTypeID("orphan")})
	after := StateRoot(s, root)

	require.Equal(t, before, after, "an unreachable node must not affect the state root")
}

func TestStateRootSensitiveToAttachment(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := graph.New(warp)
	root := ids.MakeNodeID("root")
	s.InsertNode(root, graph.NodeRecord{Type: ids.MakeTypeID("root")})
	before := StateRoot(s, root)

	val := graph.Atom(ids.MakeTypeID("t"), []byte("payload"))
	s.SetAttachment(graph.AttachmentKey{Owner: graph.NodeOwner(root), Plane: graph.PlaneAlpha}, &val)
	after := StateRoot(s, root)

	require.NotEqual(t, before, after)
}

func TestStateRootSensitiveToEdgeOrdering(t *testing.T) {
	warp := ids.MakeWarpID("w")
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	c := ids.MakeNodeID("c")

	s1 := graph.New(warp)
	s1.InsertNode(a, graph.NodeRecord{})
	s1.InsertNode(b, graph.NodeRecord{})
	s1.InsertNode(c, graph.NodeRecord{})
	s1.InsertEdge(a, graph.EdgeRecord{ID: ids.MakeEdgeID("1"), From: a, To: b})
	s1.InsertEdge(a, graph.EdgeRecord{ID: ids.MakeEdgeID("2"), From: a, To: c})

	s2 := graph.New(warp)
	s2.InsertNode(a, graph.NodeRecord{})
	s2.InsertNode(b, graph.NodeRecord{})
	s2.InsertNode(c, graph.NodeRecord{})
	// Insert the same two edges in the opposite call order.
	s2.InsertEdge(a, graph.EdgeRecord{ID: ids.MakeEdgeID("2"), From: a, To: c})
	s2.InsertEdge(a, graph.EdgeRecord{ID: ids.MakeEdgeID("1"), From: a, To: b})

	require.Equal(t, StateRoot(s1, a), StateRoot(s2, a), "SortedEdgesFrom must make insertion order irrelevant")
}

func TestStateRootDiffersAcrossRoots(t *testing.T) {
	warp := ids.MakeWarpID("w")
	s := graph.New(warp)
	a := ids.MakeNodeID("a")
	b := ids.MakeNodeID("b")
	s.InsertNode(a, graph.NodeRecord{Type: ids.MakeTypeID("a")})
	s.InsertNode(b, graph.NodeRecord{Type: ids.MakeTypeID("b")})

	require.NotEqual(t, StateRoot(s, a), StateRoot(s, b))
}

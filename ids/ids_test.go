// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakersAreDeterministic(t *testing.T) {
	require.Equal(t, MakeNodeID("a"), MakeNodeID("a"))
	require.Equal(t, MakeTypeID("a"), MakeTypeID("a"))
	require.Equal(t, MakeEdgeID("a"), MakeEdgeID("a"))
	require.Equal(t, MakeWarpID("a"), MakeWarpID("a"))
}

func TestDomainsPreventCrossKindCollision(t *testing.T) {
	node := MakeNodeID("x")
	typ := MakeTypeID("x")
	edge := MakeEdgeID("x")
	warp := MakeWarpID("x")

	require.NotEqual(t, Hash(node), Hash(typ))
	require.NotEqual(t, Hash(node), Hash(edge))
	require.NotEqual(t, Hash(node), Hash(warp))
	require.NotEqual(t, Hash(typ), Hash(edge))
}

func TestHashBytesDomainSeparation(t *testing.T) {
	a := HashBytes("domain-a:", []byte("same"))
	b := HashBytes("domain-b:", []byte("same"))
	require.NotEqual(t, a, b)
}

func TestHashStringRoundTrip(t *testing.T) {
	h := MakeNodeID("label")
	require.Len(t, Hash(h).String(), 64)
}

func TestHashCompareAndLess(t *testing.T) {
	a := Hash{0x01}
	b := Hash{0x02}
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestIsZero(t *testing.T) {
	var h Hash
	require.True(t, h.IsZero())
	h[0] = 1
	require.False(t, h.IsZero())
}

func TestNodeKeyLessOrdersByWarpThenNode(t *testing.T) {
	warpA := MakeWarpID("a")
	warpB := MakeWarpID("b")
	n1 := MakeNodeID("1")
	n2 := MakeNodeID("2")

	var lo, hi NodeKey
	if Hash(warpA).Less(Hash(warpB)) {
		lo, hi = NodeKey{Warp: warpA, Node: n2}, NodeKey{Warp: warpB, Node: n1}
	} else {
		lo, hi = NodeKey{Warp: warpB, Node: n2}, NodeKey{Warp: warpA, Node: n1}
	}
	require.True(t, lo.Less(hi))
	require.False(t, hi.Less(lo))

	same := NodeKey{Warp: lo.Warp, Node: n1}
	other := NodeKey{Warp: lo.Warp, Node: n2}
	require.Equal(t, n1.Less(n2), same.Less(other))
}

func TestMakeRuleIDDistinctFromOtherDomains(t *testing.T) {
	require.NotEqual(t, MakeRuleID("x"), Hash(MakeNodeID("x")))
	require.Equal(t, MakeRuleID("x"), MakeRuleID("x"))
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rule

import (
	"testing"

	"github.com/flyingrobots/warp-core/ids"
	"github.com/stretchr/testify/require"
)

func TestRegisterDerivesIDFromName(t *testing.T) {
	reg := NewRegistry()
	r := &Rule{Name: "demo/rule"}
	require.NoError(t, reg.Register(r))
	require.Equal(t, ids.MakeRuleID("demo/rule"), r.ID)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Rule{Name: "a"}))
	require.ErrorIs(t, reg.Register(&Rule{Name: "a"}), ErrDuplicateRuleName)
}

func TestRegisterRejectsDuplicateExplicitID(t *testing.T) {
	reg := NewRegistry()
	id := ids.MakeRuleID("shared")
	require.NoError(t, reg.Register(&Rule{Name: "a", ID: id}))
	require.ErrorIs(t, reg.Register(&Rule{Name: "b", ID: id}), ErrDuplicateRuleID)
}

func TestLookupAndAllPreserveRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Rule{Name: "first"}))
	require.NoError(t, reg.Register(&Rule{Name: "second"}))

	r, ok := reg.Lookup("first")
	require.True(t, ok)
	require.Equal(t, "first", r.Name)

	all := reg.All()
	require.Len(t, all, 2)
	require.Equal(t, "first", all[0].Name)
	require.Equal(t, "second", all[1].Name)
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Lookup("missing")
	require.False(t, ok)
}

func TestScopeHashIsDeterministicAndAnchorSensitive(t *testing.T) {
	ruleID := ids.MakeRuleID("r")
	warp := ids.MakeWarpID("w")
	m1 := Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("a")}}
	m2 := Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("a")}}
	m3 := Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("b")}}

	require.Equal(t, ScopeHash(ruleID, m1), ScopeHash(ruleID, m2))
	require.NotEqual(t, ScopeHash(ruleID, m1), ScopeHash(ruleID, m3))
}

func TestScopeHashSensitiveToRuleID(t *testing.T) {
	warp := ids.MakeWarpID("w")
	m := Match{Warp: warp, Anchors: []ids.NodeId{ids.MakeNodeID("a")}}
	h1 := ScopeHash(ids.MakeRuleID("rule-a"), m)
	h2 := ScopeHash(ids.MakeRuleID("rule-b"), m)
	require.NotEqual(t, h1, h2)
}

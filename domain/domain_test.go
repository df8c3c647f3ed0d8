// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixesAreNulTerminated(t *testing.T) {
	for _, p := range []Prefix{StateRootV1, PatchDigestV1, CommitIDV2, RenderGraphV1, SnapshotSchemaV1} {
		require.Equal(t, byte(0), p[len(p)-1], "prefix %q must end in a NUL byte", p)
	}
}

func TestPrefixesAreMutuallyDistinct(t *testing.T) {
	all := []Prefix{StateRootV1, PatchDigestV1, CommitIDV2, RenderGraphV1, SnapshotSchemaV1}
	seen := map[string]bool{}
	for _, p := range all {
		s := string(p)
		require.False(t, seen[s], "duplicate domain prefix: %q", s)
		seen[s] = true
	}
}

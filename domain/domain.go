// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package domain holds the domain-separation byte prefixes mixed into every
// hash the engine computes, so that a digest computed for one purpose
// (e.g. a state root) can never collide with a digest computed for another
// purpose (e.g. a commit id) even given identical remaining input bytes.
package domain

// Prefix is a domain-separation tag, always including a trailing NUL byte
// so accidental truncation cannot merge two prefixes into one another.
type Prefix []byte

var (
	// StateRootV1 separates reachable-graph canonical hashes.
	StateRootV1 = Prefix("echo:state_root:v1\x00")
	// PatchDigestV1 separates tick-patch op-list digests.
	PatchDigestV1 = Prefix("echo:patch_digest:v1\x00")
	// CommitIDV2 separates composed per-tick commit hashes.
	CommitIDV2 = Prefix("echo:commit_id:v2\x00")
	// RenderGraphV1 separates canonical render-graph bytes produced for
	// external viewer/renderer collaborators.
	RenderGraphV1 = Prefix("echo:render_graph:v1\x00")
	// SnapshotSchemaV1 separates the WSC container's schema-compatibility
	// digest from every other hash purpose.
	SnapshotSchemaV1 = Prefix("echo:snapshot_schema:v1\x00")
)

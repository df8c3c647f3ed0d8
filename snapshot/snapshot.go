// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package snapshot computes the state root: a single BLAKE3 digest over
// exactly the graph content reachable from a warp's designated root node,
// in canonical order, domain-separated so it can never collide with any
// other digest the engine computes.
package snapshot

import (
	"encoding/binary"

	"github.com/flyingrobots/warp-core/domain"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/zeebo/blake3"
)

// StateRoot computes the canonical state root of store, reachable from
// root. Per node, in NodeId order: node id, type id, attachment bytes (or
// a length-0 marker if unset), then each outgoing edge sorted by EdgeId
// (edge id, target node id, edge type id). Nodes unreachable from root are
// omitted entirely, as is any attachment on them.
func StateRoot(store *graph.Store, root ids.NodeId) ids.Hash {
	visited := graph.SortedByNodeID(graph.Walk(store, root))

	h := blake3.New()
	_, _ = h.Write(domain.StateRootV1)

	var lenBuf [8]byte
	writeUvarint := func(n uint64) {
		binary.LittleEndian.PutUint64(lenBuf[:], n)
		_, _ = h.Write(lenBuf[:])
	}

	writeUvarint(uint64(len(visited)))
	for _, v := range visited {
		_, _ = h.Write(v.ID[:])
		_, _ = h.Write(v.Record.Type[:])

		if v.Attachment != nil {
			writeUvarint(1)
			_, _ = h.Write(v.Attachment.Type[:])
			writeUvarint(uint64(len(v.Attachment.Bytes)))
			_, _ = h.Write(v.Attachment.Bytes)
		} else {
			writeUvarint(0)
		}

		writeUvarint(uint64(len(v.Edges)))
		for _, e := range v.Edges {
			_, _ = h.Write(e.ID[:])
			_, _ = h.Write(e.To[:])
			_, _ = h.Write(e.Type[:])
		}
	}

	var out ids.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wsc implements the warp snapshot container: a single
// zero-copy-readable file holding one or more warps' full graph content,
// laid out as an 8-byte-aligned fixed header, a warp directory, then per
// warp a nodes/edges/attachments section of fixed-width rows and a blob
// heap that attachment payloads index into by (offset, length).
package wsc

import (
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
)

// Magic identifies a WSC file.
var Magic = [8]byte{'W', 'A', 'R', 'P', 'S', 'N', 'A', 'P'}

// Version is the container format version this package reads and writes.
const Version uint32 = 1

// align8 rounds n up to the next multiple of 8.
func align8(n uint64) uint64 {
	return (n + 7) &^ 7
}

// Header is the fixed, 8-byte-aligned file header, always first in the
// file and exactly HeaderSize bytes on disk.
type Header struct {
	Magic               [8]byte
	Version             uint32
	_                   uint32 // padding, keeps SchemaHash 8-byte aligned
	SchemaHash          ids.Hash
	WarpCount           uint32
	_                   uint32 // padding
	WarpDirectoryOffset uint64
}

// HeaderSize is the fixed on-disk size of Header.
const HeaderSize = 8 + 4 + 4 + 32 + 4 + 4 + 8

// WarpDirEntry locates one warp's sections within the file. Every offset
// is absolute from the start of the file and 8-byte aligned.
type WarpDirEntry struct {
	WarpID ids.WarpId

	NodesOffset uint64
	NodesCount  uint64

	EdgesOffset uint64
	EdgesCount  uint64

	AttachmentsOffset uint64
	AttachmentsCount  uint64

	BlobHeapOffset uint64
	BlobHeapLen    uint64
}

// WarpDirEntrySize is the fixed on-disk size of WarpDirEntry.
const WarpDirEntrySize = 32 + 8*8

// NodeRow is the fixed-width on-disk representation of one node.
type NodeRow struct {
	ID   ids.NodeId
	Type ids.TypeId
}

// NodeRowSize is the fixed on-disk size of NodeRow.
const NodeRowSize = 32 + 32

// EdgeRow is the fixed-width on-disk representation of one directed edge.
type EdgeRow struct {
	ID   ids.EdgeId
	From ids.NodeId
	To   ids.NodeId
	Type ids.TypeId
}

// EdgeRowSize is the fixed on-disk size of EdgeRow.
const EdgeRowSize = 32 * 4

// AttachmentRow is the fixed-width on-disk representation of one
// attachment; its payload bytes live in the blob heap at
// [BlobOffset, BlobOffset+BlobLen).
type AttachmentRow struct {
	OwnerKind graph.AttachmentOwnerKind
	Plane     graph.AttachmentPlane
	_         [6]byte // padding, keeps Owner 8-byte aligned
	Owner     ids.Hash
	Type      ids.TypeId
	BlobOffset uint64
	BlobLen    uint64
}

// AttachmentRowSize is the fixed on-disk size of AttachmentRow.
const AttachmentRowSize = 1 + 1 + 6 + 32 + 32 + 8 + 8

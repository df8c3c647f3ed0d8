// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wsc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/flyingrobots/warp-core/domain"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
)

// Validation errors. Each names the specific structural check that
// failed, per the format's magic/version/alignment/offset-monotonicity/
// cross-section-integrity contract.
var (
	ErrTooShort        = errors.New("wsc: file shorter than header")
	ErrBadMagic        = errors.New("wsc: bad magic")
	ErrUnsupportedVersion = errors.New("wsc: unsupported container version")
	ErrSchemaMismatch  = errors.New("wsc: schema hash does not match this reader's row layout")
	ErrMisaligned      = errors.New("wsc: offset is not 8-byte aligned")
	ErrOutOfBounds     = errors.New("wsc: offset or length exceeds file size")
	ErrNonMonotonic    = errors.New("wsc: section offsets are not strictly increasing")
	ErrBlobOutOfBounds = errors.New("wsc: attachment blob range exceeds its warp's blob heap")
)

// WarpSnapshot is one warp's full graph content, the unit wsc reads and
// writes.
type WarpSnapshot struct {
	WarpID ids.WarpId
	Store  *graph.Store
}

// schemaFingerprint returns the byte description of this reader's fixed
// row layout: the format Version and the node, edge and attachment row
// widths. Changing any of those changes this fingerprint, which is how
// Validate detects a writer/reader skew before it can misinterpret bytes;
// reordering fields within a row while keeping its width does not.
func schemaFingerprint() []byte {
	var buf [4 * 4]byte
	binary.LittleEndian.PutUint32(buf[0:4], Version)
	binary.LittleEndian.PutUint32(buf[4:8], uint64ToU32(NodeRowSize))
	binary.LittleEndian.PutUint32(buf[8:12], uint64ToU32(EdgeRowSize))
	binary.LittleEndian.PutUint32(buf[12:16], uint64ToU32(AttachmentRowSize))
	return buf[:]
}

func uint64ToU32(n int) uint32 { return uint32(n) }

func schemaHash() ids.Hash {
	return ids.HashBytes(string(domain.SnapshotSchemaV1), schemaFingerprint())
}

type warpLayout struct {
	warpID      ids.WarpId
	nodes       []NodeRow
	edges       []EdgeRow
	attachments []AttachmentRow
	blobHeap    []byte
}

// Write serializes snapshots into a single WSC container.
func Write(snapshots []WarpSnapshot) ([]byte, error) {
	layouts := make([]warpLayout, len(snapshots))
	for i, snap := range snapshots {
		layouts[i] = buildLayout(snap)
	}

	dirOffset := align8(HeaderSize)
	sectionsStart := align8(dirOffset + WarpDirEntrySize*uint64(len(layouts)))

	entries := make([]WarpDirEntry, len(layouts))
	cursor := sectionsStart
	for i, l := range layouts {
		e := WarpDirEntry{WarpID: l.warpID}

		e.NodesOffset = cursor
		e.NodesCount = uint64(len(l.nodes))
		cursor = align8(cursor + uint64(len(l.nodes))*NodeRowSize)

		e.EdgesOffset = cursor
		e.EdgesCount = uint64(len(l.edges))
		cursor = align8(cursor + uint64(len(l.edges))*EdgeRowSize)

		e.AttachmentsOffset = cursor
		e.AttachmentsCount = uint64(len(l.attachments))
		cursor = align8(cursor + uint64(len(l.attachments))*AttachmentRowSize)

		e.BlobHeapOffset = cursor
		e.BlobHeapLen = uint64(len(l.blobHeap))
		cursor = align8(cursor + uint64(len(l.blobHeap)))

		entries[i] = e
	}

	buf := make([]byte, cursor)

	writeHeader(buf, Header{
		Magic:               Magic,
		Version:             Version,
		SchemaHash:          schemaHash(),
		WarpCount:           uint32(len(layouts)),
		WarpDirectoryOffset: dirOffset,
	})

	for i, e := range entries {
		writeWarpDirEntry(buf[dirOffset+uint64(i)*WarpDirEntrySize:], e)
	}

	for i, l := range layouts {
		e := entries[i]
		for j, row := range l.nodes {
			writeNodeRow(buf[e.NodesOffset+uint64(j)*NodeRowSize:], row)
		}
		for j, row := range l.edges {
			writeEdgeRow(buf[e.EdgesOffset+uint64(j)*EdgeRowSize:], row)
		}
		for j, row := range l.attachments {
			writeAttachmentRow(buf[e.AttachmentsOffset+uint64(j)*AttachmentRowSize:], row)
		}
		copy(buf[e.BlobHeapOffset:e.BlobHeapOffset+e.BlobHeapLen], l.blobHeap)
	}

	return buf, nil
}

func buildLayout(snap WarpSnapshot) warpLayout {
	l := warpLayout{warpID: snap.WarpID}

	nodeIDs := snap.Store.NodeIDs()
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i].Less(nodeIDs[j]) })
	l.nodes = make([]NodeRow, len(nodeIDs))
	for i, id := range nodeIDs {
		rec, _ := snap.Store.Node(id)
		l.nodes[i] = NodeRow{ID: id, Type: rec.Type}
	}

	edges := snap.Store.AllEdges()
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID.Less(edges[j].ID) })
	l.edges = make([]EdgeRow, len(edges))
	for i, e := range edges {
		l.edges[i] = EdgeRow{ID: e.ID, From: e.From, To: e.To, Type: e.Type}
	}

	attachments := snap.Store.Attachments()
	sort.Slice(attachments, func(i, j int) bool {
		return attachmentKeyLess(attachments[i].Key, attachments[j].Key)
	})
	l.attachments = make([]AttachmentRow, len(attachments))
	var heap []byte
	for i, a := range attachments {
		row := AttachmentRow{
			OwnerKind:  a.Key.Owner.Kind,
			Plane:      a.Key.Plane,
			Type:       a.Value.Type,
			BlobOffset: uint64(len(heap)),
			BlobLen:    uint64(len(a.Value.Bytes)),
		}
		switch a.Key.Owner.Kind {
		case graph.OwnerNode:
			row.Owner = ids.Hash(a.Key.Owner.Node)
		case graph.OwnerEdge:
			row.Owner = ids.Hash(a.Key.Owner.Edge)
		}
		heap = append(heap, a.Value.Bytes...)
		l.attachments[i] = row
	}
	l.blobHeap = heap

	return l
}

func attachmentKeyLess(a, b graph.AttachmentKey) bool {
	ah, bh := ownerHash(a.Owner), ownerHash(b.Owner)
	if ah != bh {
		return ah.Less(bh)
	}
	if a.Owner.Kind != b.Owner.Kind {
		return a.Owner.Kind < b.Owner.Kind
	}
	return a.Plane < b.Plane
}

func ownerHash(o graph.AttachmentOwner) ids.Hash {
	switch o.Kind {
	case graph.OwnerNode:
		return ids.Hash(o.Node)
	case graph.OwnerEdge:
		return ids.Hash(o.Edge)
	}
	return ids.Hash{}
}

// Validate checks a container's magic, version, schema compatibility,
// alignment, offset monotonicity, and blob-heap bounds without decoding
// any row content.
func Validate(data []byte) error {
	_, err := validateHeader(data)
	if err != nil {
		return err
	}
	return nil
}

func validateHeader(data []byte) (Header, error) {
	if uint64(len(data)) < HeaderSize {
		return Header{}, ErrTooShort
	}
	h := readHeader(data)
	if h.Magic != Magic {
		return Header{}, ErrBadMagic
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: got %d, support %d", ErrUnsupportedVersion, h.Version, Version)
	}
	if h.SchemaHash != schemaHash() {
		return Header{}, ErrSchemaMismatch
	}
	if h.WarpDirectoryOffset != align8(h.WarpDirectoryOffset) {
		return Header{}, ErrMisaligned
	}
	dirEnd := h.WarpDirectoryOffset + uint64(h.WarpCount)*WarpDirEntrySize
	if dirEnd > uint64(len(data)) {
		return Header{}, ErrOutOfBounds
	}

	prevEnd := dirEnd
	for i := uint32(0); i < h.WarpCount; i++ {
		e := readWarpDirEntry(data[h.WarpDirectoryOffset+uint64(i)*WarpDirEntrySize:])

		for _, off := range []uint64{e.NodesOffset, e.EdgesOffset, e.AttachmentsOffset, e.BlobHeapOffset} {
			if off != align8(off) {
				return Header{}, ErrMisaligned
			}
		}
		if e.NodesOffset < prevEnd {
			return Header{}, ErrNonMonotonic
		}
		nodesEnd := e.NodesOffset + e.NodesCount*NodeRowSize
		if e.EdgesOffset < nodesEnd {
			return Header{}, ErrNonMonotonic
		}
		edgesEnd := e.EdgesOffset + e.EdgesCount*EdgeRowSize
		if e.AttachmentsOffset < edgesEnd {
			return Header{}, ErrNonMonotonic
		}
		attachmentsEnd := e.AttachmentsOffset + e.AttachmentsCount*AttachmentRowSize
		if e.BlobHeapOffset < attachmentsEnd {
			return Header{}, ErrNonMonotonic
		}
		blobEnd := e.BlobHeapOffset + e.BlobHeapLen
		if blobEnd > uint64(len(data)) {
			return Header{}, ErrOutOfBounds
		}

		for j := uint64(0); j < e.AttachmentsCount; j++ {
			row := readAttachmentRow(data[e.AttachmentsOffset+j*AttachmentRowSize:])
			if row.BlobOffset+row.BlobLen > e.BlobHeapLen {
				return Header{}, ErrBlobOutOfBounds
			}
		}

		prevEnd = blobEnd
	}

	return h, nil
}

// Read validates and decodes data into one WarpSnapshot per warp, in the
// order the directory lists them.
func Read(data []byte) ([]WarpSnapshot, error) {
	h, err := validateHeader(data)
	if err != nil {
		return nil, err
	}

	out := make([]WarpSnapshot, 0, h.WarpCount)
	for i := uint32(0); i < h.WarpCount; i++ {
		e := readWarpDirEntry(data[h.WarpDirectoryOffset+uint64(i)*WarpDirEntrySize:])
		store := graph.New(e.WarpID)

		for j := uint64(0); j < e.NodesCount; j++ {
			row := readNodeRow(data[e.NodesOffset+j*NodeRowSize:])
			store.InsertNode(row.ID, graph.NodeRecord{Type: row.Type})
		}

		for j := uint64(0); j < e.EdgesCount; j++ {
			row := readEdgeRow(data[e.EdgesOffset+j*EdgeRowSize:])
			store.InsertEdge(row.From, graph.EdgeRecord{ID: row.ID, From: row.From, To: row.To, Type: row.Type})
		}

		heap := data[e.BlobHeapOffset : e.BlobHeapOffset+e.BlobHeapLen]
		for j := uint64(0); j < e.AttachmentsCount; j++ {
			row := readAttachmentRow(data[e.AttachmentsOffset+j*AttachmentRowSize:])
			payload := heap[row.BlobOffset : row.BlobOffset+row.BlobLen]
			var owner graph.AttachmentOwner
			switch row.OwnerKind {
			case graph.OwnerNode:
				owner = graph.NodeOwner(ids.NodeId(row.Owner))
			case graph.OwnerEdge:
				owner = graph.EdgeOwner(ids.EdgeId(row.Owner))
			}
			key := graph.AttachmentKey{Owner: owner, Plane: row.Plane}
			value := graph.Atom(row.Type, payload)
			store.SetAttachment(key, &value)
		}

		out = append(out, WarpSnapshot{WarpID: e.WarpID, Store: store})
	}

	return out, nil
}

func writeHeader(buf []byte, h Header) {
	copy(buf[0:8], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], h.Version)
	copy(buf[16:48], h.SchemaHash[:])
	binary.LittleEndian.PutUint32(buf[48:52], h.WarpCount)
	binary.LittleEndian.PutUint64(buf[56:64], h.WarpDirectoryOffset)
}

func readHeader(data []byte) Header {
	var h Header
	copy(h.Magic[:], data[0:8])
	h.Version = binary.LittleEndian.Uint32(data[8:12])
	copy(h.SchemaHash[:], data[16:48])
	h.WarpCount = binary.LittleEndian.Uint32(data[48:52])
	h.WarpDirectoryOffset = binary.LittleEndian.Uint64(data[56:64])
	return h
}

func writeWarpDirEntry(buf []byte, e WarpDirEntry) {
	copy(buf[0:32], e.WarpID[:])
	binary.LittleEndian.PutUint64(buf[32:40], e.NodesOffset)
	binary.LittleEndian.PutUint64(buf[40:48], e.NodesCount)
	binary.LittleEndian.PutUint64(buf[48:56], e.EdgesOffset)
	binary.LittleEndian.PutUint64(buf[56:64], e.EdgesCount)
	binary.LittleEndian.PutUint64(buf[64:72], e.AttachmentsOffset)
	binary.LittleEndian.PutUint64(buf[72:80], e.AttachmentsCount)
	binary.LittleEndian.PutUint64(buf[80:88], e.BlobHeapOffset)
	binary.LittleEndian.PutUint64(buf[88:96], e.BlobHeapLen)
}

func readWarpDirEntry(data []byte) WarpDirEntry {
	var e WarpDirEntry
	copy(e.WarpID[:], data[0:32])
	e.NodesOffset = binary.LittleEndian.Uint64(data[32:40])
	e.NodesCount = binary.LittleEndian.Uint64(data[40:48])
	e.EdgesOffset = binary.LittleEndian.Uint64(data[48:56])
	e.EdgesCount = binary.LittleEndian.Uint64(data[56:64])
	e.AttachmentsOffset = binary.LittleEndian.Uint64(data[64:72])
	e.AttachmentsCount = binary.LittleEndian.Uint64(data[72:80])
	e.BlobHeapOffset = binary.LittleEndian.Uint64(data[80:88])
	e.BlobHeapLen = binary.LittleEndian.Uint64(data[88:96])
	return e
}

func writeNodeRow(buf []byte, r NodeRow) {
	copy(buf[0:32], r.ID[:])
	copy(buf[32:64], r.Type[:])
}

func readNodeRow(data []byte) NodeRow {
	var r NodeRow
	copy(r.ID[:], data[0:32])
	copy(r.Type[:], data[32:64])
	return r
}

func writeEdgeRow(buf []byte, r EdgeRow) {
	copy(buf[0:32], r.ID[:])
	copy(buf[32:64], r.From[:])
	copy(buf[64:96], r.To[:])
	copy(buf[96:128], r.Type[:])
}

func readEdgeRow(data []byte) EdgeRow {
	var r EdgeRow
	copy(r.ID[:], data[0:32])
	copy(r.From[:], data[32:64])
	copy(r.To[:], data[64:96])
	copy(r.Type[:], data[96:128])
	return r
}

func writeAttachmentRow(buf []byte, r AttachmentRow) {
	buf[0] = byte(r.OwnerKind)
	buf[1] = byte(r.Plane)
	copy(buf[8:40], r.Owner[:])
	copy(buf[40:72], r.Type[:])
	binary.LittleEndian.PutUint64(buf[72:80], r.BlobOffset)
	binary.LittleEndian.PutUint64(buf[80:88], r.BlobLen)
}

func readAttachmentRow(data []byte) AttachmentRow {
	var r AttachmentRow
	r.OwnerKind = graph.AttachmentOwnerKind(data[0])
	r.Plane = graph.AttachmentPlane(data[1])
	copy(r.Owner[:], data[8:40])
	copy(r.Type[:], data[40:72])
	r.BlobOffset = binary.LittleEndian.Uint64(data[72:80])
	r.BlobLen = binary.LittleEndian.Uint64(data[80:88])
	return r
}

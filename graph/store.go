// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package graph

import (
	"errors"
	"sort"

	"github.com/flyingrobots/warp-core/ids"
)

// ErrNotIsolated is returned by DeleteNode when the node still has
// incident edges. Callers must delete those edges explicitly first;
// the store never cascades a deletion, because a cascade would hide a
// mutation from footprint enforcement.
var ErrNotIsolated = errors.New("graph: node is not isolated")

// Store is the per-warp graph: a skeleton plane (nodes, edges) and an
// attachment plane (typed payloads), addressed by ids.NodeId/ids.EdgeId
// local to this warp.
//
// Iteration order over the underlying maps is not part of the contract;
// any consumer that needs determinism (e.g. the snapshot hasher) must sort
// explicitly, which is why EdgesFrom below promises only insertion order
// and SortedEdgesFrom exists for canonical EdgeId order.
type Store struct {
	warp       ids.WarpId
	nodes      map[ids.NodeId]NodeRecord
	edgesFrom  map[ids.NodeId][]EdgeRecord
	edgeIndex  map[ids.EdgeId]ids.NodeId // edge id -> owning "from" node, for O(1) delete
	attachment map[AttachmentKey]AttachmentValue
}

// New constructs an empty graph store scoped to warp.
func New(warp ids.WarpId) *Store {
	return &Store{
		warp:       warp,
		nodes:      make(map[ids.NodeId]NodeRecord),
		edgesFrom:  make(map[ids.NodeId][]EdgeRecord),
		edgeIndex:  make(map[ids.EdgeId]ids.NodeId),
		attachment: make(map[AttachmentKey]AttachmentValue),
	}
}

// WarpID returns the warp this store is scoped to.
func (s *Store) WarpID() ids.WarpId { return s.warp }

// Node returns the record for id, if present.
func (s *Store) Node(id ids.NodeId) (NodeRecord, bool) {
	rec, ok := s.nodes[id]
	return rec, ok
}

// InsertNode inserts or replaces a node.
func (s *Store) InsertNode(id ids.NodeId, rec NodeRecord) {
	s.nodes[id] = rec
}

// DeleteNode removes a node. It fails with ErrNotIsolated unless the node
// has no incident edges (neither outgoing nor incoming). Callers must
// issue explicit DeleteEdge calls first.
func (s *Store) DeleteNode(id ids.NodeId) error {
	if edges := s.edgesFrom[id]; len(edges) > 0 {
		return ErrNotIsolated
	}
	for _, edges := range s.edgesFrom {
		for _, e := range edges {
			if e.To == id {
				return ErrNotIsolated
			}
		}
	}
	delete(s.nodes, id)
	delete(s.edgesFrom, id)
	return nil
}

// InsertEdge appends a directed edge in insertion order. Callers needing a
// deterministic order must sort by EdgeId themselves (see EdgesFrom).
func (s *Store) InsertEdge(from ids.NodeId, edge EdgeRecord) {
	s.edgesFrom[from] = append(s.edgesFrom[from], edge)
	s.edgeIndex[edge.ID] = from
}

// DeleteEdge removes the edge with the given id. Returns false if no such
// edge exists.
func (s *Store) DeleteEdge(id ids.EdgeId) bool {
	from, ok := s.edgeIndex[id]
	if !ok {
		return false
	}
	edges := s.edgesFrom[from]
	for i, e := range edges {
		if e.ID == id {
			s.edgesFrom[from] = append(edges[:i], edges[i+1:]...)
			break
		}
	}
	if len(s.edgesFrom[from]) == 0 {
		delete(s.edgesFrom, from)
	}
	delete(s.edgeIndex, id)
	return true
}

// EdgesFrom returns the edges originating at id, in insertion order. The
// engine makes no ordering guarantee beyond insertion order; hashing code
// must sort by EdgeId explicitly.
func (s *Store) EdgesFrom(id ids.NodeId) []EdgeRecord {
	return s.edgesFrom[id]
}

// SortedEdgesFrom returns the edges originating at id, sorted by EdgeId.
// This is the order the snapshot hasher and canonical merge require.
func (s *Store) SortedEdgesFrom(id ids.NodeId) []EdgeRecord {
	edges := append([]EdgeRecord(nil), s.edgesFrom[id]...)
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID.Less(edges[j].ID) })
	return edges
}

// Attachment returns the attachment value stored at key, if any.
func (s *Store) Attachment(key AttachmentKey) (AttachmentValue, bool) {
	v, ok := s.attachment[key]
	return v, ok
}

// SetAttachment sets or clears (value == nil) the attachment at key.
func (s *Store) SetAttachment(key AttachmentKey, value *AttachmentValue) {
	if value == nil {
		delete(s.attachment, key)
		return
	}
	s.attachment[key] = *value
}

// NodeIDs returns every node id currently in the store, unordered.
func (s *Store) NodeIDs() []ids.NodeId {
	out := make([]ids.NodeId, 0, len(s.nodes))
	for id := range s.nodes {
		out = append(out, id)
	}
	return out
}

// AttachmentEntry pairs an AttachmentKey with its value, for callers that
// need to enumerate the whole attachment plane (e.g. a full-store export).
type AttachmentEntry struct {
	Key   AttachmentKey
	Value AttachmentValue
}

// Attachments returns every attachment currently set, unordered. Callers
// needing a deterministic order must sort explicitly.
func (s *Store) Attachments() []AttachmentEntry {
	out := make([]AttachmentEntry, 0, len(s.attachment))
	for k, v := range s.attachment {
		out = append(out, AttachmentEntry{Key: k, Value: v})
	}
	return out
}

// AllEdges returns every edge in the store, unordered.
func (s *Store) AllEdges() []EdgeRecord {
	out := make([]EdgeRecord, 0, len(s.edgeIndex))
	for _, edges := range s.edgesFrom {
		out = append(out, edges...)
	}
	return out
}

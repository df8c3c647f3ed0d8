// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package graph

import (
	"sort"

	"github.com/flyingrobots/warp-core/ids"
)

// VisitedNode is one canonically ordered stop of a reachability walk: a
// node plus its sorted outgoing edges and its resolved attachment, ready
// to be fed byte-for-byte into a hasher.
type VisitedNode struct {
	ID         ids.NodeId
	Record     NodeRecord
	Attachment *AttachmentValue // nil if none set on PlaneAlpha
	Edges      []EdgeRecord     // sorted by EdgeId
}

// Walk performs a reachability traversal starting at root, visiting each
// node exactly once via id-keyed memoization (the graph may be cyclic).
// Nodes unreachable from root — and their attachments — are omitted
// entirely; they never influence the result. The returned slice is in
// visitation (BFS) order, following each node's outgoing edges in EdgeId order,
// which is irrelevant to callers: the snapshot hasher re-derives its own
// canonical order (sorted by NodeId) from this walk's output.
func Walk(s *Store, root ids.NodeId) []VisitedNode {
	visited := make(map[ids.NodeId]bool)
	queue := []ids.NodeId{root}
	visited[root] = true

	var out []VisitedNode
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		rec, ok := s.Node(id)
		if !ok {
			continue
		}
		edges := s.SortedEdgesFrom(id)

		var attach *AttachmentValue
		if v, ok := s.Attachment(AttachmentKey{Owner: NodeOwner(id), Plane: PlaneAlpha}); ok {
			attach = &v
		}

		out = append(out, VisitedNode{ID: id, Record: rec, Attachment: attach, Edges: edges})

		for _, e := range edges {
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return out
}

// SortedByNodeID returns a copy of nodes sorted canonically by NodeId. The
// snapshot hasher uses this order so the digest is a pure function of
// reachable content, independent of traversal/visitation order.
func SortedByNodeID(nodes []VisitedNode) []VisitedNode {
	out := append([]VisitedNode(nil), nodes...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

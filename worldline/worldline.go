// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package worldline implements the append-only tick history: a
// ProvenanceStore records (TickPatch, HashTriplet) pairs per worldline,
// optionally checkpointed for fast seeking, and a PlaybackCursor replays
// from the nearest checkpoint while verifying every intermediate state
// root against what was originally recorded.
package worldline

import (
	"errors"
	"fmt"

	"github.com/flyingrobots/warp-core/boaw"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/patch"
	"github.com/flyingrobots/warp-core/rule"
)

// ErrReplayMismatch is fatal for a playback cursor: it means the recorded
// state root at some tick disagrees with what replaying the patches from
// the nearest checkpoint actually produces, which can only happen if the
// worldline's own integrity was violated (corruption, or a non-canonical
// merge having run at record time).
var ErrReplayMismatch = errors.New("worldline: replayed state root does not match recorded triplet")

// ErrUnknownWorldline is returned when a WorldlineId has no registered
// history.
var ErrUnknownWorldline = errors.New("worldline: unknown worldline id")

// ErrUnknownTick is returned when Seek targets a tick the worldline has
// never recorded.
var ErrUnknownTick = errors.New("worldline: tick not present in worldline")

// WorldlineId identifies one append-only tick history.
type WorldlineId ids.Hash

// MakeWorldlineID derives a stable WorldlineId from a label.
func MakeWorldlineID(label string) WorldlineId {
	return WorldlineId(ids.HashBytes("worldline:", []byte(label)))
}

// HashTriplet is the three digests committed at the end of each tick.
type HashTriplet struct {
	StateRoot   ids.Hash
	PatchDigest ids.Hash
	CommitHash  ids.Hash
}

// TickRecord is one entry of a worldline: the patch that was applied and
// the triplet it produced.
type TickRecord struct {
	TickNo  uint64
	Patch   patch.TickPatch
	Triplet HashTriplet
}

// Checkpoint snapshots enough state to reconstruct the graph store at
// TickNo without replaying every prior tick: the full node/edge/attachment
// content (not merely the state root digest, which is one-way).
type Checkpoint struct {
	TickNo    uint64
	StateRoot ids.Hash
	Store     *graph.Store
}

// Worldline is one append-only tick history plus its checkpoints.
type Worldline struct {
	ID          WorldlineId
	Warp        ids.WarpId
	Records     []TickRecord // ascending TickNo, contiguous from genesis (or from a fork point)
	Checkpoints []Checkpoint // ascending TickNo
	BaseTick    uint64       // TickNo just before the first record this worldline holds (> 0 after a prune)
}

// ProvenanceStore registers and holds every worldline an engine instance
// has created.
type ProvenanceStore struct {
	worldlines map[WorldlineId]*Worldline
}

// NewProvenanceStore returns an empty store.
func NewProvenanceStore() *ProvenanceStore {
	return &ProvenanceStore{worldlines: make(map[WorldlineId]*Worldline)}
}

// Create registers a new, empty worldline for warp.
func (p *ProvenanceStore) Create(id WorldlineId, warp ids.WarpId) *Worldline {
	w := &Worldline{ID: id, Warp: warp}
	p.worldlines[id] = w
	return w
}

// Get returns the worldline registered under id, if any.
func (p *ProvenanceStore) Get(id WorldlineId) (*Worldline, bool) {
	w, ok := p.worldlines[id]
	return w, ok
}

// Append records one tick onto w. Callers must append ticks in strictly
// increasing, contiguous TickNo order; the provenance store trusts the
// engine's commit pipeline to enforce this, since it is the only writer.
func (w *Worldline) Append(rec TickRecord) {
	w.Records = append(w.Records, rec)
}

// Checkpoint records a checkpoint at the worldline's current tip, copying
// store so later mutation of the live store never affects it.
func (w *Worldline) Checkpoint(store *graph.Store, stateRoot ids.Hash, tickNo uint64) {
	w.Checkpoints = append(w.Checkpoints, Checkpoint{TickNo: tickNo, StateRoot: stateRoot, Store: cloneStore(store)})
}

func cloneStore(s *graph.Store) *graph.Store {
	clone := graph.New(s.WarpID())
	for _, id := range s.NodeIDs() {
		rec, _ := s.Node(id)
		clone.InsertNode(id, rec)
		for _, e := range s.SortedEdgesFrom(id) {
			clone.InsertEdge(id, e)
		}
	}
	for _, a := range s.Attachments() {
		v := a.Value
		clone.SetAttachment(a.Key, &v)
	}
	return clone
}

// nearestCheckpoint returns the checkpoint with the greatest TickNo <= t,
// or false if none exists (replay must then start from genesis).
func (w *Worldline) nearestCheckpoint(t uint64) (Checkpoint, bool) {
	best := -1
	for i, c := range w.Checkpoints {
		if c.TickNo <= t && (best == -1 || c.TickNo > w.Checkpoints[best].TickNo) {
			best = i
		}
	}
	if best == -1 {
		return Checkpoint{}, false
	}
	return w.Checkpoints[best], true
}

// recordAt returns the record for tickNo, if present.
func (w *Worldline) recordAt(tickNo uint64) (TickRecord, bool) {
	for _, r := range w.Records {
		if r.TickNo == tickNo {
			return r, true
		}
	}
	return TickRecord{}, false
}

// PlaybackCursor replays a worldline's history, verifying every
// intermediate state root as it goes.
type PlaybackCursor struct {
	WorldlineID WorldlineId
	CurrentTick uint64
	store       *graph.Store
}

// Seek reconstructs the store at target: find the greatest checkpoint <=
// target (or genesis), replay patches (checkpoint, target] by merging each
// recorded delta set, and verify each intermediate state root against its
// recorded triplet. Returns ErrReplayMismatch the instant a replayed state
// root disagrees with what was recorded.
func Seek(p *ProvenanceStore, id WorldlineId, target uint64, ruleByOrigin map[ids.Hash]*rule.Rule, computeRoot func(*graph.Store) ids.Hash) (*PlaybackCursor, error) {
	w, ok := p.Get(id)
	if !ok {
		return nil, ErrUnknownWorldline
	}

	var store *graph.Store
	startTick := w.BaseTick
	if ckpt, ok := w.nearestCheckpoint(target); ok {
		store = cloneStore(ckpt.Store)
		startTick = ckpt.TickNo
	} else {
		store = graph.New(w.Warp)
	}

	for t := startTick + 1; t <= target; t++ {
		rec, ok := w.recordAt(t)
		if !ok {
			return nil, fmt.Errorf("%w: tick %d", ErrUnknownTick, t)
		}
		if err := boaw.Merge(store, rec.Patch.Deltas, nil, ruleByOrigin, false, nil); err != nil {
			return nil, err
		}
		if got := computeRoot(store); got != rec.Triplet.StateRoot {
			return nil, ErrReplayMismatch
		}
	}

	return &PlaybackCursor{WorldlineID: id, CurrentTick: target, store: store}, nil
}

// Store returns the cursor's reconstructed graph store at CurrentTick.
func (c *PlaybackCursor) Store() *graph.Store { return c.store }

// Fork duplicates w's prefix up to and including forkTick into a new
// worldline under newID. Subsequent appends to the fork never mutate w:
// the fork gets its own record and checkpoint slices and deep copies of
// checkpoint stores; records are copied by value, so each record's patch
// shares its Deltas slice with w.
func Fork(p *ProvenanceStore, w *Worldline, forkTick uint64, newID WorldlineId) (*Worldline, error) {
	fork := &Worldline{ID: newID, Warp: w.Warp, BaseTick: w.BaseTick}
	for _, r := range w.Records {
		if r.TickNo > forkTick {
			break
		}
		fork.Records = append(fork.Records, r)
	}
	for _, c := range w.Checkpoints {
		if c.TickNo > forkTick {
			break
		}
		fork.Checkpoints = append(fork.Checkpoints, Checkpoint{TickNo: c.TickNo, StateRoot: c.StateRoot, Store: cloneStore(c.Store)})
	}
	p.worldlines[newID] = fork
	return fork, nil
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine is the façade every external caller drives: begin a
// transaction, apply rewrites one scope at a time, commit. It owns no
// novel algorithm of its own — it sequences scheduler, boaw, snapshot,
// patch, materialization, and worldline into the tick pipeline spec.md
// §4 describes, and is the one place that is allowed to hold mutable
// state across calls.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flyingrobots/warp-core/boaw"
	"github.com/flyingrobots/warp-core/graph"
	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/materialization"
	"github.com/flyingrobots/warp-core/patch"
	"github.com/flyingrobots/warp-core/rule"
	"github.com/flyingrobots/warp-core/scheduler"
	"github.com/flyingrobots/warp-core/snapshot"
	"github.com/flyingrobots/warp-core/telemetry"
	"github.com/flyingrobots/warp-core/worldline"
	"github.com/luxfi/log"
)

// TxId is a transaction handle returned by Begin. Zero is never issued;
// it is reserved to mean "no transaction" in error paths.
type TxId uint64

// ApplyResult discriminates Apply's outcome for one rewrite attempt.
type ApplyResult uint8

// ApplyResult values.
const (
	// Applied means the candidate was accepted into this tick's pending
	// set; it may still be rejected later if a subsequent Apply call
	// introduces a conflicting candidate that canonically sorts first.
	// The final disposition is only settled at Commit.
	Applied ApplyResult = iota
	NoMatch
)

var (
	// ErrUnknownTx is returned by Apply/Commit for a tx id that was never
	// issued by Begin, or that already committed.
	ErrUnknownTx = errors.New("engine: unknown or already-committed transaction")
	// ErrUnknownRule is returned by Apply when ruleName was never
	// registered.
	ErrUnknownRule = errors.New("engine: unknown rule name")
)

// Config tunes an Engine instance. Every field has a working zero value.
type Config struct {
	Logger     log.Logger
	Metrics    *telemetry.Metrics
	Sink       telemetry.Sink
	NumShards  int
	MaxWorkers int
	// Retention controls how much worldline history Commit keeps and
	// whether it checkpoints automatically. The zero value is
	// worldline.KeepAll(): keep everything, checkpoint nothing.
	Retention worldline.RetentionPolicy
}

func (c Config) withDefaults() Config {
	// Logger is intentionally left nil when the caller doesn't supply one:
	// the deterministic tick pipeline never calls it directly (see the
	// package doc), so there is nothing here that needs a concrete no-op
	// implementation to stay safe to call.
	if c.Sink == nil {
		c.Sink = telemetry.NoopSink{}
	}
	if c.NumShards <= 0 {
		c.NumShards = boaw.DefaultNumShards
	}
	return c
}

// pendingTx accumulates one transaction's Apply calls until Commit.
type pendingTx struct {
	candidates []scheduler.Candidate
	matchIx    map[ids.Hash]uint64 // next MatchIx per rule id
}

// Engine is one warp's mutable tick pipeline: a graph store, a rule
// registry, and the bookkeeping needed to turn a sequence of Apply calls
// into a committed, hash-chained tick.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	store *graph.Store
	warp  ids.WarpId
	root  ids.NodeId

	registry *rule.Registry

	nextTxID uint64
	txs      map[TxId]*pendingTx

	tickNo       uint64
	parentCommit ids.Hash

	bus         *materialization.Bus
	provenance  *worldline.ProvenanceStore
	worldlineID worldline.WorldlineId
}

// New constructs an Engine over store, rooted at root. The store's warp
// id is taken as the engine's warp.
func New(store *graph.Store, root ids.NodeId, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:         cfg,
		store:       store,
		warp:        store.WarpID(),
		root:        root,
		registry:    rule.NewRegistry(),
		txs:         make(map[TxId]*pendingTx),
		bus:         materialization.NewBus(),
		provenance:  worldline.NewProvenanceStore(),
		worldlineID: worldline.MakeWorldlineID(store.WarpID().String()),
	}
	e.provenance.Create(e.worldlineID, e.warp)
	return e
}

// RegisterRule registers r with the engine's rule registry. Must be
// called before the first Begin; the registry is write-once per spec.
func (e *Engine) RegisterRule(r *rule.Rule) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Register(r)
}

// DeclareChannel registers a materialization channel's policy ahead of
// any rule emitting into it.
func (e *Engine) DeclareChannel(id materialization.ChannelId, policy materialization.ChannelPolicy, op materialization.ReduceOp) {
	e.bus.Declare(id, policy, op)
}

// Begin starts a new transaction and returns its handle. TxId values are
// assigned from a monotonically increasing, non-zero counter that wraps
// at the max uint64 value, skipping zero.
func (e *Engine) Begin() TxId {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextTxID++
	if e.nextTxID == 0 {
		e.nextTxID = 1
	}
	id := TxId(e.nextTxID)
	e.txs[id] = &pendingTx{matchIx: make(map[ids.Hash]uint64)}
	return id
}

// Apply attempts rule ruleName anchored at scope within tx. The match's
// final disposition (reserved vs. rejected) is only settled at Commit,
// since later Apply calls in the same tx may introduce a canonically
// earlier-sorting conflicting candidate. Apply returns NoMatch when the
// rule's own At predicate fails against the engine's current, pre-commit
// store, and also when re-running reservation over the tx's candidates so
// far rejects this candidate (including for a footprint conflict);
// otherwise it returns Applied — recomputing full reservation on every call keeps
// that answer consistent with what Commit will ultimately decide for a
// non-conflicting candidate, at the cost of redoing the scheduler's O(m)
// pass once per Apply call rather than once per tick.
func (e *Engine) Apply(tx TxId, ruleName string, scope ids.NodeId) (ApplyResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, ok := e.txs[tx]
	if !ok {
		return NoMatch, ErrUnknownTx
	}
	r, ok := e.registry.Lookup(ruleName)
	if !ok {
		return NoMatch, ErrUnknownRule
	}
	if r.At != nil && !r.At(e.store, scope) {
		return NoMatch, nil
	}

	matchIx := pending.matchIx[r.ID]
	pending.matchIx[r.ID] = matchIx + 1
	match := rule.Match{Warp: e.warp, Anchors: []ids.NodeId{scope}, MatchIx: matchIx}
	cand := scheduler.Candidate{Rule: r, Match: match}
	pending.candidates = append(pending.candidates, cand)

	result := scheduler.Reserve(e.store, pending.candidates)
	for _, rej := range result.Rejected {
		if rej.Candidate.Rule == r && rej.Candidate.Match.MatchIx == matchIx {
			e.cfg.Sink.OnConflict(uint64(tx), r.ID, rejectReasonString(rej.Reason))
			e.observeReservation("rejected")
			return NoMatch, nil
		}
	}
	e.cfg.Sink.OnReserved(uint64(tx), r.ID)
	e.observeReservation("reserved")
	return Applied, nil
}

func rejectReasonString(reason scheduler.RejectReason) string {
	if reason == scheduler.RejectFootprintConflict {
		return "footprint_conflict"
	}
	return "no_match"
}

func (e *Engine) observeReservation(disposition string) {
	if e.cfg.Metrics != nil {
		e.cfg.Metrics.ObserveReservation(disposition)
	}
}

// Snapshot is the externally visible result of a committed tick.
type Snapshot struct {
	Root   ids.NodeId
	Hash   ids.Hash
	Parent ids.Hash
	Tx     TxId
}

// Commit finalizes tx: executes every reserved candidate, merges the
// resulting deltas canonically, applies them, computes the state root and
// commit hash, finalizes the materialization bus, and appends the tick to
// this engine's worldline. The transaction is then removed; committing
// the same TxId again fails with ErrUnknownTx.
func (e *Engine) Commit(tx TxId) (Snapshot, error) {
	snap, _, err := e.commit(tx)
	return snap, err
}

// CommitWithReceipt is Commit, additionally returning the full
// reservation receipt for the tick.
func (e *Engine) CommitWithReceipt(tx TxId) (Snapshot, patch.TickReceipt, error) {
	return e.commit(tx)
}

func (e *Engine) commit(tx TxId) (Snapshot, patch.TickReceipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, ok := e.txs[tx]
	if !ok {
		return Snapshot{}, patch.TickReceipt{}, ErrUnknownTx
	}

	if e.cfg.Retention.Kind == worldline.RetentionArchiveToWormhole {
		return Snapshot{}, patch.TickReceipt{}, fmt.Errorf("engine: retention: %w", worldline.ErrNotImplemented)
	}

	// tickNo and parentCommit are only committed to engine state once every
	// step below has succeeded; a failed commit must not consume a tick
	// number or leave the worldline missing an entry for one.
	tickNo := e.tickNo + 1
	parentCommit := e.parentCommit

	result := scheduler.Reserve(e.store, pending.candidates)

	deltas, err := boaw.ExecuteParallel(context.Background(), e.store, result.Reserved, e.cfg.NumShards, e.cfg.MaxWorkers, e.cfg.Metrics)
	if err != nil {
		return Snapshot{}, patch.TickReceipt{}, fmt.Errorf("engine: execute: %w", err)
	}

	ruleByOrigin := make(map[ids.Hash]*rule.Rule, len(result.Reserved))
	for _, r := range result.Reserved {
		origin := rule.ScopeHash(r.Candidate.Rule.ID, r.Candidate.Match)
		ruleByOrigin[origin] = r.Candidate.Rule
	}
	reservedKeys := boaw.ReservedKeysFromReservations(result.Reserved)

	if err := boaw.Merge(e.store, deltas, reservedKeys, ruleByOrigin, false, e.cfg.Metrics); err != nil {
		return Snapshot{}, patch.TickReceipt{}, fmt.Errorf("engine: merge: %w", err)
	}

	stateRoot := snapshot.StateRoot(e.store, e.root)
	tickPatch := patch.TickPatch{Warp: e.warp, TickNo: tickNo, Deltas: deltas}
	patchDigest := tickPatch.Digest()
	decisionDigest := patch.DecisionDigest(result.Reserved, result.Rejected)

	finalized, err := e.bus.Finalize(e.cfg.Metrics)
	if err != nil {
		return Snapshot{}, patch.TickReceipt{}, fmt.Errorf("engine: materialize: %w", err)
	}
	emissionsDigest := ids.DigestLen0U64
	if len(finalized) > 0 {
		emissionsDigest = materialization.EmissionsDigest(finalized)
	}

	commitHash := patch.CommitHash(parentCommit, stateRoot, patchDigest, decisionDigest, emissionsDigest)

	receipt := patch.TickReceipt{
		Warp:       e.warp,
		TickNo:     tickNo,
		Reserved:   result.Reserved,
		Rejected:   result.Rejected,
		StateRoot:  stateRoot,
		PatchHash:  patchDigest,
		DecisionID: decisionDigest,
	}

	if w, ok := e.provenance.Get(e.worldlineID); ok {
		w.Append(worldline.TickRecord{
			TickNo: tickNo,
			Patch:  tickPatch,
			Triplet: worldline.HashTriplet{
				StateRoot:   stateRoot,
				PatchDigest: patchDigest,
				CommitHash:  commitHash,
			},
		})
		// Only KeepAll/CheckpointEvery/KeepRecent reach here (ArchiveToWormhole
		// was rejected before any worldline state changed this tick), so this
		// never fails.
		_ = w.Apply(e.cfg.Retention, tickNo, func() (worldline.Checkpoint, bool) {
			return worldline.Checkpoint{TickNo: tickNo, StateRoot: stateRoot, Store: e.store}, true
		})
	}

	e.cfg.Sink.OnSummary(uint64(tx), len(result.Reserved), len(result.Rejected))

	e.tickNo = tickNo
	e.parentCommit = commitHash
	delete(e.txs, tx)

	return Snapshot{Root: e.root, Hash: commitHash, Parent: parentCommit, Tx: tx}, receipt, nil
}

// IngestInboxEvent appends one event node, linked from the warp's
// `sim/inbox` node, for the sys/dispatch_inbox demo rule (or an
// equivalent caller-registered rule) to drain on a later tick. eventID
// must be a fresh, never-before-used node id; payload is stored as the
// event node's alpha attachment under typeID.
func (e *Engine) IngestInboxEvent(inbox, eventID ids.NodeId, typeID ids.TypeId, payload []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.InsertNode(eventID, graph.NodeRecord{Type: typeID})
	e.store.SetAttachment(graph.AttachmentKey{Owner: graph.NodeOwner(eventID), Plane: graph.PlaneAlpha},
		ptr(graph.Atom(typeID, payload)))
	edgeID := ids.MakeEdgeID(fmt.Sprintf("inbox:%s:%s", inbox, eventID))
	e.store.InsertEdge(inbox, graph.EdgeRecord{ID: edgeID, From: inbox, To: eventID, Type: typeID})
}

func ptr[T any](v T) *T { return &v }

// Store returns the engine's live graph store. Callers outside the
// engine must treat it as read-only; the only sanctioned mutation paths
// are Apply/Commit and IngestInboxEvent.
func (e *Engine) Store() *graph.Store { return e.store }

// Root returns the warp's designated snapshot root.
func (e *Engine) Root() ids.NodeId { return e.root }

// Head returns the commit hash of the most recently committed tick, or the
// zero hash if no tick has committed yet.
func (e *Engine) Head() ids.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parentCommit
}

// Worldline returns the engine's provenance store and the id of its own
// worldline, for callers that want to Seek or Fork tick history.
func (e *Engine) Worldline() (*worldline.ProvenanceStore, worldline.WorldlineId) {
	return e.provenance, e.worldlineID
}

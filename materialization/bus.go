// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package materialization implements the order-independent emission bus:
// rules emit keyed payloads through a ScopedEmitter during a tick, and the
// bus finalizes each channel's output exactly once, after merge and
// before commit returns, as a pure function of the set of emissions —
// never of the order they arrived in.
package materialization

import (
	"encoding/hex"
	"errors"
	"sort"
	"sync"

	"github.com/flyingrobots/warp-core/ids"
	"github.com/flyingrobots/warp-core/telemetry"
)

// ErrDuplicateEmission is returned (and aborts the tick) when the same
// EmitKey is emitted twice into the same channel within one tick.
var ErrDuplicateEmission = errors.New("materialization: duplicate emit key in channel")

// ErrChannelConflict is returned by Finalize for a SnapshotStrict channel
// that received more than one emission in the tick.
var ErrChannelConflict = errors.New("materialization: channel configured SnapshotStrict received multiple emissions")

// ChannelId identifies a materialization channel. Derived from a
// human-readable name via MakeChannelID so channel identity is stable
// across process restarts.
type ChannelId ids.Hash

// MakeChannelID derives a stable ChannelId from a name.
func MakeChannelID(name string) ChannelId {
	return ChannelId(ids.HashBytes("channel:", []byte(name)))
}

// Less gives ChannelId a canonical order for Finalize's channel iteration.
func (c ChannelId) Less(other ChannelId) bool { return ids.Hash(c).Less(ids.Hash(other)) }

// EmitKey is the canonical per-emission key: (scope hash, rule id, nonce).
// Bus output depends only on the set of (EmitKey, payload) pairs per
// channel, so any two ticks that produced the same set finalize to
// byte-identical output regardless of arrival order.
type EmitKey struct {
	ScopeHash ids.Hash
	RuleID    ids.Hash
	Nonce     uint64
}

// Less gives EmitKey its canonical sort order: scope hash, then rule id,
// then nonce.
func (k EmitKey) Less(other EmitKey) bool {
	if cmp := k.ScopeHash.Compare(other.ScopeHash); cmp != 0 {
		return cmp < 0
	}
	if cmp := k.RuleID.Compare(other.RuleID); cmp != 0 {
		return cmp < 0
	}
	return k.Nonce < other.Nonce
}

// ChannelPolicy selects how a channel's emissions are folded into a
// single finalized payload.
type ChannelPolicy uint8

// ChannelPolicy values.
const (
	// PolicyLog finalizes to every payload, concatenated in ascending
	// EmitKey order.
	PolicyLog ChannelPolicy = iota
	// PolicySnapshot finalizes to the payload of the maximum EmitKey.
	PolicySnapshot
	// PolicySnapshotStrict is PolicySnapshot, but errors if the channel
	// received more than one emission this tick.
	PolicySnapshotStrict
	// PolicyReduce finalizes by folding payloads in ascending EmitKey
	// order through a ReduceOp from a closed set (see ReduceOp); because
	// the fold order is canonical, the result does not depend on emission
	// order, even for the order-sensitive operators (Concat, First, Last).
	PolicyReduce
)

type emission struct {
	key     EmitKey
	payload []byte
}

type channel struct {
	policy    ChannelPolicy
	reduceOp  ReduceOp
	emissions []emission
	seen      map[EmitKey]struct{}
}

// Bus accumulates emissions for one tick across every channel. A single
// Bus instance is scoped to exactly one tick; callers construct a fresh
// Bus per tick.
type Bus struct {
	mu       sync.Mutex
	channels map[ChannelId]*channel
	policies map[ChannelId]ChannelPolicy
}

// NewBus returns an empty materialization bus.
func NewBus() *Bus {
	return &Bus{
		channels: make(map[ChannelId]*channel),
		policies: make(map[ChannelId]ChannelPolicy),
	}
}

// Declare registers a channel's policy ahead of any emission. Declaring
// the same channel twice with the same policy is a no-op; declaring it
// twice with different policies panics, since that can only be a
// programming error in rule registration.
func (b *Bus) Declare(id ChannelId, policy ChannelPolicy, op ReduceOp) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.policies[id]; ok {
		if existing != policy {
			panic("materialization: channel redeclared with a different policy")
		}
		return
	}
	b.policies[id] = policy
	b.channels[id] = &channel{policy: policy, reduceOp: op, seen: make(map[EmitKey]struct{})}
}

// Emit records one (key, payload) emission into channel id. Concurrent
// callers (one per execution shard) are serialized internally by this
// call; the finalized output they produce depends only on the resulting
// set of emissions, never on which goroutine called Emit first.
func (b *Bus) Emit(id ChannelId, key EmitKey, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[id]
	if !ok {
		ch = &channel{policy: PolicyLog, seen: make(map[EmitKey]struct{})}
		b.channels[id] = ch
	}
	if _, dup := ch.seen[key]; dup {
		return ErrDuplicateEmission
	}
	ch.seen[key] = struct{}{}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	ch.emissions = append(ch.emissions, emission{key: key, payload: buf})
	return nil
}

// FinalizedChannel is one channel's finalized output.
type FinalizedChannel struct {
	Channel ChannelId
	Bytes   []byte
}

// Finalize computes the finalized payload for every channel that received
// at least one emission, in ascending ChannelId order. It is called
// exactly once per tick, after merge and before the commit hash is
// composed. metrics may be nil; each channel's finalized size is otherwise
// recorded via ObserveChannelBytes, labeled by the channel's hex id (Bus
// only ever sees the already-hashed ChannelId, never the source name).
func (b *Bus) Finalize(metrics *telemetry.Metrics) ([]FinalizedChannel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelIDs := make([]ChannelId, 0, len(b.channels))
	for id := range b.channels {
		channelIDs = append(channelIDs, id)
	}
	sort.Slice(channelIDs, func(i, j int) bool { return channelIDs[i].Less(channelIDs[j]) })

	var out []FinalizedChannel
	for _, id := range channelIDs {
		ch := b.channels[id]
		if len(ch.emissions) == 0 {
			continue
		}
		sorted := append([]emission(nil), ch.emissions...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].key.Less(sorted[j].key) })

		bytes, err := finalizeChannel(ch.policy, ch.reduceOp, sorted)
		if err != nil {
			return nil, err
		}
		metrics.ObserveChannelBytes(hex.EncodeToString(id[:]), len(bytes))
		out = append(out, FinalizedChannel{Channel: id, Bytes: bytes})
	}
	return out, nil
}

func finalizeChannel(policy ChannelPolicy, op ReduceOp, sorted []emission) ([]byte, error) {
	switch policy {
	case PolicyLog:
		var out []byte
		for _, e := range sorted {
			out = append(out, e.payload...)
		}
		return out, nil
	case PolicySnapshot:
		return sorted[len(sorted)-1].payload, nil
	case PolicySnapshotStrict:
		if len(sorted) > 1 {
			return nil, ErrChannelConflict
		}
		return sorted[0].payload, nil
	case PolicyReduce:
		acc := sorted[0].payload
		for _, e := range sorted[1:] {
			var err error
			acc, err = op.Fold(acc, e.payload)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	default:
		return nil, errors.New("materialization: unknown channel policy")
	}
}

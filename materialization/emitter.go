// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package materialization

import "github.com/flyingrobots/warp-core/ids"

// ScopedEmitter is the rule-facing handle into a Bus: it binds a fixed
// scope hash and rule id for the lifetime of one match's execution, so a
// caller supplies only the channel and payload; Emit assigns the
// per-emission nonce itself and never re-derives the scope/rule part of
// EmitKey.
type ScopedEmitter struct {
	bus       *Bus
	scopeHash ids.Hash
	ruleID    ids.Hash
	nextNonce uint64
}

// NewScopedEmitter binds bus to a single match's (scopeHash, ruleID) pair.
func NewScopedEmitter(bus *Bus, scopeHash, ruleID ids.Hash) *ScopedEmitter {
	return &ScopedEmitter{bus: bus, scopeHash: scopeHash, ruleID: ruleID}
}

// Emit records payload into channel, auto-assigning the next nonce in
// this emitter's sequence. The resulting EmitKey is canonical and unique
// across the engine as long as callers do not hand out the same
// (scopeHash, ruleID) pair to two concurrent emitters; NewScopedEmitter
// does not check for that.
func (e *ScopedEmitter) Emit(channel ChannelId, payload []byte) error {
	key := EmitKey{ScopeHash: e.scopeHash, RuleID: e.ruleID, Nonce: e.nextNonce}
	e.nextNonce++
	return e.bus.Emit(channel, key, payload)
}

// MaterializationPort is the boundary API external consumers use to
// observe a channel's finalized output after commit. It never exposes raw
// per-emission data, only the one post-finalization view, keeping
// consumers decoupled from however many rules happened to emit into the
// channel that tick.
type MaterializationPort struct {
	latest map[ChannelId][]byte
}

// NewMaterializationPort returns an empty port.
func NewMaterializationPort() *MaterializationPort {
	return &MaterializationPort{latest: make(map[ChannelId][]byte)}
}

// ReceiveFinalized ingests one tick's finalized channels, replacing
// whatever this port previously held for each channel present. Channels
// that received no emission this tick retain their prior value (Log/Reduce
// channels are expected to be re-emitted every tick that has content;
// absence means "unchanged", not "cleared").
func (p *MaterializationPort) ReceiveFinalized(channels []FinalizedChannel) {
	for _, c := range channels {
		buf := make([]byte, len(c.Bytes))
		copy(buf, c.Bytes)
		p.latest[c.Channel] = buf
	}
}

// Latest returns the most recently finalized bytes for channel, if any
// tick has ever populated it.
func (p *MaterializationPort) Latest(channel ChannelId) ([]byte, bool) {
	v, ok := p.latest[channel]
	return v, ok
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ffi

import "github.com/flyingrobots/warp-core/engine"

// BeginTx starts a new transaction on the engine registered under h. ok is
// false iff h does not name a registered engine.
func BeginTx(h Handle) (tx uint64, ok bool) {
	e, ok := lookup(h)
	if !ok {
		return 0, false
	}
	return uint64(e.Begin()), true
}

// CommitTx commits tx on the engine registered under h. The boolean
// result reports success; on failure errMsg carries the underlying error
// text and hash is the zero value. This is the boolean-success,
// out-parameter error convention spec.md §9 requires at the C boundary.
func CommitTx(h Handle, tx uint64) (hash [32]byte, ok bool, errMsg string) {
	e, found := lookup(h)
	if !found {
		return [32]byte{}, false, "ffi: unknown engine handle"
	}
	snap, err := e.Commit(engine.TxId(tx))
	if err != nil {
		return [32]byte{}, false, err.Error()
	}
	return [32]byte(snap.Hash), true, ""
}

// SnapshotHash returns the current head commit hash of the engine
// registered under h. ok is false iff h is unregistered; a freshly
// constructed engine with no committed ticks yet returns the zero hash
// with ok == true.
func SnapshotHash(h Handle) (hash [32]byte, ok bool) {
	e, found := lookup(h)
	if !found {
		return [32]byte{}, false
	}
	return [32]byte(e.Head()), true
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ffi is the thin C-ABI seam spec.md §9 describes: a host process
// in another language obtains an opaque Handle for an already-constructed
// engine.Engine, then drives it through warp_begin/warp_commit/
// warp_snapshot_hash. Every exported C function is a thin wrapper over a
// plain-Go bridge function below, so the bridge logic is unit-testable
// without a cgo build.
package ffi

import (
	"sync"
	"sync/atomic"

	"github.com/flyingrobots/warp-core/engine"
)

// Handle identifies one registered *engine.Engine across the C boundary.
// Zero is never issued; it signals "no such engine" to callers.
type Handle uint64

var (
	registryMu sync.RWMutex
	registry   = make(map[Handle]*engine.Engine)
	nextHandle uint64
)

// Register hands e an opaque Handle a host process can hold onto and pass
// back into warp_begin/warp_commit/warp_snapshot_hash. The engine remains
// reachable from Go for as long as it is registered; callers must Release
// it once the host is done to avoid leaking the reference.
func Register(e *engine.Engine) Handle {
	id := Handle(atomic.AddUint64(&nextHandle, 1))
	registryMu.Lock()
	registry[id] = e
	registryMu.Unlock()
	return id
}

// Release forgets h. Subsequent calls against h fail with ok == false.
func Release(h Handle) {
	registryMu.Lock()
	delete(registry, h)
	registryMu.Unlock()
}

func lookup(h Handle) (*engine.Engine, bool) {
	registryMu.RLock()
	e, ok := registry[h]
	registryMu.RUnlock()
	return e, ok
}

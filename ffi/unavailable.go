// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build !cgo
// +build !cgo

package ffi

// CgoAvailable reports whether this build exports the warp_begin/
// warp_commit/warp_snapshot_hash C-ABI symbols. A non-cgo build still
// links the Handle/Register/BeginTx/CommitTx/SnapshotHash bridge for
// same-process Go callers; only the exported C symbols are absent.
func CgoAvailable() bool {
	return false
}

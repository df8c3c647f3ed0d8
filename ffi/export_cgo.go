// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build cgo
// +build cgo

package ffi

/*
#include <stdint.h>
#include <stdbool.h>
*/
import "C"
import "unsafe"

// warp_begin starts a new transaction on the engine identified by
// engine_handle and writes its id to out_tx. Returns false if
// engine_handle is unknown.
//
//export warp_begin
func warp_begin(engineHandle C.uint64_t, outTx *C.uint64_t) C.bool {
	tx, ok := BeginTx(Handle(engineHandle))
	if !ok {
		return C.bool(false)
	}
	*outTx = C.uint64_t(tx)
	return C.bool(true)
}

// warp_commit commits tx on the engine identified by engine_handle,
// writing the 32-byte commit hash to out_hash (which must point at a
// 32-byte buffer) on success. On failure it writes a NUL-terminated
// message to out_err (a caller-owned buffer of out_err_len bytes) and
// returns false; the caller owns both buffers.
//
//export warp_commit
func warp_commit(engineHandle C.uint64_t, tx C.uint64_t, outHash *C.uint8_t, outErr *C.char, outErrLen C.size_t) C.bool {
	hash, ok, errMsg := CommitTx(Handle(engineHandle), uint64(tx))
	if !ok {
		writeCString(outErr, outErrLen, errMsg)
		return C.bool(false)
	}
	copyHash(outHash, hash)
	return C.bool(true)
}

// warp_snapshot_hash writes the engine's current head commit hash (32
// bytes, all-zero if no tick has committed yet) to out_hash. Returns
// false if engine_handle is unknown.
//
//export warp_snapshot_hash
func warp_snapshot_hash(engineHandle C.uint64_t, outHash *C.uint8_t) C.bool {
	hash, ok := SnapshotHash(Handle(engineHandle))
	if !ok {
		return C.bool(false)
	}
	copyHash(outHash, hash)
	return C.bool(true)
}

func copyHash(dst *C.uint8_t, hash [32]byte) {
	out := (*[32]byte)(unsafe.Pointer(dst))
	copy(out[:], hash[:])
}

func writeCString(dst *C.char, dstLen C.size_t, s string) {
	if dst == nil || dstLen == 0 {
		return
	}
	buf := (*[1 << 20]byte)(unsafe.Pointer(dst))[:dstLen:dstLen]
	n := copy(buf[:dstLen-1], s)
	buf[n] = 0
}

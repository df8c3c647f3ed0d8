// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import "github.com/zeebo/blake3"

// BlakeEmpty is the BLAKE3 digest of the empty byte slice. Used wherever a
// canonical "no input" digest is required instead of an ad-hoc zero value.
var BlakeEmpty = mustDigest(func(h *blake3.Hasher) {})

// DigestLen0U64 is the canonical digest of an empty length-prefixed list:
// BLAKE3 of the eight zero bytes of a little-endian u64. Any length-prefixed
// list digest (tick receipts, op lists, ...) must collapse to exactly this
// value when the underlying list is empty.
var DigestLen0U64 = mustDigest(func(h *blake3.Hasher) {
	var zero [8]byte
	_, _ = h.Write(zero[:])
})

func mustDigest(fill func(h *blake3.Hasher)) Hash {
	h := blake3.New()
	fill(h)
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

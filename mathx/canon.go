// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mathx provides the deterministic scalar math the engine needs
// before any floating-point value is allowed to enter a hash: subnormal
// flushing and NaN canonicalization, a LUT-based sin/cos that never calls
// a platform transcendental, and a Q32.32 fixed-point vector type for
// contexts that want exact determinism without a canonicalization step at
// all.
package mathx

import "math"

// canonicalQuietNaN is the single bit pattern every NaN collapses to
// before entering a hash or a canonical-float encoding decision. Picking
// one fixed pattern means two platforms that disagree on which NaN
// payload a given operation produces still hash identically.
const canonicalQuietNaN uint32 = 0x7fc00000

// CanonicalF32 flushes subnormals to +0.0 and maps every NaN bit pattern
// to a single canonical quiet NaN, resolving the engine's float
// determinism requirement: any f32 that is ever hashed directly, or fed
// into the tick's canonical CBOR float-minimization decision, must first
// pass through this function.
func CanonicalF32(x float32) float32 {
	if math.IsNaN(float64(x)) {
		return math.Float32frombits(canonicalQuietNaN)
	}
	bits := math.Float32bits(x)
	exp := (bits >> 23) & 0xff
	mantissa := bits & 0x7fffff
	if exp == 0 && mantissa != 0 {
		// Subnormal: flush to +0.0, discarding the sign bit too, since
		// the engine treats -0.0 and +0.0 as the same canonical zero.
		return 0
	}
	if bits == 0x80000000 {
		// Negative zero canonicalizes to positive zero.
		return 0
	}
	return x
}

// CanonicalVec3 canonicalizes each component of a 3-vector.
func CanonicalVec3(v [3]float32) [3]float32 {
	return [3]float32{CanonicalF32(v[0]), CanonicalF32(v[1]), CanonicalF32(v[2])}
}

// Bits returns the canonical little-endian-ready bit pattern of x after
// canonicalization, for callers building a hash or wire payload directly
// from the bits rather than from math.Float32bits(x).
func Bits(x float32) uint32 {
	return math.Float32bits(CanonicalF32(x))
}

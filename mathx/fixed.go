// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package mathx

import "math/bits"

// Fx32 is a Q32.32 fixed-point scalar: an int64 where the low 32 bits are
// the fractional part. Unlike CanonicalF32, a fixed-point value needs no
// canonicalization step before hashing — integer arithmetic is exactly
// reproducible across every machine and compiler by construction.
type Fx32 int64

// FxFromInt constructs a Q32.32 value from an integer.
func FxFromInt(n int64) Fx32 { return Fx32(n << 32) }

// FxFromRaw constructs a Q32.32 value directly from its raw bit pattern.
func FxFromRaw(raw int64) Fx32 { return Fx32(raw) }

// Raw returns the underlying Q32.32 bit pattern.
func (f Fx32) Raw() int64 { return int64(f) }

// Add returns f + other.
func (f Fx32) Add(other Fx32) Fx32 { return f + other }

// Sub returns f - other.
func (f Fx32) Sub(other Fx32) Fx32 { return f - other }

// Mul returns f * other, computed through a 128-bit intermediate product
// and truncating toward zero on the fractional bits lost in the shift.
func (f Fx32) Mul(other Fx32) Fx32 {
	a, b := int64(f), int64(other)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo := bits.Mul64(ua, ub)
	r := int64(hi<<32 | lo>>32)
	if (a < 0) != (b < 0) {
		r = -r
	}
	return Fx32(r)
}

// Vec3Fx is a 3D vector of Q32.32 fixed-point scalars, used by contexts
// that need exact cross-machine determinism without ever canonicalizing a
// float.
type Vec3Fx struct {
	X, Y, Z Fx32
}

// Vec3FxFromInt constructs a Vec3Fx from integer components.
func Vec3FxFromInt(x, y, z int64) Vec3Fx {
	return Vec3Fx{X: FxFromInt(x), Y: FxFromInt(y), Z: FxFromInt(z)}
}

// Vec3FxFromRaw constructs a Vec3Fx from raw Q32.32 components.
func Vec3FxFromRaw(raw [3]int64) Vec3Fx {
	return Vec3Fx{X: FxFromRaw(raw[0]), Y: FxFromRaw(raw[1]), Z: FxFromRaw(raw[2])}
}

// ToRaw returns the raw Q32.32 components.
func (v Vec3Fx) ToRaw() [3]int64 { return [3]int64{v.X.Raw(), v.Y.Raw(), v.Z.Raw()} }

// Add returns the component-wise sum of v and other.
func (v Vec3Fx) Add(other Vec3Fx) Vec3Fx {
	return Vec3Fx{X: v.X.Add(other.X), Y: v.Y.Add(other.Y), Z: v.Z.Add(other.Z)}
}

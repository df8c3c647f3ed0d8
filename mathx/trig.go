// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package mathx

import "math"

// sinQtrSegments is the number of linear-interpolation segments the
// quarter-wave sin lookup table is divided into. Higher resolution
// tightens the approximation error at the cost of one extra table entry
// per segment; 256 matches the precision the demo motion rule needs
// without the table itself being large enough to matter.
const sinQtrSegments = 256

// sinQtrTable holds sin(i * (pi/2) / sinQtrSegments) for i in
// [0, sinQtrSegments], computed once at init time. Because every process
// computes the same table from the same closed-form definition, two
// engines on different machines derive bit-identical samples: determinism
// here comes from "never call sin/cos in the hot path with an
// angle that was not first range-reduced through this table", not from
// avoiding libm entirely at startup.
var sinQtrTable [sinQtrSegments + 1]float32

func init() {
	for i := 0; i <= sinQtrSegments; i++ {
		angle := float64(i) * (math.Pi / 2) / float64(sinQtrSegments)
		sinQtrTable[i] = float32(math.Sin(angle))
	}
}

// SinCos returns deterministic sin and cos of angle (radians), using a
// quarter-wave LUT with linear interpolation and quadrant symmetry
// instead of calling the platform's math.Sincos. Non-finite input
// returns (NaN, NaN); callers canonicalize with CanonicalF32 afterward.
func SinCos(angle float32) (sin, cos float32) {
	if math.IsInf(float64(angle), 0) || math.IsNaN(float64(angle)) {
		nan := float32(math.NaN())
		return nan, nan
	}

	tau := float32(2 * math.Pi)
	halfPi := float32(math.Pi / 2)
	pi := float32(math.Pi)

	r := remEuclid(angle, tau)

	var quadrant int
	var a float32
	switch {
	case r < halfPi:
		quadrant, a = 0, r
	case r < pi:
		quadrant, a = 1, r-halfPi
	case r < pi+halfPi:
		quadrant, a = 2, r-pi
	default:
		quadrant, a = 3, r-(pi+halfPi)
	}

	s := sinQtrInterp(a)
	c := sinQtrInterp(halfPi - a)

	switch quadrant {
	case 0:
		return s, c
	case 1:
		return c, -s
	case 2:
		return -s, -c
	default:
		return -c, s
	}
}

func sinQtrInterp(angleQtr float32) float32 {
	halfPi := float32(math.Pi / 2)
	if angleQtr < 0 || angleQtr > halfPi {
		return float32(math.NaN())
	}

	t := angleQtr * sinQtrSegments / halfPi
	if t >= sinQtrSegments {
		return 1.0
	}

	i0 := int(t)
	frac := t - float32(i0)
	y0 := sinQtrTable[i0]
	y1 := sinQtrTable[i0+1]
	return y0 + frac*(y1-y0)
}

// remEuclid returns the non-negative remainder of a / b, matching Rust's
// f32::rem_euclid: the result is always in [0, b) regardless of a's sign.
func remEuclid(a, b float32) float32 {
	r := float32(math.Mod(float64(a), float64(b)))
	if r < 0 {
		r += b
	}
	return r
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package demo provides the built-in rewrite rules used by the engine's
// test suite and reference CLI: a motion-integration rule, a boundary-port
// reservation rule, and an inbox-dispatch rule. None of these are part of
// the engine's core; they are ordinary rule.Rule values any caller could
// have written, kept here because the engine's own tests exercise them.
package demo

import (
	"encoding/binary"
	"math"
)

// motionPayloadLen is the fixed wire length of a position+velocity
// payload: six little-endian float32 values (3 position, 3 velocity).
const motionPayloadLen = 24

// EncodeMotionPayload serializes a position/velocity pair into the
// canonical 24-byte motion payload.
func EncodeMotionPayload(pos, vel [3]float32) []byte {
	buf := make([]byte, motionPayloadLen)
	for i, v := range [...]float32{pos[0], pos[1], pos[2], vel[0], vel[1], vel[2]} {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeMotionPayload deserializes a motion payload. ok is false if bytes
// is not exactly motionPayloadLen long.
func DecodeMotionPayload(payload []byte) (pos, vel [3]float32, ok bool) {
	if len(payload) != motionPayloadLen {
		return pos, vel, false
	}
	var floats [6]float32
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return [3]float32{floats[0], floats[1], floats[2]}, [3]float32{floats[3], floats[4], floats[5]}, true
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package materialization

import (
	"encoding/binary"
	"errors"
)

// ErrReduceArity is returned when a reduce payload is not 8 bytes, the
// only width the closed operator set below operates on.
var ErrReduceArity = errors.New("materialization: reduce payload must be exactly 8 bytes")

// ReduceOp is one of a closed set of fold operators for PolicyReduce
// channels. Sum, Max, Min, BitOr and BitAnd are commutative; Concat, First
// and Last depend on order, and Bus.Finalize always folds in ascending
// EmitKey order, so every operator's result is independent of emission
// order. Restricting Reduce to this set (rather than accepting an
// arbitrary user function tagged Commutative/OrderDependent) is the chosen
// resolution of the engine's one open design question on reducer safety:
// a closed set can be checked once, instead of trusted per rule author.
type ReduceOp uint8

// ReduceOp values. Concat is the only variant not restricted to 8-byte
// payloads.
const (
	ReduceSum ReduceOp = iota
	ReduceMax
	ReduceMin
	ReduceBitOr
	ReduceBitAnd
	ReduceConcat
	ReduceFirst
	ReduceLast
)

// Fold combines acc and next according to op. For the fixed-width numeric
// operators, both payloads are interpreted as little-endian uint64.
func (op ReduceOp) Fold(acc, next []byte) ([]byte, error) {
	switch op {
	case ReduceConcat:
		out := make([]byte, 0, len(acc)+len(next))
		out = append(out, acc...)
		out = append(out, next...)
		return out, nil
	case ReduceFirst:
		return acc, nil
	case ReduceLast:
		return next, nil
	}

	if len(acc) != 8 || len(next) != 8 {
		return nil, ErrReduceArity
	}
	a := binary.LittleEndian.Uint64(acc)
	b := binary.LittleEndian.Uint64(next)

	var result uint64
	switch op {
	case ReduceSum:
		result = a + b
	case ReduceMax:
		result = a
		if b > a {
			result = b
		}
	case ReduceMin:
		result = a
		if b < a {
			result = b
		}
	case ReduceBitOr:
		result = a | b
	case ReduceBitAnd:
		result = a & b
	default:
		return nil, errors.New("materialization: unknown reduce op")
	}

	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, result)
	return out, nil
}

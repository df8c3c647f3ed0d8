// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package wirecodec implements the engine's canonical CBOR wire format:
// decoding rejects any input that is not the unique canonical encoding of
// its value (RFC 8949 §4.2), so two hosts that agree on a value always
// agree on its bytes. Encoding always produces that canonical form.
//
// fxamacker/cbor/v2 does the actual Go-value marshaling; canonicality
// validation on decode is hand-rolled because no library in the
// ecosystem enforces the specific rejection set this format requires
// (minimal-int, sorted map keys, narrowest lossless float width, no
// duplicate keys, no indefinite-length items).
package wirecodec

import (
	"encoding/binary"
	"errors"
	"math"
)

// Canonicality violations a decode can reject with. Each corresponds to
// one of the rejection classes the wire format mandates.
var (
	ErrTruncated        = errors.New("wirecodec: truncated CBOR item")
	ErrIndefiniteLength = errors.New("wirecodec: indefinite-length item is not canonical")
	ErrNonCanonicalInt  = errors.New("wirecodec: integer or length not minimally encoded")
	ErrMapKeyOrder      = errors.New("wirecodec: map keys not in canonical sorted order")
	ErrDuplicateMapKey  = errors.New("wirecodec: duplicate map key")
	ErrFloatShouldBeInt = errors.New("wirecodec: float value is integral and must be encoded as an integer")
	ErrNonCanonicalFloat = errors.New("wirecodec: float encoded wider than the narrowest lossless width")
	ErrUnsupportedType  = errors.New("wirecodec: unsupported or reserved major type")
	ErrTrailingBytes    = errors.New("wirecodec: trailing bytes after top-level CBOR value")
)

const (
	majorUint = 0
	majorNInt = 1
	majorBstr = 2
	majorTstr = 3
	majorArr  = 4
	majorMap  = 5
	majorTag  = 6
	majorFlt  = 7
)

// ValidateCanonical reports whether data is the unique canonical CBOR
// encoding of exactly one top-level value. It is the gate every Decode
// call passes through before handing bytes to fxamacker/cbor.
func ValidateCanonical(data []byte) error {
	n, err := validateValue(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return ErrTrailingBytes
	}
	return nil
}

// validateValue validates one CBOR value starting at data[0] and returns
// the number of bytes it consumed.
func validateValue(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, ErrTruncated
	}
	major := data[0] >> 5
	addl := data[0] & 0x1f

	switch major {
	case majorUint, majorNInt:
		_, headLen, err := readMinimalLength(data, addl)
		return headLen, err
	case majorBstr, majorTstr:
		length, headLen, err := readMinimalLength(data, addl)
		if err != nil {
			return 0, err
		}
		total := headLen + int(length)
		if total > len(data) {
			return 0, ErrTruncated
		}
		return total, nil
	case majorArr:
		count, headLen, err := readMinimalLength(data, addl)
		if err != nil {
			return 0, err
		}
		off := headLen
		for i := uint64(0); i < count; i++ {
			n, err := validateValue(data[off:])
			if err != nil {
				return 0, err
			}
			off += n
		}
		return off, nil
	case majorMap:
		count, headLen, err := readMinimalLength(data, addl)
		if err != nil {
			return 0, err
		}
		off := headLen
		var prevKey []byte
		for i := uint64(0); i < count; i++ {
			keyStart := off
			kn, err := validateValue(data[off:])
			if err != nil {
				return 0, err
			}
			key := data[keyStart : keyStart+kn]
			off += kn
			if prevKey != nil {
				switch canonicalCompare(prevKey, key) {
				case 0:
					return 0, ErrDuplicateMapKey
				case 1:
					return 0, ErrMapKeyOrder
				}
			}
			prevKey = key

			vn, err := validateValue(data[off:])
			if err != nil {
				return 0, err
			}
			off += vn
		}
		return off, nil
	case majorTag:
		_, headLen, err := readMinimalLength(data, addl)
		if err != nil {
			return 0, err
		}
		n, err := validateValue(data[headLen:])
		if err != nil {
			return 0, err
		}
		return headLen + n, nil
	case majorFlt:
		return validateFloatOrSimple(data, addl)
	default:
		return 0, ErrUnsupportedType
	}
}

// canonicalCompare orders two encoded map keys per RFC 7049 canonical
// ordering: shorter encoding first, then bytewise lexicographic. Returns
// -1 if a < b, 0 if equal, 1 if a > b.
func canonicalCompare(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// readMinimalLength reads the argument encoded by addl (the low 5 bits of
// the initial byte) and verifies it used the shortest possible form.
// Returns the decoded value and the total header length (1 + extra bytes).
func readMinimalLength(data []byte, addl byte) (uint64, int, error) {
	switch {
	case addl < 24:
		return uint64(addl), 1, nil
	case addl == 24:
		if len(data) < 2 {
			return 0, 0, ErrTruncated
		}
		v := uint64(data[1])
		if v < 24 {
			return 0, 0, ErrNonCanonicalInt
		}
		return v, 2, nil
	case addl == 25:
		if len(data) < 3 {
			return 0, 0, ErrTruncated
		}
		v := uint64(binary.BigEndian.Uint16(data[1:3]))
		if v <= math.MaxUint8 {
			return 0, 0, ErrNonCanonicalInt
		}
		return v, 3, nil
	case addl == 26:
		if len(data) < 5 {
			return 0, 0, ErrTruncated
		}
		v := uint64(binary.BigEndian.Uint32(data[1:5]))
		if v <= math.MaxUint16 {
			return 0, 0, ErrNonCanonicalInt
		}
		return v, 5, nil
	case addl == 27:
		if len(data) < 9 {
			return 0, 0, ErrTruncated
		}
		v := binary.BigEndian.Uint64(data[1:9])
		if v <= math.MaxUint32 {
			return 0, 0, ErrNonCanonicalInt
		}
		return v, 9, nil
	case addl == 31:
		return 0, 0, ErrIndefiniteLength
	default:
		return 0, 0, ErrUnsupportedType
	}
}

// validateFloatOrSimple handles major type 7: simple values (false, true,
// null, undefined) and the three float widths.
func validateFloatOrSimple(data []byte, addl byte) (int, error) {
	switch addl {
	case 20, 21, 22, 23: // false, true, null, undefined
		return 1, nil
	case 25: // f16
		if len(data) < 3 {
			return 0, ErrTruncated
		}
		bits := binary.BigEndian.Uint16(data[1:3])
		f := f16ToF64(bits)
		if isIntegral(f) {
			return 0, ErrFloatShouldBeInt
		}
		return 3, nil
	case 26: // f32
		if len(data) < 5 {
			return 0, ErrTruncated
		}
		bits := binary.BigEndian.Uint32(data[1:5])
		f := float64(math.Float32frombits(bits))
		if isIntegral(f) {
			return 0, ErrFloatShouldBeInt
		}
		if fitsF16(f) {
			return 0, ErrNonCanonicalFloat
		}
		return 5, nil
	case 27: // f64
		if len(data) < 9 {
			return 0, ErrTruncated
		}
		bits := binary.BigEndian.Uint64(data[1:9])
		f := math.Float64frombits(bits)
		if isIntegral(f) {
			return 0, ErrFloatShouldBeInt
		}
		if fitsF16(f) || fitsF32(f) {
			return 0, ErrNonCanonicalFloat
		}
		return 9, nil
	default:
		return 0, ErrUnsupportedType
	}
}

func isIntegral(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f) && math.Abs(f) < (1<<53)
}

func fitsF32(f float64) bool {
	return float64(float32(f)) == f
}

func fitsF16(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return true
	}
	bits := f16FromF64(f)
	return f16ToF64(bits) == f
}

// f16ToF64 widens an IEEE-754 binary16 value to float64.
func f16ToF64(bits uint16) float64 {
	sign := uint64(bits>>15) & 0x1
	exp := uint64(bits>>10) & 0x1f
	frac := uint64(bits) & 0x3ff

	var f float64
	switch {
	case exp == 0:
		f = float64(frac) * math.Pow(2, -24)
	case exp == 0x1f:
		if frac == 0 {
			f = math.Inf(1)
		} else {
			f = math.NaN()
		}
	default:
		f = (1 + float64(frac)/1024) * math.Pow(2, float64(exp)-15)
	}
	if sign == 1 {
		f = -f
	}
	return f
}

// f16FromF64 narrows f to its nearest binary16 bit pattern, used only to
// test round-trip losslessness; it is not a general-purpose rounding
// implementation.
func f16FromF64(f float64) uint16 {
	f32 := float32(f)
	bits := math.Float32bits(f32)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	frac := bits & 0x7fffff

	if exp <= 0 {
		return sign
	}
	if exp >= 0x1f {
		return sign | 0x7c00
	}
	return sign | uint16(exp)<<10 | uint16(frac>>13)
}

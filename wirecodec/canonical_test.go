// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wirecodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalGoldenVector(t *testing.T) {
	require := require.New(t)

	type pair struct {
		A int  `cbor:"a"`
		B bool `cbor:"b"`
	}

	encoded, err := Marshal(pair{A: 1, B: true})
	require.NoError(err)
	require.Equal([]byte{0xa2, 0x61, 0x61, 0x01, 0x61, 0x62, 0xf5}, encoded)

	var decoded pair
	require.NoError(Unmarshal(encoded, &decoded))
	require.Equal(pair{A: 1, B: true}, decoded)
}

func TestRejectsNonMinimalInt(t *testing.T) {
	require := require.New(t)
	var v interface{}
	err := Unmarshal([]byte{0x18, 0x01}, &v)
	require.ErrorIs(err, ErrNonCanonicalInt)
}

func TestRejectsUnsortedMapKeys(t *testing.T) {
	require := require.New(t)
	var v interface{}
	// map(2){b: 1, a: 2} — "b" sorts after "a", violating canonical order.
	err := Unmarshal([]byte{0xa2, 0x61, 0x62, 0x01, 0x61, 0x61, 0x02}, &v)
	require.ErrorIs(err, ErrMapKeyOrder)
}

func TestRejectsFloatThatShouldBeInt(t *testing.T) {
	require := require.New(t)
	var v interface{}

	// 1.0 encoded as f32.
	err := Unmarshal([]byte{0xfa, 0x3f, 0x80, 0x00, 0x00}, &v)
	require.ErrorIs(err, ErrFloatShouldBeInt)

	// 42.0 encoded as f16.
	err = Unmarshal([]byte{0xf9, 0x51, 0x40}, &v)
	require.ErrorIs(err, ErrFloatShouldBeInt)
}

func TestRejectsNonCanonicalFloatWidth(t *testing.T) {
	require := require.New(t)
	var v interface{}
	// 0.5 is exactly representable in f16 but encoded here as f64.
	err := Unmarshal([]byte{0xfb, 0x3f, 0xe0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, &v)
	require.ErrorIs(err, ErrNonCanonicalFloat)
}

func TestRejectsDuplicateMapKey(t *testing.T) {
	require := require.New(t)
	var v interface{}
	// map(2){a: 1, a: 2}
	err := Unmarshal([]byte{0xa2, 0x61, 0x61, 0x01, 0x61, 0x61, 0x02}, &v)
	require.ErrorIs(err, ErrDuplicateMapKey)
}

func TestRejectsIndefiniteLength(t *testing.T) {
	require := require.New(t)
	var v interface{}
	// indefinite-length array, closed with a break byte.
	err := Unmarshal([]byte{0x9f, 0x01, 0xff}, &v)
	require.ErrorIs(err, ErrIndefiniteLength)
}

func TestAcceptsNonIntegralFloatAtNarrowestWidth(t *testing.T) {
	require := require.New(t)
	var v float64
	// 0.5 at its narrowest lossless width, f16.
	require.NoError(Unmarshal([]byte{0xf9, 0x38, 0x00}, &v))
	require.Equal(0.5, v)
}

// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package wirecodec

import (
	"encoding/binary"
	"errors"

	"github.com/flyingrobots/warp-core/ids"
)

// FrameMagic identifies a tick frame on the wire.
var FrameMagic = [4]byte{'W', 'C', 'F', 'R'}

// FrameVersion is the wire version this package reads and writes.
const FrameVersion uint16 = 1

// ErrBadMagic is returned by DecodeFrame when the leading 4 bytes do not
// match FrameMagic.
var ErrBadMagic = errors.New("wirecodec: frame magic mismatch")

// ErrUnsupportedFrameVersion is returned by DecodeFrame for a version this
// build does not understand.
var ErrUnsupportedFrameVersion = errors.New("wirecodec: unsupported frame version")

// ErrFrameTruncated is returned by DecodeFrame when data is shorter than
// its declared body length.
var ErrFrameTruncated = errors.New("wirecodec: frame truncated")

const frameHeaderLen = 4 + 2 + 32 + 1 + 4

// Frame is one materialization channel's finalized output serialized for
// transport: FRAME_MAGIC ⧺ FRAME_VERSION ⧺ channel_id ⧺ policy_tag ⧺
// body_len(u32 LE) ⧺ body, where body is canonical CBOR.
type Frame struct {
	ChannelID ids.Hash
	PolicyTag uint8
	Body      []byte // canonical CBOR
}

// EncodeFrame serializes f to its wire representation.
func EncodeFrame(f Frame) []byte {
	out := make([]byte, frameHeaderLen+len(f.Body))
	copy(out[0:4], FrameMagic[:])
	binary.LittleEndian.PutUint16(out[4:6], FrameVersion)
	copy(out[6:38], f.ChannelID[:])
	out[38] = f.PolicyTag
	binary.LittleEndian.PutUint32(out[39:43], uint32(len(f.Body)))
	copy(out[43:], f.Body)
	return out
}

// DecodeFrame parses a wire frame from data. The body is returned as-is
// (still canonical CBOR bytes); callers invoke Unmarshal on it to decode
// into a Go value and enforce canonicality.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < frameHeaderLen {
		return Frame{}, ErrFrameTruncated
	}
	if string(data[0:4]) != string(FrameMagic[:]) {
		return Frame{}, ErrBadMagic
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != FrameVersion {
		return Frame{}, ErrUnsupportedFrameVersion
	}
	var channelID ids.Hash
	copy(channelID[:], data[6:38])
	policyTag := data[38]
	bodyLen := binary.LittleEndian.Uint32(data[39:43])
	if uint32(len(data)-frameHeaderLen) < bodyLen {
		return Frame{}, ErrFrameTruncated
	}
	body := make([]byte, bodyLen)
	copy(body, data[frameHeaderLen:frameHeaderLen+int(bodyLen)])
	return Frame{ChannelID: channelID, PolicyTag: policyTag, Body: body}, nil
}

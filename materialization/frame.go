// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package materialization

import (
	"encoding/binary"
	"errors"

	"github.com/flyingrobots/warp-core/ids"
)

// FrameMagic and FrameVersion prefix every encoded frame, frozen wire
// constants: changing either is a breaking format change.
var (
	FrameMagic   = [4]byte{'W', 'M', 'A', 'T'}
	FrameVersion = uint16(1)
)

// ErrFrameTruncated is returned by DecodeFrames when the input ends in
// the middle of a frame.
var ErrFrameTruncated = errors.New("materialization: frame truncated")

// ErrFrameBadMagic is returned by DecodeFrames when a frame's magic or
// version does not match what this build writes.
var ErrFrameBadMagic = errors.New("materialization: frame magic/version mismatch")

// MaterializationFrame is one channel's finalized bytes, tagged with its
// channel id and framed with the format's magic/version header.
type MaterializationFrame struct {
	Channel ChannelId
	Body    []byte
}

// EncodeFrames concatenates one frame per finalized channel, each shaped:
// FRAME_MAGIC(4) || FRAME_VERSION(2) || ChannelId(32) || BodyLen(8) || Body.
func EncodeFrames(channels []FinalizedChannel) []byte {
	var out []byte
	for _, c := range channels {
		out = append(out, FrameMagic[:]...)
		var verBuf [2]byte
		binary.LittleEndian.PutUint16(verBuf[:], FrameVersion)
		out = append(out, verBuf[:]...)
		idHash := ids.Hash(c.Channel)
		out = append(out, idHash[:]...)
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(c.Bytes)))
		out = append(out, lenBuf[:]...)
		out = append(out, c.Bytes...)
	}
	return out
}

// DecodeFrames parses the concatenated frame stream EncodeFrames produces.
func DecodeFrames(data []byte) ([]MaterializationFrame, error) {
	var out []MaterializationFrame
	for len(data) > 0 {
		if len(data) < 4+2+32+8 {
			return nil, ErrFrameTruncated
		}
		if string(data[:4]) != string(FrameMagic[:]) {
			return nil, ErrFrameBadMagic
		}
		ver := binary.LittleEndian.Uint16(data[4:6])
		if ver != FrameVersion {
			return nil, ErrFrameBadMagic
		}
		var chID ids.Hash
		copy(chID[:], data[6:38])
		bodyLen := binary.LittleEndian.Uint64(data[38:46])
		data = data[46:]
		if uint64(len(data)) < bodyLen {
			return nil, ErrFrameTruncated
		}
		body := data[:bodyLen]
		data = data[bodyLen:]
		out = append(out, MaterializationFrame{Channel: ChannelId(chID), Body: append([]byte(nil), body...)})
	}
	return out, nil
}

// EmissionsDigest computes the domain-separated digest fed into the commit
// hash as its emissions component: a BLAKE3 hash over the encoded frame
// stream, so two ticks whose finalized outputs agree byte-for-byte always
// produce the same emissions digest.
func EmissionsDigest(channels []FinalizedChannel) ids.Hash {
	return ids.HashBytes("materialization:emissions:v1\x00", EncodeFrames(channels))
}

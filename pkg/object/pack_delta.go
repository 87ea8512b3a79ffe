package object

import (
	"bytes"
	"fmt"
	"io"
)

// decodeDeltaVarint reads the little-endian 7-bits-per-byte size encoding
// used at the front of a delta payload. Shift starts at 0, unlike the
// pack entry header.
func decodeDeltaVarint(r io.ByteReader) (uint64, error) {
	var (
		value uint64
		shift uint
	)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("delta size varint: %w", ErrMalformedPack)
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}
		shift += 7
		if shift > 63 {
			return 0, fmt.Errorf("delta size varint too large: %w", ErrMalformedPack)
		}
	}
}

// ApplyDelta materializes a delta payload against its base and returns
// the reconstructed bytes. The payload starts with the base and result
// sizes, then copy/insert instructions until exhaustion. A copy whose
// encoded size is zero means 0x10000.
func ApplyDelta(base, delta []byte) ([]byte, error) {
	dr := bytes.NewReader(delta)

	baseSize, err := decodeDeltaVarint(dr)
	if err != nil {
		return nil, fmt.Errorf("read base size: %w", err)
	}
	if int(baseSize) != len(base) {
		return nil, fmt.Errorf("delta base size mismatch (header=%d, base=%d): %w", baseSize, len(base), ErrMalformedPack)
	}
	resultSize, err := decodeDeltaVarint(dr)
	if err != nil {
		return nil, fmt.Errorf("read result size: %w", err)
	}

	out := make([]byte, 0, resultSize)
	for dr.Len() > 0 {
		cmd, err := dr.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("delta instruction: %w", ErrMalformedPack)
		}
		if cmd&0x80 != 0 {
			offset, size, err := decodeCopyArgs(dr, cmd)
			if err != nil {
				return nil, err
			}
			if offset+size > uint64(len(base)) {
				return nil, fmt.Errorf("delta copy out of bounds (offset=%d size=%d base=%d): %w", offset, size, len(base), ErrMalformedPack)
			}
			out = append(out, base[offset:offset+size]...)
			continue
		}

		if cmd == 0 {
			return nil, fmt.Errorf("zero-length delta insert: %w", ErrMalformedPack)
		}
		insert := make([]byte, int(cmd))
		if _, err := io.ReadFull(dr, insert); err != nil {
			return nil, fmt.Errorf("delta insert truncated: %w", ErrMalformedPack)
		}
		out = append(out, insert...)
	}

	if uint64(len(out)) != resultSize {
		return nil, fmt.Errorf("delta result size mismatch (got %d, expected %d): %w", len(out), resultSize, ErrMalformedPack)
	}
	return out, nil
}

// decodeCopyArgs reads the offset and size fragments selected by the low
// 7 bits of a copy command. Offset selector bits 0..3 place bytes at
// shifts 0/8/16/24; size selector bits 4..6 at shifts 0/8/16. An encoded
// size of zero is redefined to 0x10000.
func decodeCopyArgs(r io.ByteReader, cmd byte) (uint64, uint64, error) {
	var offset, size uint64
	for i := uint(0); i < 4; i++ {
		if cmd&(1<<i) == 0 {
			continue
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("delta copy offset byte %d: %w", i, ErrMalformedPack)
		}
		offset |= uint64(b) << (8 * i)
	}
	for i := uint(0); i < 3; i++ {
		if cmd&(1<<(4+i)) == 0 {
			continue
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, fmt.Errorf("delta copy size byte %d: %w", i, ErrMalformedPack)
		}
		size |= uint64(b) << (8 * i)
	}
	if size == 0 {
		size = 0x10000
	}
	return offset, size, nil
}

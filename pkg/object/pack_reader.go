package object

import (
	"bytes"
	"crypto/sha1"
	"fmt"
)

// packRecord is one decoded pack entry. Offset is the absolute position
// of the entry header within the pack, which is what ofs-delta bases are
// named by. Exactly one of the base fields is meaningful for deltas.
type packRecord struct {
	Offset     uint64
	Type       PackObjectType
	Data       []byte
	BaseHash   Hash   // ref-delta: full hash of the base
	BaseOffset uint64 // ofs-delta: absolute offset of the base entry
}

// parsePack decodes a full pack byte stream: header, N entry records,
// and the SHA-1 trailer, which is verified against the preceding bytes.
func parsePack(data []byte) ([]packRecord, error) {
	if len(data) < packHeaderSize+HashSize {
		return nil, fmt.Errorf("pack too short (%d bytes): %w", len(data), ErrMalformedPack)
	}

	payload := data[:len(data)-HashSize]
	trailer := data[len(data)-HashSize:]
	if sum := sha1.Sum(payload); !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("pack trailer checksum mismatch: %w", ErrMalformedPack)
	}

	header, err := UnmarshalPackHeader(payload[:packHeaderSize])
	if err != nil {
		return nil, err
	}

	offset := packHeaderSize
	records := make([]packRecord, 0, header.NumObjects)
	for i := uint32(0); i < header.NumObjects; i++ {
		entryOffset := uint64(offset)
		objType, size, n, err := decodePackEntryHeader(payload[offset:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		offset += n

		rec := packRecord{Offset: entryOffset, Type: objType}
		switch objType {
		case PackCommit, PackTree, PackBlob, PackTag:
		case PackRefDelta:
			if offset+HashSize > len(payload) {
				return nil, fmt.Errorf("entry %d: truncated ref-delta base: %w", i, ErrMalformedPack)
			}
			h, err := HashFromBytes(payload[offset : offset+HashSize])
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			rec.BaseHash = h
			offset += HashSize
		case PackOfsDelta:
			distance, n, err := decodeOfsDeltaDistance(payload[offset:])
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			offset += n
			if distance == 0 || distance > entryOffset {
				return nil, fmt.Errorf("entry %d: ofs-delta distance %d out of range: %w", i, distance, ErrMalformedPack)
			}
			rec.BaseOffset = entryOffset - distance
		default:
			return nil, fmt.Errorf("entry %d: type tag %d: %w", i, uint8(objType), ErrUnknownObjectType)
		}

		if offset >= len(payload) {
			return nil, fmt.Errorf("entry %d: missing compressed payload: %w", i, ErrMalformedPack)
		}
		raw, consumed, err := DecompressZlibFrom(payload, offset)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		offset += consumed
		if uint64(len(raw)) != size {
			return nil, fmt.Errorf("entry %d: size mismatch (header=%d, decoded=%d): %w", i, size, len(raw), ErrMalformedPack)
		}
		rec.Data = raw
		records = append(records, rec)
	}

	if offset != len(payload) {
		return nil, fmt.Errorf("pack has %d trailing undecoded bytes: %w", len(payload)-offset, ErrMalformedPack)
	}
	return records, nil
}

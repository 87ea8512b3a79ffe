package object

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// CompressZlib produces a complete zlib stream at the default level.
func CompressZlib(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zlib compress close: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressZlibFrom decodes a zlib stream starting at buf[offset]. It
// returns the inflated bytes and the exact number of compressed input
// bytes consumed, including the stream trailer. Pack entries are framed
// only by the stream's own end marker, so callers advance their cursor
// by exactly the consumed count.
func DecompressZlibFrom(buf []byte, offset int) ([]byte, int, error) {
	if offset < 0 || offset >= len(buf) {
		return nil, 0, fmt.Errorf("zlib decompress: offset %d out of range (len %d)", offset, len(buf))
	}

	// bytes.Reader implements io.ByteReader, so the inflater reads no
	// further than the end of the stream and the remaining length gives
	// an exact consumed count.
	sub := bytes.NewReader(buf[offset:])
	zr, err := zlib.NewReader(sub)
	if err != nil {
		return nil, 0, fmt.Errorf("zlib decompress: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		zr.Close()
		return nil, 0, fmt.Errorf("zlib decompress: %w", err)
	}
	if err := zr.Close(); err != nil {
		return nil, 0, fmt.Errorf("zlib decompress close: %w", err)
	}

	consumed := len(buf[offset:]) - sub.Len()
	return raw, consumed, nil
}

package object

import (
	"bytes"
	"errors"
	"testing"
)

// appendDeltaVarint encodes the little-endian size varint used by delta
// payload headers.
func appendDeltaVarint(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// insertOnlyDelta encodes target as pure insert instructions against base.
func insertOnlyDelta(base, target []byte) []byte {
	var out []byte
	out = appendDeltaVarint(out, uint64(len(base)))
	out = appendDeltaVarint(out, uint64(len(target)))
	for pos := 0; pos < len(target); {
		chunk := len(target) - pos
		if chunk > 127 {
			chunk = 127
		}
		out = append(out, byte(chunk))
		out = append(out, target[pos:pos+chunk]...)
		pos += chunk
	}
	return out
}

func TestApplyDeltaInsertOnly(t *testing.T) {
	base := []byte("base bytes")
	target := bytes.Repeat([]byte("target content! "), 20)
	result, err := ApplyDelta(base, insertOnlyDelta(base, target))
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if !bytes.Equal(result, target) {
		t.Error("insert-only delta did not reproduce the target")
	}
}

func TestApplyDeltaCopyAndInsert(t *testing.T) {
	base := []byte("hello, world")

	// copy(offset=0, size=5) + insert("!") => "hello!"
	var delta []byte
	delta = appendDeltaVarint(delta, uint64(len(base)))
	delta = appendDeltaVarint(delta, 6)
	delta = append(delta, 0x80|0x10, 5) // copy, one size byte
	delta = append(delta, 1, '!')       // insert 1 byte

	result, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(result) != "hello!" {
		t.Errorf("result = %q, want %q", result, "hello!")
	}
}

func TestApplyDeltaCopyWithOffset(t *testing.T) {
	base := []byte("0123456789")

	// copy(offset=7, size=3) => "789"
	var delta []byte
	delta = appendDeltaVarint(delta, uint64(len(base)))
	delta = appendDeltaVarint(delta, 3)
	delta = append(delta, 0x80|0x01|0x10, 7, 3)

	result, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if string(result) != "789" {
		t.Errorf("result = %q, want %q", result, "789")
	}
}

func TestApplyDeltaZeroSizeCopyMeans64K(t *testing.T) {
	base := bytes.Repeat([]byte{0xab}, 0x10000)

	// A copy command with no size bytes decodes size 0, redefined to
	// 0x10000.
	var delta []byte
	delta = appendDeltaVarint(delta, uint64(len(base)))
	delta = appendDeltaVarint(delta, 0x10000)
	delta = append(delta, 0x80)

	result, err := ApplyDelta(base, delta)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if len(result) != 0x10000 {
		t.Errorf("result length = %d, want %d", len(result), 0x10000)
	}
	if !bytes.Equal(result, base) {
		t.Error("zero-size copy did not reproduce 64K of base")
	}
}

func TestApplyDeltaErrors(t *testing.T) {
	base := []byte("short base")

	t.Run("base size mismatch", func(t *testing.T) {
		var delta []byte
		delta = appendDeltaVarint(delta, 999)
		delta = appendDeltaVarint(delta, 1)
		delta = append(delta, 1, 'x')
		if _, err := ApplyDelta(base, delta); !errors.Is(err, ErrMalformedPack) {
			t.Errorf("error = %v, want ErrMalformedPack", err)
		}
	})

	t.Run("copy out of bounds", func(t *testing.T) {
		var delta []byte
		delta = appendDeltaVarint(delta, uint64(len(base)))
		delta = appendDeltaVarint(delta, 100)
		delta = append(delta, 0x80|0x10, 100) // size 100 > len(base)
		if _, err := ApplyDelta(base, delta); !errors.Is(err, ErrMalformedPack) {
			t.Errorf("error = %v, want ErrMalformedPack", err)
		}
	})

	t.Run("result size mismatch", func(t *testing.T) {
		var delta []byte
		delta = appendDeltaVarint(delta, uint64(len(base)))
		delta = appendDeltaVarint(delta, 99)
		delta = append(delta, 1, 'x')
		if _, err := ApplyDelta(base, delta); !errors.Is(err, ErrMalformedPack) {
			t.Errorf("error = %v, want ErrMalformedPack", err)
		}
	})

	t.Run("truncated insert", func(t *testing.T) {
		var delta []byte
		delta = appendDeltaVarint(delta, uint64(len(base)))
		delta = appendDeltaVarint(delta, 5)
		delta = append(delta, 5, 'x') // claims 5 literal bytes, has 1
		if _, err := ApplyDelta(base, delta); !errors.Is(err, ErrMalformedPack) {
			t.Errorf("error = %v, want ErrMalformedPack", err)
		}
	})
}

func TestDecodeDeltaVarint(t *testing.T) {
	tests := []struct {
		data []byte
		want uint64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
	}
	for _, tt := range tests {
		got, err := decodeDeltaVarint(bytes.NewReader(tt.data))
		if err != nil {
			t.Fatalf("decodeDeltaVarint(%v): %v", tt.data, err)
		}
		if got != tt.want {
			t.Errorf("decodeDeltaVarint(%v) = %d, want %d", tt.data, got, tt.want)
		}
	}

	if _, err := decodeDeltaVarint(bytes.NewReader([]byte{0x80})); !errors.Is(err, ErrMalformedPack) {
		t.Error("truncated varint should fail as malformed pack")
	}
}

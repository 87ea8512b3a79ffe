package object

import (
	"errors"
	"strings"
	"testing"
)

func TestHashObjectEmptyBlob(t *testing.T) {
	// The SHA-1 of "blob 0\x00" is a fixed point of the format.
	const want = Hash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	if got := HashObject(TypeBlob, nil); got != want {
		t.Errorf("HashObject(blob, empty) = %s, want %s", got, want)
	}
}

func TestHashObjectEmptyTree(t *testing.T) {
	const want = Hash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
	data, err := MarshalTree(&Tree{})
	if err != nil {
		t.Fatalf("MarshalTree: %v", err)
	}
	if got := HashObject(TypeTree, data); got != want {
		t.Errorf("HashObject(tree, empty) = %s, want %s", got, want)
	}
}

func TestHashObjectDeterminism(t *testing.T) {
	data := []byte("hello world")
	if HashObject(TypeBlob, data) != HashObject(TypeBlob, data) {
		t.Error("HashObject not deterministic")
	}
	if HashObject(TypeBlob, data) == HashObject(TypeCommit, data) {
		t.Error("different types should produce different hashes")
	}
}

func TestParseHash(t *testing.T) {
	valid := strings.Repeat("ab", 20)
	h, err := ParseHash(valid)
	if err != nil {
		t.Fatalf("ParseHash(%q): %v", valid, err)
	}
	if string(h) != valid {
		t.Errorf("ParseHash = %q, want %q", h, valid)
	}

	for _, bad := range []string{"", "abc", strings.Repeat("g", 40), strings.Repeat("a", 41)} {
		if _, err := ParseHash(bad); err == nil {
			t.Errorf("ParseHash(%q) succeeded, want error", bad)
		}
	}
}

func TestHashBytesRoundTrip(t *testing.T) {
	h := HashObject(TypeBlob, []byte("round trip"))
	raw, err := h.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if len(raw) != HashSize {
		t.Fatalf("Bytes length = %d, want %d", len(raw), HashSize)
	}
	back, err := HashFromBytes(raw)
	if err != nil {
		t.Fatalf("HashFromBytes: %v", err)
	}
	if back != h {
		t.Errorf("round trip = %s, want %s", back, h)
	}
}

func TestHashFromBytesWrongSize(t *testing.T) {
	if _, err := HashFromBytes(make([]byte, 19)); err == nil {
		t.Error("HashFromBytes(19 bytes) succeeded, want error")
	}
}

func TestHashShort(t *testing.T) {
	h := Hash("e69de29bb2d1d6434b8b29ae775ad8c2e48c5391")
	if got := h.Short(); got != "e69de29b" {
		t.Errorf("Short = %q, want %q", got, "e69de29b")
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	if errors.Is(ErrNotFound, ErrAmbiguousHash) {
		t.Error("ErrNotFound must not match ErrAmbiguousHash")
	}
}

package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the number of bytes in a raw SHA-1 digest.
const HashSize = 20

// hexHashLen is the length of the hex-encoded form.
const hexHashLen = 2 * HashSize

// Hash is a 40-character lowercase hex-encoded SHA-1 digest. It names an
// object by the SHA-1 of its envelope and is usable directly as a map key.
type Hash string

// HashBytes computes the raw SHA-1 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content". The
// result is the name the object is stored under.
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", objType, len(data))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ParseHash validates a 40-character lowercase hex string.
func ParseHash(s string) (Hash, error) {
	if len(s) != hexHashLen {
		return "", fmt.Errorf("parse hash %q: length %d, expected %d", s, len(s), hexHashLen)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("parse hash %q: %w", s, err)
	}
	if strings.ToLower(s) != s {
		return "", fmt.Errorf("parse hash %q: not lowercase", s)
	}
	return Hash(s), nil
}

// HashFromBytes converts a raw 20-byte digest into its hex form.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return "", fmt.Errorf("binary hash has %d bytes, expected %d", len(b), HashSize)
	}
	return Hash(hex.EncodeToString(b)), nil
}

// Bytes returns the raw 20-byte form of the hash.
func (h Hash) Bytes() ([]byte, error) {
	if len(h) != hexHashLen {
		return nil, fmt.Errorf("hash %q: length %d, expected %d", h, len(h), hexHashLen)
	}
	raw, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("hash %q: %w", h, err)
	}
	return raw, nil
}

// Short returns the first 8 hex characters, for display.
func (h Hash) Short() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}

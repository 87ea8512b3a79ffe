package object

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MakeEnvelope builds the canonical "type len\0content" byte sequence
// whose SHA-1 is the object's name.
func MakeEnvelope(objType ObjectType, data []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	out = append(out, data...)
	return out
}

// ParseEnvelope splits an envelope into its type and payload, validating
// that the declared size matches the payload length.
func ParseEnvelope(raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("parse envelope: no NUL terminator: %w", ErrMalformedObject)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	typeStr, sizeStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("parse envelope: invalid header %q: %w", header, ErrMalformedObject)
	}
	objType := ObjectType(typeStr)
	switch objType {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
	default:
		return "", nil, fmt.Errorf("parse envelope: unsupported type %q: %w", typeStr, ErrMalformedObject)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		return "", nil, fmt.Errorf("parse envelope: invalid size %q: %w", sizeStr, ErrMalformedObject)
	}
	if size != len(content) {
		return "", nil, fmt.Errorf("parse envelope: size mismatch (header=%d, actual=%d): %w", size, len(content), ErrMalformedObject)
	}
	return objType, content, nil
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// MarshalTree serializes a Tree in the canonical binary format. Entries
// are sorted by name; each entry is "mode SP name NUL" followed by the
// 20-byte binary hash, with no separator between entries.
func MarshalTree(tr *Tree) ([]byte, error) {
	sorted := make([]TreeEntry, len(tr.Entries))
	copy(sorted, tr.Entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, fmt.Errorf("marshal tree: duplicate entry %q: %w", e.Name, ErrMalformedObject)
		}
		if e.Name == "" {
			return nil, fmt.Errorf("marshal tree: empty entry name: %w", ErrMalformedObject)
		}
		raw, err := e.Hash.Bytes()
		if err != nil {
			return nil, fmt.Errorf("marshal tree: entry %q: %w", e.Name, err)
		}
		mode := e.Mode
		if mode == "" {
			mode = TreeModeFile
		}
		buf.WriteString(mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// UnmarshalTree parses a Tree from its canonical binary form.
func UnmarshalTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	for len(data) > 0 {
		spIdx := bytes.IndexByte(data, ' ')
		if spIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: truncated mode: %w", ErrMalformedObject)
		}
		mode := string(data[:spIdx])
		if _, err := strconv.ParseUint(mode, 8, 32); err != nil {
			return nil, fmt.Errorf("unmarshal tree: bad mode %q: %w", mode, ErrMalformedObject)
		}
		rest := data[spIdx+1:]

		nulIdx := bytes.IndexByte(rest, 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("unmarshal tree: truncated name: %w", ErrMalformedObject)
		}
		name := string(rest[:nulIdx])
		rest = rest[nulIdx+1:]

		if len(rest) < HashSize {
			return nil, fmt.Errorf("unmarshal tree: truncated hash for %q: %w", name, ErrMalformedObject)
		}
		h, err := HashFromBytes(rest[:HashSize])
		if err != nil {
			return nil, fmt.Errorf("unmarshal tree: entry %q: %w", name, err)
		}
		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
		data = rest[HashSize:]
	}
	return tr, nil
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H       (zero or more)
//	author A T TZ
//	committer C T TZ
//
//	message
//
// A single newline is appended after the message.
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", string(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", string(p))
	}
	fmt.Fprintf(&buf, "author %s %d %s\n", c.Author, c.AuthorTime, c.AuthorTZ)
	fmt.Fprintf(&buf, "committer %s %d %s\n", c.Committer, c.CommitTime, c.CommitterTZ)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	buf.WriteByte('\n')
	return buf.Bytes()
}

// UnmarshalCommit parses a Commit from its serialized form. Recognized
// headers are tree, parent (repeatable), author, and committer; anything
// else fails. A single trailing newline after the message is stripped.
func UnmarshalCommit(data []byte) (*Commit, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: missing header/message separator: %w", ErrMalformedObject)
	}
	header := string(data[:idx])
	message := strings.TrimSuffix(string(data[idx+2:]), "\n")

	c := &Commit{Message: message}
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: malformed header line %q: %w", line, ErrMalformedObject)
		}
		switch key {
		case "tree":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: tree: %w", err)
			}
			c.TreeHash = h
		case "parent":
			h, err := ParseHash(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: parent: %w", err)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			ident, ts, tz, err := parseIdentityLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author, c.AuthorTime, c.AuthorTZ = ident, ts, tz
		case "committer":
			ident, ts, tz, err := parseIdentityLine(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer, c.CommitTime, c.CommitterTZ = ident, ts, tz
		default:
			return nil, fmt.Errorf("unmarshal commit: unknown header key %q: %w", key, ErrMalformedObject)
		}
	}
	return c, nil
}

// parseIdentityLine splits "Name <email> unix-seconds tz" into the
// identity string, the timestamp, and the timezone.
func parseIdentityLine(val string) (string, int64, string, error) {
	gt := strings.LastIndexByte(val, '>')
	if gt < 0 || !strings.Contains(val[:gt], "<") {
		return "", 0, "", fmt.Errorf("identity %q missing <email>: %w", val, ErrMalformedObject)
	}
	ident := val[:gt+1]
	fields := strings.Fields(val[gt+1:])
	if len(fields) != 2 {
		return "", 0, "", fmt.Errorf("identity %q missing timestamp/timezone: %w", val, ErrMalformedObject)
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return "", 0, "", fmt.Errorf("identity %q: bad timestamp: %w", val, ErrMalformedObject)
	}
	return ident, ts, fields[1], nil
}

// ---------------------------------------------------------------------------
// Tag
// ---------------------------------------------------------------------------

// MarshalTag returns the tag payload verbatim.
func MarshalTag(t *Tag) []byte {
	out := make([]byte, len(t.Data))
	copy(out, t.Data)
	return out
}

// UnmarshalTag wraps the payload without interpreting it.
func UnmarshalTag(data []byte) (*Tag, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Tag{Data: out}, nil
}

package repo

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// The staging index on disk is the binary DIRC format: a 12-byte header
// (magic, version, entry count), fixed-width entries each ending in a
// NUL-terminated path padded with NULs to an 8-byte boundary measured
// from the 62-byte fixed part, and a trailing SHA-1 over everything
// before it.
const (
	indexMagic     = "DIRC"
	indexVersion   = 2
	indexEntryBase = 62 // fixed bytes before the path
)

// IndexEntry records the staged state of a single file, including the
// stat fields used to skip re-hashing unchanged files.
type IndexEntry struct {
	CTimeSec  uint32
	CTimeNano uint32
	MTimeSec  uint32
	MTimeNano uint32
	Dev       uint32
	Ino       uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      uint32
	Hash      object.Hash
	Path      string // repo-relative, forward slashes
}

// Index is the staging area, sorted by path.
type Index struct {
	Entries []*IndexEntry
}

// Get returns the entry for path, or nil.
func (ix *Index) Get(path string) *IndexEntry {
	i := sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Path >= path
	})
	if i < len(ix.Entries) && ix.Entries[i].Path == path {
		return ix.Entries[i]
	}
	return nil
}

// Set inserts or replaces the entry for its path, keeping sort order.
func (ix *Index) Set(e *IndexEntry) {
	i := sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Path >= e.Path
	})
	if i < len(ix.Entries) && ix.Entries[i].Path == e.Path {
		ix.Entries[i] = e
		return
	}
	ix.Entries = append(ix.Entries, nil)
	copy(ix.Entries[i+1:], ix.Entries[i:])
	ix.Entries[i] = e
}

// Remove deletes the entry for path if present.
func (ix *Index) Remove(path string) bool {
	i := sort.Search(len(ix.Entries), func(i int) bool {
		return ix.Entries[i].Path >= path
	})
	if i >= len(ix.Entries) || ix.Entries[i].Path != path {
		return false
	}
	ix.Entries = append(ix.Entries[:i], ix.Entries[i+1:]...)
	return true
}

func (r *Repo) indexPath() string {
	return filepath.Join(r.GitDir, "index")
}

// ReadIndex loads the staging index from .git/index. A missing file
// yields an empty index.
func (r *Repo) ReadIndex() (*Index, error) {
	data, err := os.ReadFile(r.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	ix, err := parseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return ix, nil
}

func parseIndex(data []byte) (*Index, error) {
	if len(data) < 12+object.HashSize {
		return nil, fmt.Errorf("too short (%d bytes)", len(data))
	}

	payload := data[:len(data)-object.HashSize]
	trailer := data[len(data)-object.HashSize:]
	if sum := sha1.Sum(payload); !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("trailer checksum mismatch")
	}

	if string(payload[:4]) != indexMagic {
		return nil, fmt.Errorf("bad magic %q", payload[:4])
	}
	version := binary.BigEndian.Uint32(payload[4:8])
	if version != indexVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}
	count := binary.BigEndian.Uint32(payload[8:12])

	ix := &Index{Entries: make([]*IndexEntry, 0, count)}
	offset := 12
	for i := uint32(0); i < count; i++ {
		if offset+indexEntryBase > len(payload) {
			return nil, fmt.Errorf("entry %d: truncated", i)
		}
		fixed := payload[offset:]
		e := &IndexEntry{
			CTimeSec:  binary.BigEndian.Uint32(fixed[0:4]),
			CTimeNano: binary.BigEndian.Uint32(fixed[4:8]),
			MTimeSec:  binary.BigEndian.Uint32(fixed[8:12]),
			MTimeNano: binary.BigEndian.Uint32(fixed[12:16]),
			Dev:       binary.BigEndian.Uint32(fixed[16:20]),
			Ino:       binary.BigEndian.Uint32(fixed[20:24]),
			Mode:      binary.BigEndian.Uint32(fixed[24:28]),
			UID:       binary.BigEndian.Uint32(fixed[28:32]),
			GID:       binary.BigEndian.Uint32(fixed[32:36]),
			Size:      binary.BigEndian.Uint32(fixed[36:40]),
		}
		h, err := object.HashFromBytes(fixed[40:60])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		e.Hash = h

		pathStart := offset + indexEntryBase
		nulIdx := bytes.IndexByte(payload[pathStart:], 0)
		if nulIdx < 0 {
			return nil, fmt.Errorf("entry %d: unterminated path", i)
		}
		e.Path = string(payload[pathStart : pathStart+nulIdx])

		// Entry length, path and NUL included, is padded to the next
		// multiple of 8.
		entryLen := indexEntryBase + nulIdx + 1
		entryLen = (entryLen + 7) &^ 7
		if offset+entryLen > len(payload) {
			return nil, fmt.Errorf("entry %d: truncated padding", i)
		}
		offset += entryLen
		ix.Entries = append(ix.Entries, e)
	}
	return ix, nil
}

// WriteIndex atomically writes the staging index to .git/index.
func (r *Repo) WriteIndex(ix *Index) error {
	sort.Slice(ix.Entries, func(i, j int) bool {
		return ix.Entries[i].Path < ix.Entries[j].Path
	})

	var buf bytes.Buffer
	buf.WriteString(indexMagic)
	var header [8]byte
	binary.BigEndian.PutUint32(header[0:4], indexVersion)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(ix.Entries)))
	buf.Write(header[:])

	for _, e := range ix.Entries {
		var fixed [40]byte
		binary.BigEndian.PutUint32(fixed[0:4], e.CTimeSec)
		binary.BigEndian.PutUint32(fixed[4:8], e.CTimeNano)
		binary.BigEndian.PutUint32(fixed[8:12], e.MTimeSec)
		binary.BigEndian.PutUint32(fixed[12:16], e.MTimeNano)
		binary.BigEndian.PutUint32(fixed[16:20], e.Dev)
		binary.BigEndian.PutUint32(fixed[20:24], e.Ino)
		binary.BigEndian.PutUint32(fixed[24:28], e.Mode)
		binary.BigEndian.PutUint32(fixed[28:32], e.UID)
		binary.BigEndian.PutUint32(fixed[32:36], e.GID)
		binary.BigEndian.PutUint32(fixed[36:40], e.Size)
		buf.Write(fixed[:])

		raw, err := e.Hash.Bytes()
		if err != nil {
			return fmt.Errorf("write index: entry %q: %w", e.Path, err)
		}
		buf.Write(raw)

		nameLen := len(e.Path)
		if nameLen > 0xfff {
			nameLen = 0xfff
		}
		var flags [2]byte
		binary.BigEndian.PutUint16(flags[:], uint16(nameLen))
		buf.Write(flags[:])

		buf.WriteString(e.Path)
		entryLen := indexEntryBase + len(e.Path) + 1
		pad := ((entryLen + 7) &^ 7) - entryLen + 1
		buf.Write(make([]byte, pad))
	}

	sum := sha1.Sum(buf.Bytes())
	buf.Write(sum[:])

	tmp, err := os.CreateTemp(r.GitDir, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write index: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write index: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: close: %w", err)
	}
	if err := os.Rename(tmpName, r.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write index: rename: %w", err)
	}
	return nil
}

// Add stages the given paths. Each file's content is written to the
// object store as a blob, and its index entry is refreshed with current
// stat information.
func (r *Repo) Add(paths []string) error {
	ix, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("add: read %q: %w", relPath, err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: content})
		if err != nil {
			return fmt.Errorf("add: write blob %q: %w", relPath, err)
		}

		ix.Set(indexEntryFor(relPath, blobHash, info))
	}

	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// indexEntryFor builds an index entry from a file's stat info. Only the
// portable stat fields are recorded; dev/ino/uid/gid stay zero, and the
// status stat cache does not compare them.
func indexEntryFor(relPath string, blobHash object.Hash, info os.FileInfo) *IndexEntry {
	mtime := info.ModTime()
	return &IndexEntry{
		MTimeSec:  uint32(mtime.Unix()),
		MTimeNano: uint32(mtime.Nanosecond()),
		CTimeSec:  uint32(mtime.Unix()),
		CTimeNano: uint32(mtime.Nanosecond()),
		Mode:      indexModeFromFileInfo(info),
		Size:      uint32(info.Size()),
		Hash:      blobHash,
		Path:      relPath,
	}
}

// repoRelPath canonicalizes p against the repository root, rejecting
// paths that escape it.
func (r *Repo) repoRelPath(p string) (string, error) {
	abs := p
	if !filepath.IsAbs(p) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		abs = filepath.Join(cwd, p)
	}
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside the repository", p)
	}
	return rel, nil
}

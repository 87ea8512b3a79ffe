package repo

import (
	"bytes"
	"crypto/sha1"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grit-scm/grit/pkg/object"
)

func TestIndexReadEmpty(t *testing.T) {
	r := tempRepo(t)
	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(ix.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(ix.Entries))
	}
}

func TestIndexRoundTrip(t *testing.T) {
	r := tempRepo(t)
	ix := &Index{}
	ix.Set(&IndexEntry{
		MTimeSec:  1700000000,
		MTimeNano: 123456789,
		Mode:      indexModeFile,
		Size:      42,
		Hash:      object.HashObject(object.TypeBlob, []byte("a")),
		Path:      "dir/a.txt",
	})
	ix.Set(&IndexEntry{
		Mode: indexModeExecutable,
		Size: 7,
		Hash: object.HashObject(object.TypeBlob, []byte("b")),
		Path: "b.sh",
	})

	if err := r.WriteIndex(ix); err != nil {
		t.Fatalf("WriteIndex: %v", err)
	}
	back, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if diff := cmp.Diff(ix, back); diff != "" {
		t.Errorf("index round trip mismatch (-want +got):\n%s", diff)
	}
	if back.Entries[0].Path != "b.sh" {
		t.Errorf("entries not sorted by path: %q first", back.Entries[0].Path)
	}
}

func TestIndexBinaryFormat(t *testing.T) {
	r := tempRepo(t)
	ix := &Index{}
	ix.Set(&IndexEntry{
		Mode: indexModeFile,
		Hash: object.HashObject(object.TypeBlob, []byte("payload")),
		Path: "file.txt",
	})
	if err := r.WriteIndex(ix); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(r.GitDir, "index"))
	if err != nil {
		t.Fatal(err)
	}

	if string(data[:4]) != "DIRC" {
		t.Errorf("magic = %q", data[:4])
	}

	// The trailer is the SHA-1 of everything before it.
	payload := data[:len(data)-sha1.Size]
	trailer := data[len(data)-sha1.Size:]
	if sum := sha1.Sum(payload); !bytes.Equal(sum[:], trailer) {
		t.Error("index trailer checksum is wrong")
	}

	// Entries are padded to 8-byte boundaries: header 12 + entry size.
	entryLen := len(data) - 12 - sha1.Size
	if entryLen%8 != 0 {
		t.Errorf("entry region length %d is not a multiple of 8", entryLen)
	}
}

func TestIndexRejectsCorruptTrailer(t *testing.T) {
	r := tempRepo(t)
	ix := &Index{}
	ix.Set(&IndexEntry{
		Mode: indexModeFile,
		Hash: object.HashObject(object.TypeBlob, []byte("x")),
		Path: "x",
	})
	if err := r.WriteIndex(ix); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(r.GitDir, "index")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := r.ReadIndex(); err == nil {
		t.Error("corrupted index should fail to parse")
	}
}

func TestIndexSetGetRemove(t *testing.T) {
	ix := &Index{}
	h := object.HashObject(object.TypeBlob, []byte("v"))
	ix.Set(&IndexEntry{Path: "m.txt", Hash: h})
	ix.Set(&IndexEntry{Path: "a.txt", Hash: h})
	ix.Set(&IndexEntry{Path: "z.txt", Hash: h})

	if got := ix.Get("m.txt"); got == nil || got.Path != "m.txt" {
		t.Errorf("Get(m.txt) = %+v", got)
	}
	if ix.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}

	// Replacing keeps a single entry.
	ix.Set(&IndexEntry{Path: "m.txt", Hash: h, Size: 99})
	if len(ix.Entries) != 3 {
		t.Errorf("entries = %d, want 3 after replace", len(ix.Entries))
	}
	if ix.Get("m.txt").Size != 99 {
		t.Error("replace did not take effect")
	}

	if !ix.Remove("a.txt") {
		t.Error("Remove(a.txt) = false")
	}
	if ix.Remove("a.txt") {
		t.Error("second Remove(a.txt) = true")
	}
	if len(ix.Entries) != 2 {
		t.Errorf("entries = %d, want 2 after remove", len(ix.Entries))
	}
}

func TestAddStagesFile(t *testing.T) {
	r := tempRepo(t)
	path := filepath.Join(r.RootDir, "hello.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := r.Add([]string{path}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ix, err := r.ReadIndex()
	if err != nil {
		t.Fatal(err)
	}
	e := ix.Get("hello.txt")
	if e == nil {
		t.Fatal("hello.txt not staged")
	}
	wantHash := object.HashObject(object.TypeBlob, []byte("hello\n"))
	if e.Hash != wantHash {
		t.Errorf("staged hash = %s, want %s", e.Hash, wantHash)
	}
	if !r.Store.Has(wantHash) {
		t.Error("blob not written to the store")
	}
	if e.Size != 6 {
		t.Errorf("size = %d, want 6", e.Size)
	}
}

func TestAddRejectsOutsidePaths(t *testing.T) {
	r := tempRepo(t)
	outside := filepath.Join(t.TempDir(), "outside.txt")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Add([]string{outside}); err == nil {
		t.Error("Add outside the repository should fail")
	}
}

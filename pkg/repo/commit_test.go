package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testAuthor = Identity{
	Name:  "A U Thor",
	Email: "au@example.com",
	When:  time.Unix(1700000000, 0).UTC(),
}

func writeAndAdd(t *testing.T, r *Repo, rel, content string) {
	t.Helper()
	abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := r.Add([]string{abs}); err != nil {
		t.Fatalf("Add(%s): %v", rel, err)
	}
}

func TestCommitAndLog(t *testing.T) {
	r := tempRepo(t)
	writeAndAdd(t, r, "a.txt", "first\n")

	h1, err := r.Commit("first commit", testAuthor)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// The branch ref advanced.
	got, err := r.ResolveRef("HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if got != h1 {
		t.Errorf("HEAD = %s, want %s", got, h1)
	}

	writeAndAdd(t, r, "a.txt", "second\n")
	h2, err := r.Commit("second commit", testAuthor)
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}

	entries, err := r.Log(h2, 0)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("log length = %d, want 2", len(entries))
	}
	if entries[0].Hash != h2 || entries[1].Hash != h1 {
		t.Errorf("log order = %s, %s", entries[0].Hash, entries[1].Hash)
	}
	if entries[0].Commit.Parents[0] != h1 {
		t.Error("second commit does not point at the first")
	}
	if entries[0].Commit.Message != "second commit" {
		t.Errorf("message = %q", entries[0].Commit.Message)
	}
	if entries[1].Commit.Author != "A U Thor <au@example.com>" {
		t.Errorf("author = %q", entries[1].Commit.Author)
	}
}

func TestCommitDeterministicForSameInputs(t *testing.T) {
	build := func() string {
		r := tempRepo(t)
		writeAndAdd(t, r, "x.txt", "stable content\n")
		h, err := r.Commit("msg", testAuthor)
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		return string(h)
	}
	if build() != build() {
		t.Error("identical inputs produced different commit hashes")
	}
}

func TestCommitRequiresStagedChanges(t *testing.T) {
	r := tempRepo(t)
	if _, err := r.Commit("empty", testAuthor); err == nil {
		t.Error("commit with an empty index should fail")
	}

	writeAndAdd(t, r, "a.txt", "content\n")
	if _, err := r.Commit("ok", testAuthor); err != nil {
		t.Fatal(err)
	}
	// Index unchanged since HEAD.
	if _, err := r.Commit("no-op", testAuthor); err == nil {
		t.Error("commit with no changes against HEAD should fail")
	}
}

func TestCommitRequiresIdentity(t *testing.T) {
	r := tempRepo(t)
	writeAndAdd(t, r, "a.txt", "content\n")
	if _, err := r.Commit("msg", Identity{}); err == nil {
		t.Error("commit without an identity should fail")
	}
}

func TestCreateBranch(t *testing.T) {
	r := tempRepo(t)
	writeAndAdd(t, r, "a.txt", "content\n")
	h, err := r.Commit("base", testAuthor)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.CreateBranch("feature", h); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	got, err := r.ResolveRef("refs/heads/feature")
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("feature = %s, want %s", got, h)
	}

	// A branch cannot point at a non-commit.
	blobHash, err := r.Store.Write("blob", []byte("not a commit"))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.CreateBranch("broken", blobHash); err == nil {
		t.Error("CreateBranch on a blob should fail")
	}
}

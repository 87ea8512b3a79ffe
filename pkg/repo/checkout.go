package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// Checkout switches the working directory to the state of the target,
// which may be a branch name or a commit hash (full or unique prefix).
//
// Algorithm:
//  1. Refuse if the working tree has uncommitted changes.
//  2. Resolve target: branch name first, then hash.
//  3. Read the target commit, flatten its tree.
//  4. Remove all currently tracked files.
//  5. Write every file from the target tree.
//  6. Rebuild the index to match the new tree.
//  7. Update HEAD (symbolic for a branch, detached for a hash).
func (r *Repo) Checkout(target string) error {
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	isBranch := false
	var targetHash object.Hash
	if h, err := r.ResolveRef("refs/heads/" + target); err == nil {
		targetHash = h
		isBranch = true
	} else if h, err := r.Store.ExpandPrefix(target); err == nil {
		targetHash = h
	} else {
		return fmt.Errorf("checkout: unknown target %q", target)
	}

	commit, err := r.Store.ReadCommit(targetHash)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", targetHash, err)
	}
	return r.checkoutCommit(commit, targetHash, isBranch, target)
}

// CheckoutDetached materializes the given commit without touching
// branch refs: clone uses it before the first branch ref exists.
func (r *Repo) CheckoutDetached(h object.Hash) error {
	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		return fmt.Errorf("checkout: cannot read commit %s: %w", h, err)
	}
	return r.checkoutCommit(commit, h, false, "")
}

func (r *Repo) checkoutCommit(commit *object.Commit, targetHash object.Hash, isBranch bool, branch string) error {
	targetFiles, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return fmt.Errorf("checkout: flatten target tree: %w", err)
	}

	for path := range r.trackedFiles() {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("checkout: remove %q: %w", path, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}

	ix := &Index{}
	for _, f := range targetFiles {
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return fmt.Errorf("checkout: mkdir for %q: %w", f.Path, err)
		}

		blob, err := r.Store.ReadBlob(f.Hash)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", f.Path, err)
		}
		if err := os.WriteFile(absPath, blob.Data, filePermFromTreeMode(f.Mode)); err != nil {
			return fmt.Errorf("checkout: write %q: %w", f.Path, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return fmt.Errorf("checkout: stat %q: %w", f.Path, err)
		}
		ix.Set(indexEntryFor(f.Path, f.Hash, info))
	}
	if err := r.WriteIndex(ix); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if isBranch {
		if err := r.SetHeadRef(branch); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	} else {
		if err := r.SetHeadDetached(targetHash); err != nil {
			return fmt.Errorf("checkout: %w", err)
		}
	}
	return nil
}

// ensureClean refuses to proceed when any file has uncommitted changes.
// A repository whose HEAD is an unborn branch with an empty index is
// clean by definition.
func (r *Repo) ensureClean() error {
	entries, err := r.Status()
	if err != nil {
		return fmt.Errorf("check status: %w", err)
	}
	for _, e := range entries {
		if e.IndexStatus == StatusUntracked {
			continue
		}
		if e.IndexStatus != StatusClean || e.WorkStatus != StatusClean {
			return fmt.Errorf("working tree is not clean (file %q has uncommitted changes)", e.Path)
		}
	}
	return nil
}

// trackedFiles merges paths from the HEAD tree and the index.
func (r *Repo) trackedFiles() map[string]bool {
	files := make(map[string]bool)
	for path := range r.headTreeEntries() {
		files[path] = true
	}
	if ix, err := r.ReadIndex(); err == nil {
		for _, e := range ix.Entries {
			files[e.Path] = true
		}
	}
	return files
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}

package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// ListRefs lists references under .git/refs. Names are returned relative
// to the refs root, e.g. "heads/master", "tags/v1". A non-empty prefix
// restricts the walk to that subtree.
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	root := filepath.Join(r.GitDir, "refs")
	dir := root
	if strings.TrimSpace(prefix) != "" {
		dir = filepath.Join(root, filepath.FromSlash(prefix))
	}

	refs := make(map[string]object.Hash)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		h, err := object.ParseHash(strings.TrimSpace(string(data)))
		if err != nil {
			return fmt.Errorf("ref %q: %w", name, err)
		}
		refs[name] = h
		return nil
	})
	if os.IsNotExist(err) {
		return refs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// CreateBranch points refs/heads/<name> at the given commit.
func (r *Repo) CreateBranch(name string, h object.Hash) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("create branch: name is required")
	}
	if _, err := r.Store.ReadCommit(h); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return r.UpdateRef("refs/heads/"+name, h)
}

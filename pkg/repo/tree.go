package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash object.Hash
}

// BuildTree converts the flat index entries into a hierarchy of tree
// objects, writing each to the store, and returns the root tree hash.
func (r *Repo) BuildTree(ix *Index) (object.Hash, error) {
	return r.buildTreeDir(ix, "")
}

// buildTreeDir builds the tree object for one directory prefix and
// writes it to the store.
func (r *Repo) buildTreeDir(ix *Index, prefix string) (object.Hash, error) {
	files := make(map[string]*IndexEntry)
	subdirs := make(map[string]struct{})

	for _, entry := range ix.Entries {
		var rel string
		if prefix == "" {
			rel = entry.Path
		} else {
			if !strings.HasPrefix(entry.Path, prefix+"/") {
				continue
			}
			rel = entry.Path[len(prefix)+1:]
		}

		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			files[rel] = entry
		} else {
			subdirs[rel[:slash]] = struct{}{}
		}
	}

	names := make([]string, 0, len(files)+len(subdirs))
	for name := range files {
		names = append(names, name)
	}
	for name := range subdirs {
		if _, isFile := files[name]; !isFile {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tree := &object.Tree{}
	for _, name := range names {
		if entry, isFile := files[name]; isFile {
			tree.Entries = append(tree.Entries, object.TreeEntry{
				Mode: treeModeFromIndexMode(entry.Mode),
				Name: name,
				Hash: entry.Hash,
			})
			continue
		}

		childPrefix := name
		if prefix != "" {
			childPrefix = prefix + "/" + name
		}
		subHash, err := r.buildTreeDir(ix, childPrefix)
		if err != nil {
			return "", fmt.Errorf("build tree %q: %w", childPrefix, err)
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Mode: object.TreeModeDir,
			Name: name,
			Hash: subHash,
		})
	}

	h, err := r.Store.WriteTree(tree)
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

// FlattenTree walks a tree object recursively, returning all file
// entries with their full forward-slash paths.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range tree.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
		} else {
			result = append(result, TreeFileEntry{
				Path: fullPath,
				Mode: entry.Mode,
				Hash: entry.Hash,
			})
		}
	}
	return result, nil
}

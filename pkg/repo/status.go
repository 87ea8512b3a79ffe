package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/grit-scm/grit/pkg/object"
)

// FileStatus represents the state of a file in one comparison.
type FileStatus int

const (
	StatusClean     FileStatus = iota // matches between compared areas
	StatusNew                         // in index, not in HEAD tree
	StatusModified                    // in index, different from HEAD
	StatusDeleted                     // present on one side, gone on the other
	StatusUntracked                   // on disk but not in index
	StatusDirty                       // staged but working copy differs
)

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // index vs HEAD comparison
	WorkStatus  FileStatus // working tree vs index comparison
}

// Status computes the working tree status:
//
//  1. Read the staging index.
//  2. Walk the working directory, skipping .git/ and ignored paths.
//  3. Compare working files against index entries (stat first, content
//     hash only when the stat cache misses).
//  4. Compare index entries against the HEAD tree.
func (r *Repo) Status() ([]StatusEntry, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	ic := NewIgnoreChecker(r.RootDir)

	workFiles := make(map[string]bool)
	err = filepath.WalkDir(r.RootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			workFiles[rel] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	result := make(map[string]*StatusEntry)

	// Working tree vs index.
	for path := range workFiles {
		e := ix.Get(path)
		if e == nil {
			result[path] = &StatusEntry{
				Path:        path,
				IndexStatus: StatusUntracked,
				WorkStatus:  StatusUntracked,
			}
			continue
		}

		absPath := filepath.Join(r.RootDir, filepath.FromSlash(path))
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("status: stat %q: %w", path, err)
		}
		workStatus := StatusClean
		if !indexStatMatches(e, info) {
			content, err := os.ReadFile(absPath)
			if err != nil {
				return nil, fmt.Errorf("status: read %q: %w", path, err)
			}
			workHash := object.HashObject(object.TypeBlob, content)
			if workHash != e.Hash || indexModeFromFileInfo(info) != e.Mode {
				workStatus = StatusDirty
			}
		}
		result[path] = &StatusEntry{Path: path, WorkStatus: workStatus}
	}

	// Indexed files missing from disk.
	for _, e := range ix.Entries {
		if !workFiles[e.Path] {
			result[e.Path] = &StatusEntry{Path: e.Path, WorkStatus: StatusDeleted}
		}
	}

	// Index vs HEAD.
	headEntries := r.headTreeEntries()
	for _, e := range ix.Entries {
		entry := result[e.Path]
		if entry == nil {
			entry = &StatusEntry{Path: e.Path}
			result[e.Path] = entry
		}
		head, inHead := headEntries[e.Path]
		switch {
		case !inHead:
			entry.IndexStatus = StatusNew
		case e.Hash != head.Hash || treeModeFromIndexMode(e.Mode) != head.Mode:
			entry.IndexStatus = StatusModified
		default:
			entry.IndexStatus = StatusClean
		}
	}
	for path := range headEntries {
		if ix.Get(path) == nil {
			entry := result[path]
			if entry == nil {
				entry = &StatusEntry{Path: path}
				result[path] = entry
			}
			entry.IndexStatus = StatusDeleted
		}
	}

	entries := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// headTreeEntries flattens the HEAD commit's tree into path → entry.
// A repository with no commits yields an empty map.
func (r *Repo) headTreeEntries() map[string]TreeFileEntry {
	result := make(map[string]TreeFileEntry)

	headHash, err := r.ResolveRef("HEAD")
	if err != nil {
		return result
	}
	commit, err := r.Store.ReadCommit(headHash)
	if err != nil {
		return result
	}
	files, err := r.FlattenTree(commit.TreeHash)
	if err != nil {
		return result
	}
	for _, f := range files {
		result[f.Path] = f
	}
	return result
}

const statusRacyCleanWindow = 2 * time.Second

// indexStatMatches reports whether the stat cache proves the working
// copy unchanged. Files modified within the racy-clean window are
// re-hashed: a same-second edit after staging would otherwise evade
// stat-only detection.
func indexStatMatches(e *IndexEntry, info os.FileInfo) bool {
	if indexModeFromFileInfo(info) != e.Mode {
		return false
	}
	if uint32(info.Size()) != e.Size {
		return false
	}
	mtime := info.ModTime()
	if uint32(mtime.Unix()) != e.MTimeSec || uint32(mtime.Nanosecond()) != e.MTimeNano {
		return false
	}
	if time.Since(mtime) < statusRacyCleanWindow {
		return false
	}
	return true
}

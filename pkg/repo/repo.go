// Package repo ties the object store, the staging index, and the
// reference files together under one repository root.
package repo

import "github.com/grit-scm/grit/pkg/object"

// Repo represents an opened repository. RootDir is the absolute working
// tree root, computed once when the repository is opened and used for
// all path canonicalization.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store
}

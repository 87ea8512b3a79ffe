package object

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

const (
	// Tree mode strings in Git's canonical on-wire form.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Mode is the canonical mode
// string; Hash names a blob for files and a subtree for directories.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry names a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// Tree holds a list of entries sorted by name.
type Tree struct {
	Entries []TreeEntry
}

// Commit points at a tree and zero or more parents, with authorship
// metadata. Author and Committer are identity strings of the form
// "Name <email>". Message carries the commit message without its
// trailing newline; serialization appends exactly one.
type Commit struct {
	TreeHash      Hash
	Parents       []Hash
	Author        string
	AuthorTime    int64
	AuthorTZ      string
	Committer     string
	CommitTime    int64
	CommitterTZ   string
	Message       string
}

// Tag preserves an annotated tag's payload verbatim. Tags are accepted
// during pack ingest and stored opaquely.
type Tag struct {
	Data []byte
}

package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/grit-scm/grit/pkg/object"
)

// Identity is a "Name <email>" author/committer string plus the moment
// it applies to.
type Identity struct {
	Name  string
	Email string
	When  time.Time
}

// String formats the identity the way commit headers carry it.
func (id Identity) String() string {
	return fmt.Sprintf("%s <%s>", id.Name, id.Email)
}

// TZ formats the identity's UTC offset as ±HHMM.
func (id Identity) TZ() string {
	return id.When.Format("-0700")
}

// Commit writes the index as a tree, creates a commit on top of the
// current HEAD, and advances the current branch ref (or HEAD itself
// when detached). It refuses to commit an empty index and an index
// identical to HEAD's tree.
func (r *Repo) Commit(message string, author Identity) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit: message is required")
	}
	if strings.TrimSpace(author.Name) == "" || strings.TrimSpace(author.Email) == "" {
		return "", fmt.Errorf("commit: author identity is required")
	}

	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if len(ix.Entries) == 0 {
		return "", fmt.Errorf("commit: nothing staged")
	}

	treeHash, err := r.BuildTree(ix)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	var parents []object.Hash
	if headHash, err := r.ResolveRef("HEAD"); err == nil {
		parent, err := r.Store.ReadCommit(headHash)
		if err != nil {
			return "", fmt.Errorf("commit: read HEAD commit: %w", err)
		}
		if parent.TreeHash == treeHash {
			return "", fmt.Errorf("commit: no changes against HEAD")
		}
		parents = append(parents, headHash)
	}

	commit := &object.Commit{
		TreeHash:    treeHash,
		Parents:     parents,
		Author:      author.String(),
		AuthorTime:  author.When.Unix(),
		AuthorTZ:    author.TZ(),
		Committer:   author.String(),
		CommitTime:  author.When.Unix(),
		CommitterTZ: author.TZ(),
		Message:     strings.TrimSuffix(message, "\n"),
	}
	commitHash, err := r.Store.WriteCommit(commit)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if strings.HasPrefix(head, "refs/") {
		if err := r.UpdateRef(head, commitHash); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
	} else {
		if err := r.SetHeadDetached(commitHash); err != nil {
			return "", fmt.Errorf("commit: %w", err)
		}
	}
	return commitHash, nil
}

// LogEntry is one commit in history order.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.Commit
}

// Log walks first-parent history from the given start commit. A zero
// limit walks to the root.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	cur := start
	for cur != "" {
		commit, err := r.Store.ReadCommit(cur)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		entries = append(entries, LogEntry{Hash: cur, Commit: commit})
		if limit > 0 && len(entries) >= limit {
			break
		}
		if len(commit.Parents) == 0 {
			break
		}
		cur = commit.Parents[0]
	}
	return entries, nil
}

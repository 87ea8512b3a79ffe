package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-scm/grit/pkg/object"
)

// Init creates a new repository at path: .git/ with HEAD, objects/, and
// refs/{heads,tags}/. Returns an error if .git/ already exists.
func Init(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	gitDir := filepath.Join(abs, ".git")

	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(gitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/master\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: abs,
		GitDir:  gitDir,
		Store:   object.NewStore(gitDir),
	}, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, ".git")
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				GitDir:  gitDir,
				Store:   object.NewStore(gitDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a grit repository (or any parent up to /)")
		}
		cur = parent
	}
}

// Head reads .git/HEAD. If the content starts with "ref: ", it returns
// the ref path (e.g. "refs/heads/master"); otherwise the raw content as
// a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// SetHeadRef points HEAD at the named branch symbolically.
func (r *Repo) SetHeadRef(branch string) error {
	content := "ref: refs/heads/" + branch + "\n"
	if err := os.WriteFile(filepath.Join(r.GitDir, "HEAD"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// SetHeadDetached points HEAD directly at a commit hash.
func (r *Repo) SetHeadDetached(h object.Hash) error {
	if err := os.WriteFile(filepath.Join(r.GitDir, "HEAD"), []byte(string(h)+"\n"), 0o644); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// CurrentBranch returns the short branch name HEAD points at, or an
// empty string when HEAD is detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(head, "refs/heads/") {
		return strings.TrimPrefix(head, "refs/heads/"), nil
	}
	return "", nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. "HEAD" reads HEAD; a symbolic HEAD resolves its target ref.
//  2. Names starting with "refs/" read .git/<name>.
//  3. Anything else tries "refs/heads/<name>", then "refs/tags/<name>".
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.ParseHash(head)
	}

	if strings.HasPrefix(name, "refs/") {
		return readRefFile(filepath.Join(r.GitDir, name), name)
	}

	h, err := readRefFile(filepath.Join(r.GitDir, "refs", "heads", name), name)
	if err == nil {
		return h, nil
	}
	return readRefFile(filepath.Join(r.GitDir, "refs", "tags", name), name)
}

// readRefFile reads a loose ref. The hash may or may not carry a
// trailing newline; both are accepted.
func readRefFile(path, name string) (object.Hash, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return object.ParseHash(strings.TrimSpace(string(data)))
}

// UpdateRef writes a hash to the named ref file under .git/ using
// lockfile + rename semantics. Parent directories are created as needed.
// The hash is written without a trailing newline.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	refPath := filepath.Join(r.GitDir, filepath.FromSlash(name))

	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lockPath := refPath + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	committed := false
	defer func() {
		if !committed {
			lockFile.Close()
			os.Remove(lockPath)
		}
	}()

	if _, err := lockFile.WriteString(string(h)); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	if err := os.Rename(lockPath, refPath); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	committed = true
	return nil
}

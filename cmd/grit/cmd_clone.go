package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-scm/grit/pkg/remote"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	var remoteName string
	var branch string

	cmd := &cobra.Command{
		Use:   "clone <remote-url> [directory]",
		Short: "Clone a repository over smart HTTP",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]

			dest := ""
			if len(args) == 2 {
				dest = args[1]
			} else {
				dest = defaultCloneDir(source)
			}
			if strings.TrimSpace(dest) == "" {
				return fmt.Errorf("destination directory is required")
			}
			absDest, err := filepath.Abs(dest)
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			if err := ensureEmptyDir(absDest); err != nil {
				return err
			}

			client, err := remote.NewClient(source, credentialsFromEnv())
			if err != nil {
				return err
			}

			r, err := repo.Init(absDest)
			if err != nil {
				return err
			}
			if err := r.SetRemote(remoteName, source); err != nil {
				return err
			}

			result, err := remote.Fetch(cmd.Context(), client, r.Store, branch)
			if err != nil {
				return err
			}

			if err := r.UpdateRef("refs/heads/"+result.Branch, result.Commit); err != nil {
				return err
			}

			// Materialize the working tree, then point HEAD at the branch
			// (CheckoutDetached leaves HEAD on the raw hash).
			if err := r.CheckoutDetached(result.Commit); err != nil {
				return err
			}
			if err := r.SetHeadRef(result.Branch); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cloned %s into %s (%d objects)\n", source, absDest, result.Objects)
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteName, "remote-name", "origin", "name to assign to the cloned remote")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to fetch (default "+remote.DefaultBranch+")")
	return cmd
}

// credentialsFromEnv reads basic-auth credentials from the environment.
// The remote layer itself does not know the variable names.
func credentialsFromEnv() remote.Credentials {
	return remote.Credentials{
		Username: os.Getenv("GRIT_USERNAME"),
		Password: os.Getenv("GRIT_PASSWORD"),
	}
}

// defaultCloneDir derives a destination directory from the URL's last
// path segment, dropping a .git suffix.
func defaultCloneDir(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	base := filepath.Base(strings.TrimRight(u.Path, "/"))
	base = strings.TrimSuffix(base, ".git")
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func ensureEmptyDir(path string) error {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("destination %q: %w", path, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("destination %q already exists and is not empty", path)
	}
	return nil
}

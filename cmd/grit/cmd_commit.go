package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record the staged index as a new commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			author, err := resolveIdentity(r)
			if err != nil {
				return err
			}
			h, err := r.Commit(message, author)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", h.Short(), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}

// resolveIdentity picks the author from GIT_AUTHOR_NAME/GIT_AUTHOR_EMAIL,
// falling back to the repository config.
func resolveIdentity(r *repo.Repo) (repo.Identity, error) {
	name := strings.TrimSpace(os.Getenv("GIT_AUTHOR_NAME"))
	email := strings.TrimSpace(os.Getenv("GIT_AUTHOR_EMAIL"))

	if name == "" || email == "" {
		cfg, err := r.ReadConfig()
		if err != nil {
			return repo.Identity{}, err
		}
		if name == "" {
			name = strings.TrimSpace(cfg.User.Name)
		}
		if email == "" {
			email = strings.TrimSpace(cfg.User.Email)
		}
	}
	if name == "" || email == "" {
		return repo.Identity{}, fmt.Errorf("author identity not configured (set GIT_AUTHOR_NAME and GIT_AUTHOR_EMAIL, or [user] in .git/grit.toml)")
	}
	return repo.Identity{Name: name, Email: email, When: time.Now()}, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

package main

import (
	"fmt"

	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			entries, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			clean := true
			for _, e := range entries {
				code := statusCode(e)
				if code == "" {
					continue
				}
				clean = false
				fmt.Fprintf(out, "%s %s\n", code, e.Path)
			}
			if clean {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
			}
			return nil
		},
	}
}

// statusCode renders a two-column short code: index state then worktree
// state.
func statusCode(e repo.StatusEntry) string {
	if e.IndexStatus == repo.StatusUntracked {
		return "??"
	}
	left := statusLetter(e.IndexStatus)
	right := statusLetter(e.WorkStatus)
	if left == " " && right == " " {
		return ""
	}
	return left + right
}

func statusLetter(s repo.FileStatus) string {
	switch s {
	case repo.StatusNew:
		return "A"
	case repo.StatusModified, repo.StatusDirty:
		return "M"
	case repo.StatusDeleted:
		return "D"
	default:
		return " "
	}
}

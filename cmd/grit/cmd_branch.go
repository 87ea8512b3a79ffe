package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch [name]",
		Short: "List branches or create one at HEAD",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if len(args) == 1 {
				head, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("branch: no commits yet: %w", err)
				}
				return r.CreateBranch(args[0], head)
			}

			refs, err := r.ListRefs("heads")
			if err != nil {
				return err
			}
			current, _ := r.CurrentBranch()

			names := make([]string, 0, len(refs))
			for name := range refs {
				names = append(names, strings.TrimPrefix(name, "heads/"))
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				marker := "  "
				if name == current {
					marker = "* "
				}
				fmt.Fprintf(out, "%s%s\n", marker, name)
			}
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show first-parent commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			start, err := r.ResolveRef(rev)
			if err != nil {
				if h, prefixErr := r.Store.ExpandPrefix(rev); prefixErr == nil {
					start = h
				} else {
					return err
				}
			}

			entries, err := r.Log(start, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "commit %s\n", e.Hash)
				fmt.Fprintf(out, "Author: %s\n", e.Commit.Author)
				fmt.Fprintf(out, "\n    %s\n\n", firstLine(e.Commit.Message))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits (0 = all)")
	return cmd
}

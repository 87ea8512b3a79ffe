package main

import (
	"fmt"
	"io"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLsTreeCmd() *cobra.Command {
	var nameOnly bool

	cmd := &cobra.Command{
		Use:   "ls-tree <tree-ish>",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			h, err := r.Store.ExpandPrefix(args[0])
			if err != nil {
				return err
			}

			// A commit names its tree; follow it.
			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}
			if objType == object.TypeCommit {
				commit, err := object.UnmarshalCommit(data)
				if err != nil {
					return err
				}
				h = commit.TreeHash
			}

			tree, err := r.Store.ReadTree(h)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range tree.Entries {
				if nameOnly {
					fmt.Fprintln(out, e.Name)
					continue
				}
				fmt.Fprintln(out, formatTreeEntry(e))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list only entry names")
	return cmd
}

// printTree renders raw tree payload bytes for cat-file -p.
func printTree(out io.Writer, data []byte) error {
	tree, err := object.UnmarshalTree(data)
	if err != nil {
		return err
	}
	for _, e := range tree.Entries {
		fmt.Fprintln(out, formatTreeEntry(e))
	}
	return nil
}

// formatTreeEntry renders one listing line: zero-padded mode, kind,
// hash, and name.
func formatTreeEntry(e object.TreeEntry) string {
	kind := object.TypeBlob
	if e.IsDir() {
		kind = object.TypeTree
	}
	mode := e.Mode
	for len(mode) < 6 {
		mode = "0" + mode
	}
	return fmt.Sprintf("%s %s %s\t%s", mode, kind, e.Hash, e.Name)
}

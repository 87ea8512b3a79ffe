package main

import (
	"fmt"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCatFileCmd() *cobra.Command {
	var showType, showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file (-p|-t|-s) <object>",
		Short: "Show object content, type, or size",
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
			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, objType)
			case showSize:
				fmt.Fprintln(out, len(data))
			default:
				if objType == object.TypeTree {
					return printTree(out, data)
				}
				fmt.Fprintf(out, "%s", data)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the payload size")
	return cmd
}

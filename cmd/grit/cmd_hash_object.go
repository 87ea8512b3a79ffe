package main

import (
	"fmt"
	"os"

	"github.com/grit-scm/grit/pkg/object"
	"github.com/grit-scm/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func newHashObjectCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Compute an object hash, optionally writing the blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			if !write {
				fmt.Fprintln(cmd.OutOrStdout(), object.HashObject(object.TypeBlob, content))
				return nil
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			h, err := r.Store.WriteBlob(&object.Blob{Data: content})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the blob into the object store")
	return cmd
}

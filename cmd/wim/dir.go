package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newDirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir <archive> <image>",
		Short: "List every entry of one image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := archive.Dir(args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range rows {
				if r.IsDir {
					fmt.Fprintf(out, "%12s  %s%c\n", "<DIR>", r.Path, '/')
					continue
				}
				fmt.Fprintf(out, "%12d  %s\n", r.Size, r.Path)
			}

			return nil
		},
	}

	return cmd
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <archive> <image> <target-dir>",
		Short: "Materialize one image's directory tree onto disk",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return archive.Apply(args[0], args[1], args[2])
		},
	}

	return cmd
}

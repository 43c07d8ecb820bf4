package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <archive> <max-MiB>",
		Short: "Divide an archive into a sibling split set",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxMiB, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("split: invalid max-MiB %q: %w", args[1], err)
			}

			parts, err := archive.Split(args[0], maxMiB*1024*1024)
			if err != nil {
				return err
			}

			for _, p := range parts {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}

			return nil
		},
	}

	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <archive> [<image>]",
		Short: "Verify every referenced resource against its offset-table hash (the optional image argument does not narrow the check)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := archive.Test(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "checked %d resource(s), %d corrupt, %d integrity mismatch(es)\n",
				result.Checked, len(result.Corrupt), len(result.Integrity))
			for _, h := range result.Corrupt {
				fmt.Fprintf(cmd.OutOrStdout(), "corrupt: %x\n", h[:])
			}
			if len(result.Corrupt) > 0 || len(result.Integrity) > 0 {
				return fmt.Errorf("archive: %s failed verification", args[0])
			}

			return nil
		},
	}

	return cmd
}

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <archive>",
		Short: "Print archive header-level identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := archive.Stat(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "GUID:        %s\n", hex.EncodeToString(info.GUID[:]))
			fmt.Fprintf(out, "Part:        %d of %d\n", info.PartNumber, info.TotalParts)
			fmt.Fprintf(out, "Images:      %d\n", info.ImageCount)
			fmt.Fprintf(out, "Compression: %s\n", info.Compression)
			fmt.Fprintf(out, "Read-only:   %t\n", info.ReadOnly)

			return nil
		},
	}

	return cmd
}

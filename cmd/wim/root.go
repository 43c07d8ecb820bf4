package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wim",
		Short:         "Read and write content-addressed, chunk-compressed disk-image archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCaptureCmd(),
		newAppendCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newApplyCmd(),
		newTestCmd(),
		newExportCmd(),
		newSplitCmd(),
		newInfoCmd(),
		newDirCmd(),
	)

	return root
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newCaptureCmd() *cobra.Command {
	var f writeFlags

	cmd := &cobra.Command{
		Use:   "capture <src-dir> <archive>",
		Short: "Create a new archive from a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}

			warnings, err := archive.Capture(args[1], args[0], opts...)
			printWarnings(cmd, warnings)

			return err
		},
	}
	f.register(cmd)

	return cmd
}

func newAppendCmd() *cobra.Command {
	var f writeFlags

	cmd := &cobra.Command{
		Use:   "append <src-dir> <archive>",
		Short: "Add a new image to an existing archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}

			warnings, err := archive.Append(args[1], args[0], opts...)
			printWarnings(cmd, warnings)

			return err
		},
	}
	f.register(cmd)

	return cmd
}

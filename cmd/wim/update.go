package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newUpdateCmd() *cobra.Command {
	var f writeFlags

	cmd := &cobra.Command{
		Use:   "update <src-dir> <archive> <image>",
		Short: "Replace one image with a fresh capture of a directory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := resolveIndexArg(args[1], args[2])
			if err != nil {
				return err
			}

			opts, err := f.options()
			if err != nil {
				return err
			}

			warnings, err := archive.Update(args[1], index, args[0], opts...)
			printWarnings(cmd, warnings)

			return err
		},
	}
	f.register(cmd)

	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <archive> <image>",
		Short: "Remove one image from an archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := resolveIndexArg(args[0], args[1])
			if err != nil {
				return err
			}

			return archive.Delete(args[0], index)
		},
	}

	return cmd
}

// resolveIndexArg resolves an image-id argument (numeric index or XML
// NAME, per SPEC_FULL.md's supplemented archive.ResolveImage) against
// the archive at path into the 1-based index Update/Delete take.
func resolveIndexArg(path, id string) (int, error) {
	if n, err := strconv.Atoi(id); err == nil {
		return n, nil
	}

	r, err := archive.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	img, err := archive.ResolveImage(r.Manifest, id)
	if err != nil {
		return 0, err
	}

	return img.Index, nil
}

package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
)

func newExportCmd() *cobra.Command {
	var f writeFlags

	cmd := &cobra.Command{
		Use:   "export <src-archive> <image|*> <dst-archive>",
		Short: "Copy one image and its resources into another archive",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options()
			if err != nil {
				return err
			}

			if args[1] == "*" {
				return exportAll(args[0], args[2], opts)
			}

			return archive.Export(args[0], args[1], args[2], opts...)
		},
	}
	f.register(cmd)

	return cmd
}

// exportAll exports every image in src into dst in index order, per
// spec.md §6's export command taking "<image|'*'>".
func exportAll(src, dst string, opts []archive.Option) error {
	r, err := archive.Open(src)
	if err != nil {
		return err
	}
	count := len(r.Manifest.Images)
	if cerr := r.Close(); cerr != nil {
		return cerr
	}

	for i := 1; i <= count; i++ {
		if err := archive.Export(src, strconv.Itoa(i), dst, opts...); err != nil {
			return err
		}
	}

	return nil
}

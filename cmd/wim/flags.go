package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wimpack/wim/archive"
	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/glob"
)

// writeFlags holds the flags shared by every mutating subcommand
// (capture, append, update, export), mirroring spec.md §6's
// option table.
type writeFlags struct {
	compress    string
	name        string
	description string
	exclude     []string
	excludeFile string
	check       bool
	threads     int
	threshold   string
}

func (f *writeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.compress, "compress", "xpress", "compression codec: none, xpress, or lzx")
	cmd.Flags().StringVar(&f.name, "name", "", "XML NAME for the image")
	cmd.Flags().StringVar(&f.description, "description", "", "XML DESCRIPTION for the image")
	cmd.Flags().StringArrayVar(&f.exclude, "exclude", nil, "pathname exclusion glob (repeatable)")
	cmd.Flags().StringVar(&f.excludeFile, "xf", "", "file listing exclusion globs, one per line")
	cmd.Flags().BoolVar(&f.check, "check", false, "emit the optional integrity table")
	cmd.Flags().IntVar(&f.threads, "threads", codec.DefaultWorkers, "codec pool size")
	cmd.Flags().StringVar(&f.threshold, "threshold", "", "abort-compression heuristic: size_chunks,n,ratio")
}

// options translates the parsed flags into archive.Option values.
func (f *writeFlags) options() ([]archive.Option, error) {
	kind, err := codec.ParseKind(f.compress)
	if err != nil {
		return nil, err
	}

	opts := []archive.Option{
		archive.WithCompression(kind),
		archive.WithThreads(f.threads),
		archive.WithCheck(f.check),
	}
	if f.name != "" {
		opts = append(opts, archive.WithName(f.name))
	}
	if f.description != "" {
		opts = append(opts, archive.WithDescription(f.description))
	}

	patterns := append([]string(nil), f.exclude...)
	if f.excludeFile != "" {
		fromFile, err := glob.LoadExclusionFile(f.excludeFile)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, fromFile...)
	}
	if len(patterns) > 0 {
		set, err := glob.NewExclusionSet(patterns...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, archive.WithExclusions(set))
	}

	if f.threshold != "" {
		sizeChunks, n, ratio, err := parseThreshold(f.threshold)
		if err != nil {
			return nil, err
		}
		opts = append(opts, archive.WithThreshold(sizeChunks, n, ratio))
	}

	return opts, nil
}

func parseThreshold(s string) (sizeChunks, n int, ratio float64, err error) {
	_, err = fmt.Sscanf(s, "%d,%d,%g", &sizeChunks, &n, &ratio)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("--threshold: want size_chunks,n,ratio, got %q: %w", s, err)
	}

	return sizeChunks, n, ratio, nil
}

// printWarnings writes capture/append/update's non-fatal per-item
// problems to stderr, per spec.md §7: "non-fatal per-file errors print
// to standard error but do not abort the archive transaction."
func printWarnings(cmd *cobra.Command, warnings []archive.Warning) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), w.Error())
	}
}

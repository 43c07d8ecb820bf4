package archive

// Delete removes the image at index from an existing archive, per
// spec.md §4.8 delete: decrements refcounts for every resource the
// image referenced (no compaction — resources with a fresh refcount of
// zero stay in place so later offsets remain valid) and renumbers later
// images' XML INDEX attributes down by one.
func Delete(path string, index int, opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}

	w, err := OpenForWrite(path, cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.RemoveImage(index); err != nil {
		return err
	}

	return w.Commit()
}

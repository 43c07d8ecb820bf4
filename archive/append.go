package archive

// Append adds a new image captured from sourceDir to an existing
// archive, per spec.md §4.8 append: rejects a read-only archive,
// dedupes against the existing offset table, and inserts the new image
// at the next XML index. A captured tree whose metadata resource hash
// matches one already in the archive aliases that resource instead of
// storing a duplicate (spec.md §9's image-aliasing Open Question; see
// DESIGN.md).
func Append(path, sourceDir string, opts ...Option) ([]Warning, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	w, err := OpenForWrite(path, cfg)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	index := len(w.Manifest().Images) + 1
	warnings, err := captureImage(w, cfg, sourceDir, index)
	if err != nil {
		return warnings, err
	}

	return warnings, w.Commit()
}

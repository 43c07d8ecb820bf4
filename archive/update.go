package archive

import "fmt"

// Update replaces the image at index with a fresh capture of sourceDir,
// per spec.md §4.8 update: decrefs everything the old image referenced
// — its metadata resource and every content resource its tree named —
// before capturing the replacement at the same XML index and in the
// same position among the manifest's images.
func Update(path string, index int, sourceDir string, opts ...Option) ([]Warning, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	w, err := OpenForWrite(path, cfg)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	if _, ok := w.Manifest().ImageByIndex(index); !ok {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownImage, index)
	}

	if err := w.DecrefImage(index); err != nil {
		return nil, err
	}

	warnings, err := captureImage(w, cfg, sourceDir, index)
	if err != nil {
		return warnings, err
	}

	return warnings, w.Commit()
}

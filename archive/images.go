package archive

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/wimpack/wim/dedup"
	"github.com/wimpack/wim/internal/layout"
	"github.com/wimpack/wim/internal/wimhash"
	"github.com/wimpack/wim/manifest"
	"github.com/wimpack/wim/metadata"
)

// resourceHeaderFromEntry rebuilds the wire-shaped ResourceHeader a
// dedup.Entry implies, for callers (ImageMetadataHeader, export, split)
// that need to hand it to chunkio/readFixedResource.
func resourceHeaderFromEntry(e *dedup.Entry) layout.ResourceHeader {
	return layout.ResourceHeader{
		Offset:       e.Offset,
		Size:         e.OnDiskSize,
		Flags:        e.Flags,
		OriginalSize: e.UncompressedSize,
	}
}

// imageMetadataHash decodes the hex SHA-1 an image's manifest entry
// carries in MetadataHash (see manifest.Image's doc comment and
// DESIGN.md for why this, rather than offset-table row position, is
// the source of truth for which resource is an image's metadata).
func imageMetadataHash(img *manifest.Image) (wimhash.Hash, error) {
	raw, err := hex.DecodeString(img.MetadataHash)
	if err != nil || len(raw) != wimhash.Size {
		return wimhash.Hash{}, fmt.Errorf("%w: image %d has no metadata hash", ErrCorrupt, img.Index)
	}

	return wimhash.Hash(raw), nil
}

// ImageMetadataHeader returns the resource header of the metadata
// resource belonging to the image at 1-based index.
func (r *Reader) ImageMetadataHeader(index int) (layout.ResourceHeader, error) {
	img, ok := r.Manifest.ImageByIndex(index)
	if !ok {
		return layout.ResourceHeader{}, fmt.Errorf("%w: index %d", ErrUnknownImage, index)
	}

	hash, err := imageMetadataHash(img)
	if err != nil {
		return layout.ResourceHeader{}, err
	}

	e, ok := r.Store.Lookup(hash)
	if !ok {
		return layout.ResourceHeader{}, fmt.Errorf("%w: image %d metadata resource missing from offset table", ErrCorrupt, index)
	}

	return resourceHeaderFromEntry(e), nil
}

// ImageTree parses the metadata resource tree for the image at 1-based
// index.
func (r *Reader) ImageTree(index int) (*metadata.Tree, error) {
	h, err := r.ImageMetadataHeader(index)
	if err != nil {
		return nil, err
	}

	data, err := r.resourceBytes(h)
	if err != nil {
		return nil, fmt.Errorf("archive: image %d metadata: %w", index, err)
	}

	tree, err := metadata.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("archive: image %d: %w", index, err)
	}

	return tree, nil
}

// ResolveImage resolves the command-line image-id argument spec.md §6
// leaves unspecified: either a 1-based numeric index, or an exact match
// against an image's XML NAME — the supplement documented in
// SPEC_FULL.md / DESIGN.md.
func ResolveImage(m *manifest.Manifest, id string) (*manifest.Image, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownImage, id)
	}

	if n, err := strconv.Atoi(id); err == nil {
		if img, ok := m.ImageByIndex(n); ok {
			return img, nil
		}
		return nil, fmt.Errorf("%w: index %d", ErrUnknownImage, n)
	}

	if img, ok := m.ImageByName(id); ok {
		return img, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownImage, id)
}

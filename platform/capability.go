// Package platform defines the narrow capability seam the archive core
// uses to capture and restore the file-system metadata spec.md §1
// explicitly excludes from the core: NTFS security descriptors, reparse
// points, alternate data streams, short names, and hard links.
//
// The core treats every one of these as an opaque byte blob or index
// value (spec.md §9: "the core must carry opaque blobs and index
// values, never interpret them"). This package is the seam across which
// a real, platform-specific implementation would be plugged in; Noop
// provides the portable default used by this module's own tests and by
// any caller running on a platform without native support.
package platform

import "io"

// ADS describes one alternate data stream discovered on a file, to be
// recorded as a stream entry (spec.md §3 "Stream entry").
type ADS struct {
	Name string
	Data io.Reader
}

// Capability is the narrow interface spec.md §9's Design Notes names:
// "{capture_sd, apply_sd, read_reparse, write_reparse, enumerate_ads,
// create_hardlink, create_symlink}".
type Capability interface {
	// CaptureSecurityDescriptor returns the opaque security-descriptor
	// blob for path, or nil if the platform has none to offer.
	CaptureSecurityDescriptor(path string) ([]byte, error)

	// ApplySecurityDescriptor restores a previously captured descriptor
	// blob onto path.
	ApplySecurityDescriptor(path string, descriptor []byte) error

	// ReadReparsePoint returns the reparse tag and opaque reparse data
	// blob for path, if path is a reparse point.
	ReadReparsePoint(path string) (tag uint32, data []byte, err error)

	// WriteReparsePoint recreates a reparse point at path from a
	// previously captured tag and data blob.
	WriteReparsePoint(path string, tag uint32, data []byte) error

	// EnumerateADS returns every alternate data stream attached to path.
	EnumerateADS(path string) ([]ADS, error)

	// CreateHardLink creates linkPath as a hard link to target. A
	// caller whose platform cannot hard-link must fall back to a copy
	// (spec.md §4.8 apply: "materializes a hard link ... or copy
	// fallback").
	CreateHardLink(target, linkPath string) error

	// CreateSymlink creates linkPath as a symbolic link to target.
	CreateSymlink(target, linkPath string) error
}

// noop is the portable Capability: every capture returns nothing, every
// apply is a no-op except CreateHardLink/CreateSymlink, which still need
// to produce a working file system and so call os.Link/os.Symlink.
type noop struct{}

// Noop returns a Capability that treats every capture as empty and
// every descriptor/reparse/ADS apply as a no-op, per spec.md §9.
func Noop() Capability { return noop{} }

func (noop) CaptureSecurityDescriptor(string) ([]byte, error) { return nil, nil }
func (noop) ApplySecurityDescriptor(string, []byte) error     { return nil }
func (noop) ReadReparsePoint(string) (uint32, []byte, error)  { return 0, nil, nil }
func (noop) WriteReparsePoint(string, uint32, []byte) error   { return nil }
func (noop) EnumerateADS(string) ([]ADS, error)               { return nil, nil }

// CreateHardLink and CreateSymlink still need to work portably since
// apply's directory-tree shape depends on them; os.Link/os.Symlink work
// on every platform Go supports, so the portable default delegates to
// them rather than no-op'ing out link creation entirely.
func (noop) CreateHardLink(target, linkPath string) error { return osLink(target, linkPath) }
func (noop) CreateSymlink(target, linkPath string) error  { return osSymlink(target, linkPath) }

package archive

import "errors"

// Sentinel errors, matching spec.md §7's taxonomy and the teacher's
// per-package errors.New/fmt.Errorf("%w", ...) convention rather than a
// generic error type.
var (
	// ErrReadOnly is returned when a writer transaction targets an
	// archive with the read-only header flag set (spec.md §4.8:
	// "validates read-only flag").
	ErrReadOnly = errors.New("archive: archive is read-only")

	// ErrUnknownImage is returned when an image-id argument resolves
	// to neither a valid index nor a NAME.
	ErrUnknownImage = errors.New("archive: unknown image")

	// ErrCorrupt groups integrity/codec errors surfaced at the
	// transaction layer (spec.md §7 "Integrity error"/"Codec error").
	ErrCorrupt = errors.New("archive: corrupt resource")

	// ErrSplitSetMismatch is returned when OpenSplit finds units whose
	// GUID, part numbering, or total-parts count disagree.
	ErrSplitSetMismatch = errors.New("archive: split set members disagree")

	// ErrDestinationMissing is returned when apply's target directory
	// does not exist.
	ErrDestinationMissing = errors.New("archive: destination directory missing")
)

// Warning is a non-fatal, per-item problem encountered during an
// operation (spec.md §7: "a source file unreadable during capture is
// skipped with a warning"). The core returns these as data; it does not
// log them itself (spec.md §1 excludes logging from the core).
type Warning struct {
	Path string
	Err  error
}

func (w Warning) Error() string {
	return w.Path + ": " + w.Err.Error()
}

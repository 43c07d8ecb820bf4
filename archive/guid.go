package archive

import "github.com/google/uuid"

// newGUID generates the 16-byte archive identity assigned at capture
// and preserved across every later operation and split unit (spec.md
// §3's per-archive GUID invariant).
func newGUID() [16]byte {
	return [16]byte(uuid.New())
}

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wimpack/wim/codec"
	"github.com/wimpack/wim/internal/layout"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	return root
}

// TestCaptureSingleFile is spec.md §8 scenario 1: capturing {a: "hello"}
// with --compress none yields a 5-byte file resource at offset 208,
// refcount 1, one metadata resource, and XML DIRCOUNT=0/FILECOUNT=1/
// TOTALBYTES=5.
func TestCaptureSingleFile(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "hello"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	warnings, err := Capture(out, src, WithCompression(codec.KindNone))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Manifest.Images, 1)
	img := r.Manifest.Images[0]
	assert.EqualValues(t, 0, img.DirCount)
	assert.EqualValues(t, 1, img.FileCount)
	assert.EqualValues(t, 5, img.TotalBytes)

	require.Len(t, r.OffsetRows, 2) // one content resource, one metadata resource
}

// TestCaptureDuplicateContentDedupes is spec.md §8 scenario 2: two files
// with identical content share one file resource with refcount 2.
func TestCaptureDuplicateContentDedupes(t *testing.T) {
	src := writeTree(t, map[string]string{
		"a.txt": "hello",
		"b.txt": "hello",
	})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src, WithCompression(codec.KindNone))
	require.NoError(t, err)

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	img := r.Manifest.Images[0]
	assert.EqualValues(t, 2, img.FileCount)
	assert.EqualValues(t, 10, img.TotalBytes)

	var contentRows int
	for _, row := range r.OffsetRows {
		if row.RefCount == 2 {
			contentRows++
		}
	}
	assert.Equal(t, 1, contentRows, "the two identical files must share one refcount-2 resource")
}

// TestCaptureApplyRoundTrip is spec.md §8's capture/apply round-trip law:
// applying a captured image reproduces file bytes exactly.
func TestCaptureApplyRoundTrip(t *testing.T) {
	src := writeTree(t, map[string]string{
		"a.txt":        "hello world",
		"dir/b.txt":    "nested content",
		"dir/sub/c.go": "package sub\n",
	})
	out := filepath.Join(t.TempDir(), "archive.wim")

	for _, kind := range []codec.Kind{codec.KindNone, codec.KindXpress, codec.KindLZX} {
		_, err := Capture(out, src, WithCompression(kind))
		require.NoError(t, err)

		dest := t.TempDir()
		require.NoError(t, Apply(out, "1", dest))

		for rel, want := range map[string]string{
			"a.txt":        "hello world",
			"dir/b.txt":    "nested content",
			"dir/sub/c.go": "package sub\n",
		} {
			got, err := os.ReadFile(filepath.Join(dest, rel))
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
		}

		require.NoError(t, os.Remove(out))
	}
}

// TestAppendAliasesIdenticalTree is spec.md §8 scenario 4: appending the
// same directory twice adds a second image whose metadata hash equals
// the first, without writing any new content resources.
func TestAppendAliasesIdenticalTree(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "hello"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src)
	require.NoError(t, err)

	before, err := Stat(out)
	require.NoError(t, err)

	_, err = Append(out, src)
	require.NoError(t, err)

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Manifest.Images, 2)
	assert.Equal(t, r.Manifest.Images[0].MetadataHash, r.Manifest.Images[1].MetadataHash)
	assert.EqualValues(t, before.ImageCount+1, r.Header.ImageCount)
}

// TestDeleteRenumbersImages is spec.md §8 scenario 5: deleting image 1
// from a 2-image archive leaves image count 1 with XML INDEX=1.
func TestDeleteRenumbersImages(t *testing.T) {
	src1 := writeTree(t, map[string]string{"a.txt": "one"})
	src2 := writeTree(t, map[string]string{"b.txt": "two"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src1, WithName("first"))
	require.NoError(t, err)
	_, err = Append(out, src2, WithName("second"))
	require.NoError(t, err)

	require.NoError(t, Delete(out, 1))

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Manifest.Images, 1)
	assert.Equal(t, 1, r.Manifest.Images[0].Index)
	assert.Equal(t, "second", r.Manifest.Images[0].Name)
}

// TestTestVerifiesCapturedArchive exercises archive.Test end to end: a
// freshly captured archive has zero corrupt resources.
func TestTestVerifiesCapturedArchive(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "hello", "b.txt": "goodbye"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src, WithCompression(codec.KindLZX), WithCheck(true))
	require.NoError(t, err)

	result, err := Test(out)
	require.NoError(t, err)
	assert.Empty(t, result.Corrupt)
	assert.Empty(t, result.Integrity)
	assert.Positive(t, result.Checked)
}

// TestExportIntoFreshArchiveApplies exercises export into a fresh
// destination archive and confirms the copy applies identically.
func TestExportIntoFreshArchiveApplies(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "exported content"})
	out := filepath.Join(t.TempDir(), "archive.wim")
	dst := filepath.Join(t.TempDir(), "exported.wim")

	_, err := Capture(out, src)
	require.NoError(t, err)
	require.NoError(t, Export(out, "1", dst))

	dest := t.TempDir()
	require.NoError(t, Apply(dst, "1", dest))

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "exported content", string(got))
}

// TestSplitElevatesCapForOversizedResource is spec.md §8 scenario 6:
// a split whose largest resource exceeds max-MiB still succeeds, with
// the cap elevated rather than the operation failing, and the resulting
// set reopens with one GUID and a consistent total-parts count.
func TestSplitElevatesCapForOversizedResource(t *testing.T) {
	big := make([]byte, 2*1024*1024)
	for i := range big {
		big[i] = byte(i)
	}
	src := writeTree(t, map[string]string{"big.bin": string(big)})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src, WithCompression(codec.KindNone))
	require.NoError(t, err)

	parts, err := Split(out, 1) // a 1-byte budget, far smaller than the 2 MiB resource
	require.NoError(t, err)
	assert.NotEmpty(t, parts)

	set, err := OpenSplit(parts[0])
	require.NoError(t, err)
	defer set.Close()

	assert.Len(t, set.Parts, len(parts))
	for _, p := range set.Parts {
		assert.Equal(t, set.Parts[0].Header.GUID, p.Header.GUID)
		assert.EqualValues(t, len(parts), p.Header.TotalParts)
	}
}

// TestDeleteEveryImageZeroesRefcounts is spec.md §8's round-trip law:
// capturing then deleting every image leaves image count 0 and every
// content resource's refcount at zero.
func TestDeleteEveryImageZeroesRefcounts(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "content"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src)
	require.NoError(t, err)
	require.NoError(t, Delete(out, 1))

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, r.Manifest.Images)
	for _, row := range r.OffsetRows {
		assert.Zero(t, row.RefCount)
	}
}

// TestResolveImageByName exercises the supplemented name-based image
// lookup documented in DESIGN.md's Open Question decisions.
func TestResolveImageByName(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "v"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src, WithName("golden"))
	require.NoError(t, err)

	r, err := Open(out)
	require.NoError(t, err)
	defer r.Close()

	img, err := ResolveImage(r.Manifest, "golden")
	require.NoError(t, err)
	assert.Equal(t, 1, img.Index)

	_, err = ResolveImage(r.Manifest, "nonexistent")
	assert.ErrorIs(t, err, ErrUnknownImage)
}

func TestAppendRejectsReadOnlyArchive(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "v"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src)
	require.NoError(t, err)

	r, err := Open(out)
	require.NoError(t, err)
	h := *r.Header
	r.Close()

	h.Flags |= layout.FlagReadOnly
	f, err := os.OpenFile(out, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt(h.Encode(), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Append(out, src)
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestApplyFailsOnMissingDestination(t *testing.T) {
	src := writeTree(t, map[string]string{"a.txt": "v"})
	out := filepath.Join(t.TempDir(), "archive.wim")

	_, err := Capture(out, src)
	require.NoError(t, err)

	err = Apply(out, "1", filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, ErrDestinationMissing)
}

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopCaptureReturnsEmpty(t *testing.T) {
	c := Noop()

	desc, err := c.CaptureSecurityDescriptor("/any/path")
	require.NoError(t, err)
	assert.Nil(t, desc)

	tag, data, err := c.ReadReparsePoint("/any/path")
	require.NoError(t, err)
	assert.Zero(t, tag)
	assert.Nil(t, data)

	ads, err := c.EnumerateADS("/any/path")
	require.NoError(t, err)
	assert.Nil(t, ads)
}

func TestNoopCreateHardLink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))

	link := filepath.Join(dir, "link")
	require.NoError(t, Noop().CreateHardLink(target, link))

	data, err := os.ReadFile(link)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

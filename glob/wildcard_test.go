package glob

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMatch(t *testing.T, pattern, name string) bool {
	t.Helper()
	ok, err := Match(pattern, name)
	require.NoError(t, err)
	return ok
}

func TestStarMatchesAnyRun(t *testing.T) {
	assert.True(t, mustMatch(t, "*.txt", "readme.txt"))
	assert.False(t, mustMatch(t, "*.txt", "readme.md"))
}

func TestStarExtensionMatchesLongerExtension(t *testing.T) {
	assert.True(t, mustMatch(t, "*.htm", "index.html"))
}

func TestTerminatingStarDotMatchesNoExtension(t *testing.T) {
	assert.True(t, mustMatch(t, "*.", "readme"))
	assert.False(t, mustMatch(t, "*.", "readme.txt"))
}

func TestQuestionMarkMatchesExactlyOneChar(t *testing.T) {
	assert.True(t, mustMatch(t, "a?c", "abc"))
	assert.False(t, mustMatch(t, "a?c", "ac"))
	assert.False(t, mustMatch(t, "a?c", "abbc"))
}

func TestTrailingQuestionMarksAreOptional(t *testing.T) {
	assert.True(t, mustMatch(t, "file??", "file"))
	assert.True(t, mustMatch(t, "file??", "file1"))
	assert.True(t, mustMatch(t, "file??", "file12"))
	assert.False(t, mustMatch(t, "file??", "file123"))
}

func TestOptionalExtensionAlternative(t *testing.T) {
	assert.True(t, mustMatch(t, "name.???", "name"))
	assert.True(t, mustMatch(t, "name.???", "name.a"))
	assert.True(t, mustMatch(t, "name.???", "name.abc"))
}

func TestExclusionSetMatches(t *testing.T) {
	set, err := NewExclusionSet("*.tmp", "*.log")
	require.NoError(t, err)

	assert.True(t, set.Matches("build.tmp"))
	assert.True(t, set.Matches("out.log"))
	assert.False(t, set.Matches("main.go"))
}

func TestLoadExclusionFileSkipsCommentsAndBlanks(t *testing.T) {
	r := strings.NewReader("# comment\n\n*.tmp\n  \n*.log\n")
	patterns, err := readExclusionLines(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.tmp", "*.log"}, patterns)
}

package glob

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ExclusionSet is a compiled set of wildcard patterns used to decide
// whether a capture should skip a path, per spec.md §6's
// "--exclude <glob> (repeatable), --xf <file>" flags.
type ExclusionSet struct {
	patterns []*regexpMatcher
}

type regexpMatcher struct {
	source string
	match  func(string) bool
}

// NewExclusionSet compiles patterns into an ExclusionSet.
func NewExclusionSet(patterns ...string) (*ExclusionSet, error) {
	set := &ExclusionSet{}
	for _, p := range patterns {
		re, err := Compile(p)
		if err != nil {
			return nil, err
		}
		set.patterns = append(set.patterns, &regexpMatcher{source: p, match: re.MatchString})
	}

	return set, nil
}

// Matches reports whether name matches any pattern in the set.
func (s *ExclusionSet) Matches(name string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.patterns {
		if p.match(name) {
			return true
		}
	}

	return false
}

// LoadExclusionFile reads one wildcard pattern per line from path, the
// --xf exclusion-list file spec.md §6 names: blank lines and lines
// starting with "#" are skipped.
func LoadExclusionFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("glob: open exclusion file: %w", err)
	}
	defer f.Close()

	return readExclusionLines(f)
}

func readExclusionLines(r io.Reader) ([]string, error) {
	var patterns []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("glob: read exclusion file: %w", err)
	}

	return patterns, nil
}

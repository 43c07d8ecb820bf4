// Package glob translates the OS command-prompt wildcard dialect
// spec.md §6/GLOSSARY describes into Go regular expressions, for the
// --exclude/--xf pathname exclusions spec.md §6 names.
package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// Translate converts a command-prompt wildcard pattern into the
// equivalent regular expression source (anchored, case-insensitive),
// per spec.md §6:
//
//   - "*" matches any run, except a terminating "*." matches no
//     extension, and a terminating "*.EXT" matches any extension that
//     EXT is a prefix of (including longer extensions).
//   - "?" matches exactly one non-dot character, or zero-or-one if
//     everything after it in the pattern is itself wildcards.
//   - A literal "." followed only by wildcards for the rest of the
//     pattern introduces an optional-extension alternative.
func Translate(pattern string) string {
	runes := []rune(pattern)
	n := len(runes)
	onlyWildcardAfter := make([]bool, n+1)
	onlyWildcardAfter[n] = true
	for i := n - 1; i >= 0; i-- {
		onlyWildcardAfter[i] = onlyWildcardAfter[i+1] && (runes[i] == '*' || runes[i] == '?')
	}

	var sb strings.Builder
	sb.WriteString("^")

	for i := 0; i < n; {
		c := runes[i]
		switch c {
		case '*':
			if i+2 == n && runes[i+1] == '.' {
				// terminating "*." matches no-extension.
				sb.WriteString("[^.]*")
				i = n
				continue
			}
			if i+1 < n && runes[i+1] == '.' {
				ext := string(runes[i+2:])
				if ext != "" && !strings.ContainsAny(ext, "*?") {
					sb.WriteString(".*\\.")
					sb.WriteString(regexp.QuoteMeta(ext))
					sb.WriteString("[^.]*")
					i = n
					continue
				}
			}
			sb.WriteString(".*")
			i++
		case '?':
			if onlyWildcardAfter[i+1] {
				sb.WriteString("[^.]?")
			} else {
				sb.WriteString("[^.]")
			}
			i++
		case '.':
			if i+1 == n {
				sb.WriteString("\\.?")
				i++
				continue
			}
			if onlyWildcardAfter[i+1] {
				sb.WriteString("(\\.")
				sb.WriteString(translateWildcardRun(runes[i+1:]))
				sb.WriteString(")?")
				i = n
				continue
			}
			sb.WriteString("\\.")
			i++
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}

	sb.WriteString("$")

	return sb.String()
}

// translateWildcardRun translates a run known to contain only '*' and
// '?' characters: every '?' in such a run is optional, since everything
// after each one (by construction) is itself only wildcards.
func translateWildcardRun(runes []rune) string {
	var sb strings.Builder
	for _, r := range runes {
		if r == '*' {
			sb.WriteString(".*")
		} else {
			sb.WriteString("[^.]?")
		}
	}

	return sb.String()
}

// Compile translates pattern and compiles it into a case-insensitive,
// anchored *regexp.Regexp.
func Compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + Translate(pattern))
	if err != nil {
		return nil, fmt.Errorf("glob: %q: %w", pattern, err)
	}

	return re, nil
}

// Match reports whether name matches the command-prompt wildcard
// pattern.
func Match(pattern, name string) (bool, error) {
	re, err := Compile(pattern)
	if err != nil {
		return false, err
	}

	return re.MatchString(name), nil
}

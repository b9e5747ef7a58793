package message

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches one {name} substitution token.
var tokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// Vars returns the sorted set of distinct {name} tokens used in one variant.
// Two variants use "the same variables" iff their Vars results are equal.
//
// Brace characters are only legal as part of well-formed tokens: if the
// total count of { and } runes differs from twice the token count, the
// string contains a stray or unbalanced brace and parsing fails.
func Vars(s string) ([]string, error) {
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	braces := strings.Count(s, "{") + strings.Count(s, "}")
	if braces != 2*len(matches) {
		return nil, fmt.Errorf("stray or unbalanced braces in %q", s)
	}

	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names, nil
}

// sameVars reports whether two sorted token lists are equal.
func sameVars(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

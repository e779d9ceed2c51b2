package authorization

import "strings"

const (
	patternSeparator = ":"
	wildcard         = "*"
)

// Matches reports whether a concrete resource or action string matches a
// policy pattern. Both are colon-delimited segment sequences.
//
//   - A literal segment matches only the identical candidate segment.
//   - A "*" segment matches exactly one candidate segment.
//   - A trailing wildcard in the final pattern segment (whole-segment "*" or
//     a "prefix*" form) matches that segment and all remaining candidate
//     segments, so "wonka:documents:/public/*" matches both
//     "wonka:documents:/public/readme.txt" and
//     "wonka:documents:/public/sub/readme.txt".
//
// Matching is case-sensitive with no normalization. The function is pure and
// total for any two strings.
func Matches(pattern, candidate string) bool {
	ps := strings.Split(pattern, patternSeparator)
	cs := strings.Split(candidate, patternSeparator)

	for i, p := range ps {
		last := i == len(ps)-1
		if last && strings.HasSuffix(p, wildcard) {
			// The trailing wildcard consumes this segment and everything
			// after it, but there must be at least one segment to consume.
			if len(cs) < len(ps) {
				return false
			}
			rest := strings.Join(cs[i:], patternSeparator)
			return strings.HasPrefix(rest, strings.TrimSuffix(p, wildcard))
		}
		if i >= len(cs) {
			return false
		}
		if p == wildcard {
			continue
		}
		if p != cs[i] {
			return false
		}
	}
	return len(cs) == len(ps)
}

// anyMatches reports whether any of the patterns matches the candidate
func anyMatches(patterns []string, candidate string) bool {
	for _, p := range patterns {
		if Matches(p, candidate) {
			return true
		}
	}
	return false
}

// Package parsing holds the small shared parsers used by the dialect
// extractors: combined position strings and embedded picture selection.
package parsing

import "strings"

// NumberPair parses a combined "N/M"-style string into (number, total).
//
// An empty string yields (0, 0). When a '/' separator is present the string
// is split once on its first occurrence: the left side parses into number,
// the right side into total. Without a separator the whole string parses into
// number and total stays 0. Non-numeric input parses to 0; this parser never
// fails.
func NumberPair(s string) (number, total int) {
	if s == "" {
		return 0, 0
	}
	left, right, found := strings.Cut(s, "/")
	number = leadingInt(left)
	if found {
		total = leadingInt(right)
	}
	return number, total
}

// leadingInt parses the longest run of leading ASCII digits, ignoring
// surrounding whitespace. A non-numeric prefix yields 0.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	n := 0
	seen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		seen = true
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0
		}
	}
	if !seen {
		return 0
	}
	return n
}

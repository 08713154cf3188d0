package util

import "strings"

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UniqueSymbols normalizes symbols and drops blanks and repeats, keeping first occurrence.
func UniqueSymbols(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Package textutil canonicalizes the free text found in published
// spreadsheet cells before any pattern matching runs over it.
package textutil

import "strings"

// Non-breaking space variants seen in exported sheet cells.
var nbsps = []string{" ", " ", " "}

// Unicode hyphen and minus variants mapped onto ASCII "-".
var hyphens = []string{"‐", "‑", "‒", "–", "—", "−"}

// Norm collapses every whitespace-equivalent run to a single space and trims.
// Line breaks are treated as ordinary whitespace.
func Norm(s string) string {
	if s == "" {
		return ""
	}
	for _, ch := range nbsps {
		s = strings.ReplaceAll(s, ch, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// NormLines normalizes whitespace per line while preserving line breaks.
func NormLines(s string) string {
	if s == "" {
		return ""
	}
	for _, ch := range nbsps {
		s = strings.ReplaceAll(s, ch, " ")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// UnifyHyphens maps every Unicode hyphen/minus variant to ASCII "-".
func UnifyHyphens(s string) string {
	for _, ch := range hyphens {
		s = strings.ReplaceAll(s, ch, "-")
	}
	return s
}

package snapshot

import "unicode/utf8"

// truncationMark is appended to any field cut by the per-field ceiling,
// so truncation is visually detectable downstream.
const truncationMark = "…"

// runeLen counts runes, not bytes. Budgets are rune-denominated so
// multi-byte text is not penalized.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most max runes, replacing the tail with the
// truncation mark. Idempotent: truncating an already-truncated string
// returns it unchanged, because the result never exceeds max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runeLen(s) <= max {
		return s
	}
	if max == 1 {
		return truncationMark
	}

	kept := 0
	for i := range s {
		if kept == max-1 {
			return s[:i] + truncationMark
		}
		kept++
	}
	return s // unreachable: runeLen(s) > max implies the loop returns
}

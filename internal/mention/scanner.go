// Package mention extracts @-prefixed reference mentions from raw request
// text and normalizes them into comparison keys. Pure text transformation:
// no I/O, no failure modes beyond returning an empty result.
package mention

import (
	"regexp"
	"strings"
)

// DefaultMaxMentions is the hard cap applied when callers pass max <= 0.
const DefaultMaxMentions = 5

// mentionPattern matches the marker character followed by one or more
// alphanumerics. Spaces and punctuation are deliberately excluded from the
// mention body, trading recall for zero parsing ambiguity.
var mentionPattern = regexp.MustCompile(`@[A-Za-z0-9]+`)

// Mention is a single @-span found in raw text, immutable once scanned.
type Mention struct {
	// Raw is the matched span including the @ prefix.
	Raw string

	// Offset is the byte offset of the @ in the original text.
	Offset int

	// Key is the normalized comparison key: never empty, only [a-z0-9].
	Key string
}

// ScanResult carries the extracted mentions plus an explicit account of
// anything dropped by the cap, so callers never have to guess.
type ScanResult struct {
	Mentions  []Mention
	Truncated bool
	Dropped   int
}

// NormalizeKey lower-cases s and strips every non-alphanumeric rune,
// including the @ prefix. The same normalization is applied to candidate
// display names before comparison, so lookups are always key-to-key.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Scan extracts up to max mentions from raw, left to right. Once the cap
// is reached scanning stops counting matches but emits nothing further;
// the overflow is reported via Truncated and Dropped.
func Scan(raw string, max int) ScanResult {
	if max <= 0 {
		max = DefaultMaxMentions
	}

	var result ScanResult
	if raw == "" {
		return result
	}

	for _, loc := range mentionPattern.FindAllStringIndex(raw, -1) {
		text := raw[loc[0]:loc[1]]
		key := NormalizeKey(text)
		if key == "" {
			// Cannot happen given the pattern; kept as a defensive
			// invariant so downstream never sees an empty key.
			continue
		}
		if len(result.Mentions) >= max {
			result.Dropped++
			continue
		}
		result.Mentions = append(result.Mentions, Mention{
			Raw:    text,
			Offset: loc[0],
			Key:    key,
		})
	}

	result.Truncated = result.Dropped > 0
	return result
}

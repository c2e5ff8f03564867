package notes

import (
	"regexp"
	"strings"
)

// Segment is a contiguous run of text with a highlight flag. Concatenating
// segment texts in order always reconstructs the original input exactly.
type Segment struct {
	Text      string
	Highlight bool
}

// Highlight splits text into segments marking every case-insensitive,
// non-overlapping occurrence of the needle. The needle is matched literally:
// regular-expression metacharacters carry no special meaning. Matched
// segments preserve the casing found in text, not in the needle. A needle
// that trims to empty, or that never matches, yields a single non-highlighted
// segment holding the whole input.
func Highlight(text string, needle string) []Segment {
	trimmedNeedle := strings.TrimSpace(needle)
	if trimmedNeedle == "" {
		return []Segment{{Text: text}}
	}

	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(trimmedNeedle))
	matches := pattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, len(matches)*2+1)
	cursor := 0
	for _, match := range matches {
		if match[0] > cursor {
			segments = append(segments, Segment{Text: text[cursor:match[0]]})
		}
		segments = append(segments, Segment{Text: text[match[0]:match[1]], Highlight: true})
		cursor = match[1]
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}
	return segments
}

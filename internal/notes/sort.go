package notes

import (
	"sort"
	"strings"
	"time"
)

// timestampFloor is the sentinel key for missing or unparseable timestamps,
// pushing such notes to the end of a recency ordering.
var timestampFloor = time.Unix(0, 0).UTC()

// timestampParseLayouts lists accepted input shapes, tried in order. Clients
// may send bare dates; storage always holds full RFC3339 values.
var timestampParseLayouts = []string{time.RFC3339, "2006-01-02"}

// parseTimestamp parses a note timestamp, reporting whether the value was
// usable. Failures resolve to the epoch floor rather than an error.
func parseTimestamp(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return timestampFloor, false
	}
	for _, layout := range timestampParseLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), true
		}
	}
	return timestampFloor, false
}

// recencyKey resolves the effective ordering timestamp for a note: UpdatedAt
// when parseable, else CreatedAt, else the epoch floor.
func recencyKey(note Note) time.Time {
	if parsed, ok := parseTimestamp(note.UpdatedAt); ok {
		return parsed
	}
	if parsed, ok := parseTimestamp(note.CreatedAt); ok {
		return parsed
	}
	return timestampFloor
}

// SortByRecency returns a new slice ordered most recently updated first.
// Notes with equal effective timestamps keep their relative input order, and
// the input slice is never modified.
func SortByRecency(collection []Note) []Note {
	ordered := make([]Note, len(collection))
	copy(ordered, collection)
	sort.SliceStable(ordered, func(left, right int) bool {
		return recencyKey(ordered[left]).After(recencyKey(ordered[right]))
	})
	return ordered
}

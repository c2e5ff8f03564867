package notes

import "strings"

// TagFilterAll is the active-tag sentinel meaning no chip filter is applied.
const TagFilterAll = "all"

// FilterNotes returns the subset of the collection matching the raw search
// query and the active tag selector, preserving input order. Three predicates
// are AND-combined per note: the active-tag chip (exact, case-sensitive), the
// inline tag: clause (case-insensitive), and free-text substring containment.
// The chip and the inline clause are independent; a conflicting pair
// legitimately yields an empty result.
func FilterNotes(collection []Note, rawQuery string, activeTag string) []Note {
	parsed := ParseSearchQuery(rawQuery)
	needle := strings.ToLower(strings.TrimSpace(parsed.Text))

	matched := make([]Note, 0, len(collection))
	for _, note := range collection {
		if !matchesActiveTag(note, activeTag) {
			continue
		}
		if !matchesQueryTag(note, parsed.Tag) {
			continue
		}
		if !matchesFreeText(note, needle) {
			continue
		}
		matched = append(matched, note)
	}
	return matched
}

func matchesActiveTag(note Note, activeTag string) bool {
	if activeTag == "" || activeTag == TagFilterAll {
		return true
	}
	return note.HasTag(activeTag)
}

func matchesQueryTag(note Note, queryTag string) bool {
	if queryTag == "" {
		return true
	}
	for _, tag := range note.Tags {
		if strings.EqualFold(tag, queryTag) {
			return true
		}
	}
	return false
}

func matchesFreeText(note Note, loweredNeedle string) bool {
	if loweredNeedle == "" {
		return true
	}
	haystack := strings.ToLower(note.Title + "\n" + note.Body + "\n" + strings.Join(note.Tags, " "))
	return strings.Contains(haystack, loweredNeedle)
}

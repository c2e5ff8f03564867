package notes

import "strings"

// dateTimeLayout renders the short date+time shown in note listings.
const dateTimeLayout = "Jan 2, 2006 3:04 PM"

// DisplayTitle returns the note title, or the configured fallback when the
// title is blank. The model itself never stores the fallback.
func DisplayTitle(note Note, defaults Defaults) string {
	title := strings.TrimSpace(note.Title)
	if title == "" {
		return defaults.UntitledTitle
	}
	return title
}

// Preview renders a single-line excerpt of the note body with every
// whitespace run collapsed to one space. An empty body yields the configured
// placeholder.
func Preview(note Note, defaults Defaults) string {
	collapsed := strings.TrimSpace(whitespaceRunPattern.ReplaceAllString(note.Body, " "))
	if collapsed == "" {
		return defaults.EmptyPreview
	}
	return collapsed
}

// FormatDateTime renders a timestamp as a short date+time string, or the
// configured placeholder when the value is missing or unparseable.
func FormatDateTime(timestamp string, defaults Defaults) string {
	parsed, ok := parseTimestamp(timestamp)
	if !ok {
		return defaults.MissingDateTime
	}
	return parsed.Format(dateTimeLayout)
}

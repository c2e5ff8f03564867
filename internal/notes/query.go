package notes

import (
	"regexp"
	"strings"
)

// ParsedQuery is the structured form of a raw search input: the free-text
// remainder plus an optional tag filter lifted from tag: syntax. Tag is empty
// when the query carried no usable tag clause.
type ParsedQuery struct {
	Text string
	Tag  string
}

var (
	// tagClausePattern matches the first tag: clause, either quoted
	// (tag:"deep work") or a bare whitespace-free token (tag:work). Only the
	// keyword is case-insensitive; the captured value keeps its casing.
	tagClausePattern     = regexp.MustCompile(`(?i)tag:(?:"([^"]*)"|(\S+))`)
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// ParseSearchQuery splits a raw search string into free text and an optional
// tag filter. Only the first tag: clause is honored; any later occurrences
// remain in the free text as ordinary words. An empty quoted value yields no
// tag but the matched span is still stripped.
func ParseSearchQuery(rawQuery string) ParsedQuery {
	trimmed := strings.TrimSpace(rawQuery)
	if trimmed == "" {
		return ParsedQuery{}
	}

	location := tagClausePattern.FindStringSubmatchIndex(trimmed)
	if location == nil {
		return ParsedQuery{Text: trimmed}
	}

	tagValue := ""
	if location[2] >= 0 {
		tagValue = trimmed[location[2]:location[3]]
	} else if location[4] >= 0 {
		tagValue = trimmed[location[4]:location[5]]
	}

	remainder := trimmed[:location[0]] + " " + trimmed[location[1]:]
	remainder = strings.TrimSpace(whitespaceRunPattern.ReplaceAllString(remainder, " "))

	return ParsedQuery{
		Text: remainder,
		Tag:  strings.TrimSpace(tagValue),
	}
}

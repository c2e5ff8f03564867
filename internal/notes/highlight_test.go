package notes

import (
	"strings"
	"testing"
)

func TestHighlightSplitsAroundMatch(t *testing.T) {
	segments := Highlight("Hello world", "wor")

	want := []Segment{
		{Text: "Hello "},
		{Text: "wor", Highlight: true},
		{Text: "ld"},
	}
	if len(segments) != len(want) {
		t.Fatalf("unexpected segment count: got %d want %d", len(segments), len(want))
	}
	for position, segment := range segments {
		if segment != want[position] {
			t.Fatalf("unexpected segment at %d: got %#v want %#v", position, segment, want[position])
		}
	}
}

func TestHighlightEmptyNeedleReturnsSingleSegment(t *testing.T) {
	for _, needle := range []string{"", "   ", "\t"} {
		segments := Highlight("some text", needle)
		if len(segments) != 1 || segments[0].Highlight || segments[0].Text != "some text" {
			t.Fatalf("expected single plain segment for needle %q, got %#v", needle, segments)
		}
	}

	segments := Highlight("", "")
	if len(segments) != 1 || segments[0].Text != "" || segments[0].Highlight {
		t.Fatalf("expected one empty plain segment, got %#v", segments)
	}
}

func TestHighlightIsCaseInsensitiveAndPreservesSourceCasing(t *testing.T) {
	segments := Highlight("Go GO go", "go")

	highlighted := make([]string, 0, 3)
	for _, segment := range segments {
		if segment.Highlight {
			highlighted = append(highlighted, segment.Text)
		}
	}
	if len(highlighted) != 3 {
		t.Fatalf("expected 3 highlighted segments, got %d", len(highlighted))
	}
	if highlighted[0] != "Go" || highlighted[1] != "GO" || highlighted[2] != "go" {
		t.Fatalf("expected source casing preserved, got %#v", highlighted)
	}
}

func TestHighlightTreatsNeedleLiterally(t *testing.T) {
	segments := Highlight("price (USD) and price (EUR)", "(usd)")

	matches := 0
	for _, segment := range segments {
		if segment.Highlight {
			matches++
			if segment.Text != "(USD)" {
				t.Fatalf("unexpected match text %q", segment.Text)
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one literal match, got %d", matches)
	}

	if plain := Highlight("abc", "a.c"); len(plain) != 1 || plain[0].Highlight {
		t.Fatalf("dot must not act as a wildcard, got %#v", plain)
	}
}

func TestHighlightNoMatchReturnsWholeInput(t *testing.T) {
	segments := Highlight("nothing here", "zzz")
	if len(segments) != 1 || segments[0].Highlight || segments[0].Text != "nothing here" {
		t.Fatalf("expected single plain segment, got %#v", segments)
	}
}

func TestHighlightReconstructionInvariant(t *testing.T) {
	pairs := []struct {
		text   string
		needle string
	}{
		{"Hello world", "wor"},
		{"aaaa", "aa"},
		{"Back-to-back matches", "a"},
		{"starts and ends", "s"},
		{"no match at all", "qqq"},
		{"", "needle"},
		{"unicode café naïve", "café"},
		{"metachars .*+?", ".*"},
		{"tabs\tand\nnewlines", "and"},
	}

	for _, pair := range pairs {
		segments := Highlight(pair.text, pair.needle)
		var rebuilt strings.Builder
		for _, segment := range segments {
			rebuilt.WriteString(segment.Text)
		}
		if rebuilt.String() != pair.text {
			t.Fatalf("reconstruction failed for %q/%q: got %q", pair.text, pair.needle, rebuilt.String())
		}
		for position, segment := range segments {
			if segment.Text == "" && len(segments) > 1 {
				t.Fatalf("empty interior segment at %d for %q/%q", position, pair.text, pair.needle)
			}
		}
	}
}

func TestHighlightNonOverlappingLeftToRight(t *testing.T) {
	segments := Highlight("aaaa", "aa")

	want := []Segment{
		{Text: "aa", Highlight: true},
		{Text: "aa", Highlight: true},
	}
	if len(segments) != len(want) {
		t.Fatalf("unexpected segment count: got %#v", segments)
	}
	for position, segment := range segments {
		if segment != want[position] {
			t.Fatalf("unexpected segment at %d: %#v", position, segment)
		}
	}
}

package notes

import "testing"

func TestPreviewCollapsesWhitespaceRuns(t *testing.T) {
	note := Note{Body: "  line one\n\n\tline   two  "}
	if got := Preview(note, StandardDefaults); got != "line one line two" {
		t.Fatalf("unexpected preview: %q", got)
	}
}

func TestPreviewEmptyBodyUsesPlaceholder(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t\n"} {
		note := Note{Body: body}
		if got := Preview(note, StandardDefaults); got != StandardDefaults.EmptyPreview {
			t.Fatalf("expected placeholder for body %q, got %q", body, got)
		}
	}
}

func TestDisplayTitleFallsBackWhenBlank(t *testing.T) {
	if got := DisplayTitle(Note{Title: "  Plans  "}, StandardDefaults); got != "Plans" {
		t.Fatalf("unexpected title: %q", got)
	}
	if got := DisplayTitle(Note{Title: "   "}, StandardDefaults); got != StandardDefaults.UntitledTitle {
		t.Fatalf("expected untitled fallback, got %q", got)
	}
}

func TestFormatDateTime(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		want      string
	}{
		{name: "valid", timestamp: "2025-06-15T14:30:00Z", want: "Jun 15, 2025 2:30 PM"},
		{name: "missing", timestamp: "", want: StandardDefaults.MissingDateTime},
		{name: "unparseable", timestamp: "tomorrow-ish", want: StandardDefaults.MissingDateTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDateTime(tt.timestamp, StandardDefaults); got != tt.want {
				t.Fatalf("unexpected rendering: got %q want %q", got, tt.want)
			}
		})
	}
}

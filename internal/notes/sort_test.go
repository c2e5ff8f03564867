package notes

import "testing"

func TestSortByRecencyOrdersByEffectiveTimestamp(t *testing.T) {
	collection := []Note{
		{NoteID: "a", UpdatedAt: "2025-01-02T00:00:00Z"},
		{NoteID: "b", CreatedAt: "2025-01-03T00:00:00Z"},
		{NoteID: "c", UpdatedAt: "2025-01-04T00:00:00Z", CreatedAt: "2025-01-01T00:00:00Z"},
	}

	ordered := SortByRecency(collection)

	wantOrder := []string{"c", "b", "a"}
	for position, want := range wantOrder {
		if ordered[position].NoteID != want {
			t.Fatalf("unexpected note at %d: got %s want %s", position, ordered[position].NoteID, want)
		}
	}
}

func TestSortByRecencyDoesNotMutateInput(t *testing.T) {
	collection := []Note{
		{NoteID: "a", UpdatedAt: "2025-01-02T00:00:00Z"},
		{NoteID: "b", UpdatedAt: "2025-01-04T00:00:00Z"},
	}

	_ = SortByRecency(collection)

	if collection[0].NoteID != "a" || collection[1].NoteID != "b" {
		t.Fatalf("input slice was mutated: %#v", collection)
	}
}

func TestSortByRecencyPushesUnparseableTimestampsLast(t *testing.T) {
	collection := []Note{
		{NoteID: "broken", UpdatedAt: "not-a-timestamp"},
		{NoteID: "dated", UpdatedAt: "2025-02-01T10:00:00Z"},
		{NoteID: "empty"},
	}

	ordered := SortByRecency(collection)

	if ordered[0].NoteID != "dated" {
		t.Fatalf("expected dated note first, got %s", ordered[0].NoteID)
	}
	if ordered[1].NoteID != "broken" || ordered[2].NoteID != "empty" {
		t.Fatalf("expected timestampless notes to keep input order at the end, got %#v", ordered)
	}
}

func TestSortByRecencyIsStableOnTies(t *testing.T) {
	collection := []Note{
		{NoteID: "first", UpdatedAt: "2025-03-01T08:00:00Z"},
		{NoteID: "second", UpdatedAt: "2025-03-01T08:00:00Z"},
		{NoteID: "third", UpdatedAt: "2025-03-01T08:00:00Z"},
	}

	ordered := SortByRecency(collection)

	wantOrder := []string{"first", "second", "third"}
	for position, want := range wantOrder {
		if ordered[position].NoteID != want {
			t.Fatalf("tie-break not stable at %d: got %s want %s", position, ordered[position].NoteID, want)
		}
	}
}

func TestParseTimestampAcceptsBareDates(t *testing.T) {
	parsed, ok := parseTimestamp("2025-01-02")
	if !ok {
		t.Fatalf("expected bare date to parse")
	}
	if parsed.Year() != 2025 || parsed.Month() != 1 || parsed.Day() != 2 {
		t.Fatalf("unexpected parsed value: %v", parsed)
	}
}

func TestParseTimestampFailsClosed(t *testing.T) {
	if _, ok := parseTimestamp(""); ok {
		t.Fatalf("expected empty value to be unusable")
	}
	parsed, ok := parseTimestamp("garbage")
	if ok {
		t.Fatalf("expected garbage value to be unusable")
	}
	if !parsed.Equal(timestampFloor) {
		t.Fatalf("expected epoch floor sentinel, got %v", parsed)
	}
}

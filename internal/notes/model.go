package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

// timestampLayout is the canonical wire and storage representation for note
// timestamps. Nanosecond precision keeps consecutive touches within the same
// second distinguishable.
const timestampLayout = time.RFC3339Nano

var (
	// ErrInvalidNoteID indicates that a note identifier is empty or exceeds storage bounds.
	ErrInvalidNoteID = errors.New("notes: invalid note id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("notes: invalid user id")
)

// NoteID represents a validated note identifier.
type NoteID string

// NewNoteID validates raw input and returns a NoteID.
func NewNoteID(rawInput string) (NoteID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNoteID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidNoteID, maxIdentifierLength)
	}
	return NoteID(trimmed), nil
}

// String returns the underlying string identifier.
func (id NoteID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Defaults names the fallback strings applied at the rendering edge, so tests
// and callers can assert on them instead of scattered literals.
type Defaults struct {
	UntitledTitle   string
	EmptyPreview    string
	MissingDateTime string
}

// StandardDefaults is the fallback set used by the service and HTTP layers.
var StandardDefaults = Defaults{
	UntitledTitle:   "Untitled note",
	EmptyPreview:    "No content yet",
	MissingDateTime: "—",
}

// Note models the persisted note entity. CreatedAt is assigned once and never
// changes; UpdatedAt is non-decreasing and always at or after CreatedAt.
type Note struct {
	UserID    string   `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_notes_user_updated,priority:1"`
	NoteID    string   `gorm:"column:note_id;primaryKey;size:190;not null"`
	Title     string   `gorm:"column:title;type:text;not null;default:''"`
	Body      string   `gorm:"column:body;type:text;not null;default:''"`
	Tags      []string `gorm:"column:tags;type:text;serializer:json"`
	CreatedAt string   `gorm:"column:created_at;size:64;not null;default:''"`
	UpdatedAt string   `gorm:"column:updated_at;size:64;not null;default:'';index:idx_notes_user_updated,priority:2"`
	IsDeleted bool     `gorm:"column:is_deleted;not null;default:false;index:idx_notes_user_updated,priority:3"`
	Version   int64    `gorm:"column:version;not null;default:1"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// IDProvider issues globally unique note identifiers.
type IDProvider interface {
	NewID() (string, error)
}

var errMissingIDProvider = errors.New("id provider is required")

// NewEmptyNote constructs a fresh note with a unique identifier, empty
// content, and equal creation and update timestamps.
func NewEmptyNote(provider IDProvider, clock func() time.Time) (Note, error) {
	if provider == nil {
		return Note{}, errMissingIDProvider
	}
	if clock == nil {
		clock = time.Now
	}
	identifier, err := provider.NewID()
	if err != nil {
		return Note{}, err
	}
	now := clock().UTC().Format(timestampLayout)
	return Note{
		NoteID:    identifier,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

// TouchNote returns a copy of the note with a refreshed update timestamp.
// The creation timestamp is preserved, or backfilled from the previous update
// timestamp when absent. UpdatedAt never moves backwards, even against a
// clock running behind the stored value.
func TouchNote(note Note, clock func() time.Time) Note {
	if clock == nil {
		clock = time.Now
	}
	touched := note
	now := clock().UTC()
	if strings.TrimSpace(touched.CreatedAt) == "" {
		if strings.TrimSpace(touched.UpdatedAt) != "" {
			touched.CreatedAt = touched.UpdatedAt
		} else {
			touched.CreatedAt = now.Format(timestampLayout)
		}
	}
	if previous, ok := parseTimestamp(touched.UpdatedAt); ok && now.Before(previous) {
		now = previous
	}
	touched.UpdatedAt = now.Format(timestampLayout)
	return touched
}

// HasTag reports whether the note carries the exact tag. Duplicate tags in
// the sequence are tolerated.
func (n Note) HasTag(tag string) bool {
	for _, candidate := range n.Tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

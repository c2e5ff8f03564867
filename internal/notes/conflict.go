package notes

import "time"

// OperationType enumerates supported client sync operations.
type OperationType string

const (
	// OperationTypeUpsert represents an insert or update payload.
	OperationTypeUpsert OperationType = "upsert"
	// OperationTypeDelete marks a note as deleted.
	OperationTypeDelete OperationType = "delete"
)

// ChangeRequest describes one client-side mutation offered during sync.
type ChangeRequest struct {
	NoteID       NoteID
	Operation    OperationType
	Title        string
	Body         string
	Tags         []string
	CreatedAt    string
	UpdatedAt    string
	ClientDevice string
}

// NoteChange captures an append-only audit trail for accepted sync changes.
type NoteChange struct {
	ChangeID        string        `gorm:"column:change_id;primaryKey;size:190;not null"`
	UserID          string        `gorm:"column:user_id;not null;index:idx_changes_user_time,priority:1"`
	NoteID          string        `gorm:"column:note_id;not null"`
	AppliedAt       string        `gorm:"column:applied_at;size:64;not null;index:idx_changes_user_time,priority:2"`
	ClientDevice    string        `gorm:"column:client_device;size:190;not null"`
	Operation       OperationType `gorm:"column:op;not null"`
	PreviousVersion *int64        `gorm:"column:prev_version"`
	NewVersion      *int64        `gorm:"column:new_version"`
}

// TableName provides the explicit table binding for GORM.
func (NoteChange) TableName() string {
	return "note_changes"
}

// ConflictOutcome captures the decision from resolveChange.
type ConflictOutcome struct {
	Accepted    bool
	UpdatedNote *Note
	AuditRecord *NoteChange
}

// resolveChange applies last-write-wins by update timestamp: an incoming
// change is accepted when its UpdatedAt is at least as recent as the stored
// note's effective timestamp. Ties go to the client, so a device retrying an
// autosave never loses its own write. Accepted deletes tombstone the note and
// keep its content for a later restore.
func resolveChange(existing *Note, change ChangeRequest, appliedAt time.Time) ConflictOutcome {
	if existing != nil {
		incoming, _ := parseTimestamp(change.UpdatedAt)
		if incoming.Before(recencyKey(*existing)) {
			storedCopy := *existing
			return ConflictOutcome{
				Accepted:    false,
				UpdatedNote: &storedCopy,
				AuditRecord: nil,
			}
		}
	}

	updated := Note{NoteID: change.NoteID.String()}
	previousVersion := int64(0)
	if existing != nil {
		updated = *existing
		previousVersion = existing.Version
	}

	if updated.CreatedAt == "" {
		switch {
		case change.CreatedAt != "":
			updated.CreatedAt = change.CreatedAt
		case change.UpdatedAt != "":
			updated.CreatedAt = change.UpdatedAt
		default:
			updated.CreatedAt = appliedAt.Format(timestampLayout)
		}
	}

	if change.Operation == OperationTypeDelete {
		updated.IsDeleted = true
	} else {
		updated.IsDeleted = false
		updated.Title = change.Title
		updated.Body = change.Body
		updated.Tags = change.Tags
	}

	if change.UpdatedAt != "" {
		updated.UpdatedAt = change.UpdatedAt
	} else {
		updated.UpdatedAt = appliedAt.Format(timestampLayout)
	}

	// Keep the creation timestamp at or before the update timestamp.
	createdTime, createdOK := parseTimestamp(updated.CreatedAt)
	updatedTime, updatedOK := parseTimestamp(updated.UpdatedAt)
	if createdOK && updatedOK && updatedTime.Before(createdTime) {
		updated.CreatedAt = updated.UpdatedAt
	}

	updated.Version = previousVersion + 1

	audit := &NoteChange{
		NoteID:       updated.NoteID,
		AppliedAt:    appliedAt.Format(timestampLayout),
		ClientDevice: change.ClientDevice,
		Operation:    change.Operation,
	}
	if previousVersion > 0 {
		audit.PreviousVersion = pointerTo(previousVersion)
	}
	audit.NewVersion = pointerTo(updated.Version)

	return ConflictOutcome{
		Accepted:    true,
		UpdatedNote: &updated,
		AuditRecord: audit,
	}
}

func pointerTo(value int64) *int64 {
	v := value
	return &v
}

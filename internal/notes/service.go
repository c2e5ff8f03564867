package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingUserID   = errors.New("user identifier is required")
	// ErrNoteNotFound indicates the requested note does not exist for the user.
	ErrNoteNotFound = errors.New("notes: note not found")
	noOpLogger      = zap.NewNop()
)

// ServiceError carries a dotted operation code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "notes.service.new"
	opCreateNote   = "notes.create_note"
	opUpdateNote   = "notes.update_note"
	opDeleteNote   = "notes.delete_note"
	opGetNote      = "notes.get_note"
	opListNotes    = "notes.list_notes"
	opSearchNotes  = "notes.search_notes"
	opApplyChanges = "notes.apply_changes"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies required by the notes service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service persists notes and runs the query engines over a user's collection.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CreateNote persists a fresh empty note for the user and returns it.
func (s *Service) CreateNote(ctx context.Context, userID UserID) (Note, error) {
	if s.db == nil {
		s.logError(opCreateNote, "missing_database", errMissingDatabase)
		return Note{}, newServiceError(opCreateNote, "missing_database", errMissingDatabase)
	}

	created, err := NewEmptyNote(s.idProvider, s.clock)
	if err != nil {
		s.logError(opCreateNote, "id_generation_failed", err, zap.String("user_id", userID.String()))
		return Note{}, newServiceError(opCreateNote, "id_generation_failed", err)
	}
	created.UserID = userID.String()

	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		s.logError(opCreateNote, "insert_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("note_id", created.NoteID))
		return Note{}, newServiceError(opCreateNote, "insert_failed", err)
	}

	return created, nil
}

// UpdateRequest carries the editable fields of a note.
type UpdateRequest struct {
	NoteID NoteID
	Title  string
	Body   string
	Tags   []string
}

// UpdateNote replaces the note's content and refreshes its update timestamp.
func (s *Service) UpdateNote(ctx context.Context, userID UserID, request UpdateRequest) (Note, error) {
	if s.db == nil {
		s.logError(opUpdateNote, "missing_database", errMissingDatabase)
		return Note{}, newServiceError(opUpdateNote, "missing_database", errMissingDatabase)
	}

	var updated Note
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.takeNote(tx, userID, request.NoteID)
		if err != nil {
			return err
		}

		existing.Title = request.Title
		existing.Body = request.Body
		existing.Tags = request.Tags
		touched := TouchNote(existing, s.clock)
		touched.Version = existing.Version + 1

		if err := tx.Save(&touched).Error; err != nil {
			s.logError(opUpdateNote, "save_failed", err,
				zap.String("user_id", userID.String()),
				zap.String("note_id", request.NoteID.String()))
			return newServiceError(opUpdateNote, "save_failed", err)
		}
		updated = touched
		return nil
	})
	if txErr != nil {
		return Note{}, txErr
	}
	return updated, nil
}

// DeleteNote tombstones the note so sync clients observe the removal.
func (s *Service) DeleteNote(ctx context.Context, userID UserID, noteID NoteID) error {
	if s.db == nil {
		s.logError(opDeleteNote, "missing_database", errMissingDatabase)
		return newServiceError(opDeleteNote, "missing_database", errMissingDatabase)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.takeNote(tx, userID, noteID)
		if err != nil {
			return err
		}

		tombstoned := TouchNote(existing, s.clock)
		tombstoned.IsDeleted = true
		tombstoned.Version = existing.Version + 1

		if err := tx.Save(&tombstoned).Error; err != nil {
			s.logError(opDeleteNote, "save_failed", err,
				zap.String("user_id", userID.String()),
				zap.String("note_id", noteID.String()))
			return newServiceError(opDeleteNote, "save_failed", err)
		}
		return nil
	})
}

// GetNote loads a single live note for the user.
func (s *Service) GetNote(ctx context.Context, userID UserID, noteID NoteID) (Note, error) {
	if s.db == nil {
		s.logError(opGetNote, "missing_database", errMissingDatabase)
		return Note{}, newServiceError(opGetNote, "missing_database", errMissingDatabase)
	}

	var note Note
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND note_id = ? AND is_deleted = ?", userID.String(), noteID.String(), false).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, newServiceError(opGetNote, "not_found", ErrNoteNotFound)
	}
	if err != nil {
		s.logError(opGetNote, "query_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("note_id", noteID.String()))
		return Note{}, newServiceError(opGetNote, "query_failed", err)
	}
	return note, nil
}

// ListNotes returns the user's live notes ordered most recently updated first.
func (s *Service) ListNotes(ctx context.Context, userID string) ([]Note, error) {
	if s.db == nil {
		s.logError(opListNotes, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListNotes, "missing_database", errMissingDatabase)
	}
	if userID == "" {
		s.logError(opListNotes, "missing_user_id", errMissingUserID)
		return nil, newServiceError(opListNotes, "missing_user_id", errMissingUserID)
	}

	var collection []Note
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Find(&collection).Error; err != nil {
		s.logError(opListNotes, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opListNotes, "query_failed", err)
	}

	return SortByRecency(collection), nil
}

// SearchNotes loads the user's live notes and runs the filter and sort
// engines over them: parsed tag: clause, active-tag chip, free-text match,
// then recency ordering.
func (s *Service) SearchNotes(ctx context.Context, userID string, rawQuery string, activeTag string) ([]Note, error) {
	if s.db == nil {
		s.logError(opSearchNotes, "missing_database", errMissingDatabase)
		return nil, newServiceError(opSearchNotes, "missing_database", errMissingDatabase)
	}
	if userID == "" {
		s.logError(opSearchNotes, "missing_user_id", errMissingUserID)
		return nil, newServiceError(opSearchNotes, "missing_user_id", errMissingUserID)
	}

	var collection []Note
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Find(&collection).Error; err != nil {
		s.logError(opSearchNotes, "query_failed", err, zap.String("user_id", userID))
		return nil, newServiceError(opSearchNotes, "query_failed", err)
	}

	return SortByRecency(FilterNotes(collection, rawQuery, activeTag)), nil
}

// ChangeOutcome pairs an offered change with its resolution.
type ChangeOutcome struct {
	Request ChangeRequest
	Outcome ConflictOutcome
}

// SyncResult reports per-change outcomes for a sync batch.
type SyncResult struct {
	ChangeOutcomes []ChangeOutcome
}

// ApplyChanges applies a batch of client changes in one transaction, using
// last-write-wins resolution per note, and records an audit row for every
// accepted change.
func (s *Service) ApplyChanges(ctx context.Context, userID UserID, changes []ChangeRequest) (SyncResult, error) {
	if s.db == nil {
		s.logError(opApplyChanges, "missing_database", errMissingDatabase)
		return SyncResult{}, newServiceError(opApplyChanges, "missing_database", errMissingDatabase)
	}
	if s.idProvider == nil {
		s.logError(opApplyChanges, "missing_id_provider", errMissingIDProvider)
		return SyncResult{}, newServiceError(opApplyChanges, "missing_id_provider", errMissingIDProvider)
	}

	result := SyncResult{ChangeOutcomes: make([]ChangeOutcome, 0, len(changes))}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, change := range changes {
			var existing Note
			var existingPtr *Note
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND note_id = ?", userID.String(), change.NoteID.String()).
				Take(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				existingPtr = nil
			} else if err != nil {
				s.logError(opApplyChanges, "note_select_failed", err,
					zap.String("user_id", userID.String()),
					zap.String("note_id", change.NoteID.String()))
				return newServiceError(opApplyChanges, "note_select_failed", err)
			} else {
				existingPtr = &existing
			}

			appliedAt := s.clock().UTC()
			outcome := resolveChange(existingPtr, change, appliedAt)

			if outcome.Accepted {
				outcome.UpdatedNote.UserID = userID.String()
				outcome.UpdatedNote.NoteID = change.NoteID.String()

				if err := tx.Save(outcome.UpdatedNote).Error; err != nil {
					s.logError(opApplyChanges, "note_save_failed", err,
						zap.String("user_id", userID.String()),
						zap.String("note_id", change.NoteID.String()))
					return newServiceError(opApplyChanges, "note_save_failed", err)
				}

				if outcome.AuditRecord != nil {
					changeID, err := s.idProvider.NewID()
					if err != nil {
						s.logError(opApplyChanges, "id_generation_failed", err,
							zap.String("user_id", userID.String()),
							zap.String("note_id", change.NoteID.String()))
						return newServiceError(opApplyChanges, "id_generation_failed", err)
					}
					outcome.AuditRecord.ChangeID = changeID
					outcome.AuditRecord.UserID = userID.String()
					outcome.AuditRecord.NoteID = change.NoteID.String()
					if err := tx.Create(outcome.AuditRecord).Error; err != nil {
						s.logError(opApplyChanges, "audit_insert_failed", err,
							zap.String("user_id", userID.String()),
							zap.String("note_id", change.NoteID.String()))
						return newServiceError(opApplyChanges, "audit_insert_failed", err)
					}
				}
			}

			result.ChangeOutcomes = append(result.ChangeOutcomes, ChangeOutcome{
				Request: change,
				Outcome: outcome,
			})
		}
		return nil
	})

	if txErr != nil {
		return SyncResult{}, txErr
	}

	return result, nil
}

func (s *Service) takeNote(tx *gorm.DB, userID UserID, noteID NoteID) (Note, error) {
	var note Note
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND note_id = ? AND is_deleted = ?", userID.String(), noteID.String(), false).
		Take(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Note{}, newServiceError(opUpdateNote, "not_found", ErrNoteNotFound)
	}
	if err != nil {
		s.logError(opUpdateNote, "note_select_failed", err,
			zap.String("user_id", userID.String()),
			zap.String("note_id", noteID.String()))
		return Note{}, newServiceError(opUpdateNote, "note_select_failed", err)
	}
	return note, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("notes service error", attrs...)
}

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/scribelabs/scribe/internal/notes"
	"go.uber.org/zap"
)

const userIDContextKey = "scribe_user_id"

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingNotesService  = errors.New("notes service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// SessionTokenManager mints and validates sync-session tokens.
type SessionTokenManager interface {
	IssueSessionToken(ctx context.Context, subject string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

// Dependencies lists the collaborators required by the HTTP handler.
type Dependencies struct {
	TokenManager SessionTokenManager
	NotesService *notes.Service
	Events       *EventDispatcher
	Logger       *zap.Logger
}

// NewHTTPHandler wires the notes API routes onto a gin engine.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	events := deps.Events
	if events == nil {
		events = NewEventDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:       deps.TokenManager,
		notesService: deps.NotesService,
		events:       events,
		defaults:     notes.StandardDefaults,
		logger:       logger,
	}

	router.POST("/session", handler.handleCreateSession)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/notes", handler.handleListNotes)
	protected.GET("/notes/search", handler.handleSearchNotes)
	protected.POST("/notes", handler.handleCreateNote)
	protected.PUT("/notes/:id", handler.handleUpdateNote)
	protected.DELETE("/notes/:id", handler.handleDeleteNote)
	protected.POST("/notes/sync", handler.handleNotesSync)
	protected.GET("/notes/events", handler.handleNoteEvents)

	return router, nil
}

type httpHandler struct {
	tokens       SessionTokenManager
	notesService *notes.Service
	events       *EventDispatcher
	defaults     notes.Defaults
	logger       *zap.Logger
}

type sessionRequestPayload struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleCreateSession(c *gin.Context) {
	var request sessionRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	token, expiresIn, err := h.tokens.IssueSessionToken(c.Request.Context(), strings.TrimSpace(request.UserID))
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

type notePayload struct {
	NoteID    string   `json:"note_id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Version   int64    `json:"version"`
}

type segmentPayload struct {
	Text      string `json:"text"`
	Highlight bool   `json:"highlight"`
}

type searchResultPayload struct {
	Note           notePayload      `json:"note"`
	DisplayTitle   string           `json:"display_title"`
	Preview        string           `json:"preview"`
	UpdatedDisplay string           `json:"updated_display"`
	TitleSegments  []segmentPayload `json:"title_segments"`
	BodySegments   []segmentPayload `json:"body_segments"`
}

func toNotePayload(note notes.Note) notePayload {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return notePayload{
		NoteID:    note.NoteID,
		Title:     note.Title,
		Body:      note.Body,
		Tags:      tags,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		Version:   note.Version,
	}
}

func toSegmentPayloads(segments []notes.Segment) []segmentPayload {
	payloads := make([]segmentPayload, 0, len(segments))
	for _, segment := range segments {
		payloads = append(payloads, segmentPayload{Text: segment.Text, Highlight: segment.Highlight})
	}
	return payloads
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listed, err := h.notesService.ListNotes(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, "failed to list notes", err)
		return
	}

	payloads := make([]notePayload, 0, len(listed))
	for _, note := range listed {
		payloads = append(payloads, toNotePayload(note))
	}
	c.JSON(http.StatusOK, gin.H{"notes": payloads})
}

func (h *httpHandler) handleSearchNotes(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rawQuery := c.Query("q")
	activeTag := c.Query("tag")

	results, err := h.notesService.SearchNotes(c.Request.Context(), userID, rawQuery, activeTag)
	if err != nil {
		h.respondServiceError(c, "failed to search notes", err)
		return
	}

	needle := notes.ParseSearchQuery(rawQuery).Text
	payloads := make([]searchResultPayload, 0, len(results))
	for _, note := range results {
		preview := notes.Preview(note, h.defaults)
		payloads = append(payloads, searchResultPayload{
			Note:           toNotePayload(note),
			DisplayTitle:   notes.DisplayTitle(note, h.defaults),
			Preview:        preview,
			UpdatedDisplay: notes.FormatDateTime(note.UpdatedAt, h.defaults),
			TitleSegments:  toSegmentPayloads(notes.Highlight(note.Title, needle)),
			BodySegments:   toSegmentPayloads(notes.Highlight(preview, needle)),
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": payloads})
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	userID, ok := h.requireUserID(c, http.StatusUnauthorized)
	if !ok {
		return
	}

	created, err := h.notesService.CreateNote(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, "failed to create note", err)
		return
	}

	c.JSON(http.StatusCreated, toNotePayload(created))
}

type updateNotePayload struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

func (h *httpHandler) handleUpdateNote(c *gin.Context) {
	userID, ok := h.requireUserID(c, http.StatusUnauthorized)
	if !ok {
		return
	}

	noteID, err := notes.NewNoteID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_note_id"})
		return
	}

	var request updateNotePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	updated, err := h.notesService.UpdateNote(c.Request.Context(), userID, notes.UpdateRequest{
		NoteID: noteID,
		Title:  request.Title,
		Body:   request.Body,
		Tags:   request.Tags,
	})
	if err != nil {
		h.respondServiceError(c, "failed to update note", err)
		return
	}

	h.events.Publish(NoteEvent{
		UserID:    userID.String(),
		EventType: EventNoteChanged,
		NoteIDs:   []string{noteID.String()},
		Timestamp: time.Now().UTC(),
	})

	c.JSON(http.StatusOK, toNotePayload(updated))
}

func (h *httpHandler) handleDeleteNote(c *gin.Context) {
	userID, ok := h.requireUserID(c, http.StatusUnauthorized)
	if !ok {
		return
	}

	noteID, err := notes.NewNoteID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_note_id"})
		return
	}

	if err := h.notesService.DeleteNote(c.Request.Context(), userID, noteID); err != nil {
		h.respondServiceError(c, "failed to delete note", err)
		return
	}

	h.events.Publish(NoteEvent{
		UserID:    userID.String(),
		EventType: EventNoteChanged,
		NoteIDs:   []string{noteID.String()},
		Timestamp: time.Now().UTC(),
	})

	c.Status(http.StatusNoContent)
}

type syncRequestPayload struct {
	Operations []syncOperationPayload `json:"operations"`
}

type syncOperationPayload struct {
	NoteID       string   `json:"note_id"`
	Operation    string   `json:"operation"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Tags         []string `json:"tags"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	ClientDevice string   `json:"client_device"`
}

type syncResponsePayload struct {
	Results []syncResultPayload `json:"results"`
}

type syncResultPayload struct {
	NoteID    string   `json:"note_id"`
	Accepted  bool     `json:"accepted"`
	Version   int64    `json:"version"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	UpdatedAt string   `json:"updated_at"`
	IsDeleted bool     `json:"is_deleted"`
}

func (h *httpHandler) handleNotesSync(c *gin.Context) {
	userID, ok := h.requireUserID(c, http.StatusUnauthorized)
	if !ok {
		return
	}

	var request syncRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Operations) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	changes := make([]notes.ChangeRequest, 0, len(request.Operations))
	for _, op := range request.Operations {
		noteID, err := notes.NewNoteID(op.NoteID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_note_id"})
			return
		}
		opType, err := parseOperation(op.Operation)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_operation"})
			return
		}
		changes = append(changes, notes.ChangeRequest{
			NoteID:       noteID,
			Operation:    opType,
			Title:        op.Title,
			Body:         op.Body,
			Tags:         op.Tags,
			CreatedAt:    op.CreatedAt,
			UpdatedAt:    op.UpdatedAt,
			ClientDevice: op.ClientDevice,
		})
	}

	result, err := h.notesService.ApplyChanges(c.Request.Context(), userID, changes)
	if err != nil {
		h.respondServiceError(c, "failed to apply note changes", err)
		return
	}

	acceptedIDs := make([]string, 0, len(result.ChangeOutcomes))
	response := syncResponsePayload{Results: make([]syncResultPayload, 0, len(result.ChangeOutcomes))}
	for _, outcome := range result.ChangeOutcomes {
		note := outcome.Outcome.UpdatedNote
		tags := note.Tags
		if tags == nil {
			tags = []string{}
		}
		response.Results = append(response.Results, syncResultPayload{
			NoteID:    note.NoteID,
			Accepted:  outcome.Outcome.Accepted,
			Version:   note.Version,
			Title:     note.Title,
			Body:      note.Body,
			Tags:      tags,
			UpdatedAt: note.UpdatedAt,
			IsDeleted: note.IsDeleted,
		})
		if outcome.Outcome.Accepted {
			acceptedIDs = append(acceptedIDs, note.NoteID)
		}
	}

	if len(acceptedIDs) > 0 {
		h.events.Publish(NoteEvent{
			UserID:    userID.String(),
			EventType: EventNoteChanged,
			NoteIDs:   acceptedIDs,
			Timestamp: time.Now().UTC(),
		})
	}

	c.JSON(http.StatusOK, response)
}

type noteEventPayload struct {
	Source  string   `json:"source"`
	NoteIDs []string `json:"note_ids,omitempty"`
}

func (h *httpHandler) handleNoteEvents(c *gin.Context) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	stream, cleanup := h.events.Subscribe(c.Request.Context(), userID)
	defer cleanup()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(event.EventType, noteEventPayload{Source: eventSourceScribe, NoteIDs: event.NoteIDs})
			return true
		case <-heartbeat.C:
			c.SSEvent(eventHeartbeat, noteEventPayload{Source: eventSourceScribe})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userIDContextKey, subject)
	c.Next()
}

func (h *httpHandler) requireUserID(c *gin.Context, status int) (notes.UserID, bool) {
	userID, err := notes.NewUserID(c.GetString(userIDContextKey))
	if err != nil {
		c.JSON(status, gin.H{"error": "unauthorized"})
		return "", false
	}
	return userID, true
}

func (h *httpHandler) respondServiceError(c *gin.Context, message string, err error) {
	if errors.Is(err, notes.ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "note_not_found"})
		return
	}

	h.logger.Error(message, zap.Error(err))

	var serviceErr *notes.ServiceError
	if errors.As(err, &serviceErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "code": serviceErr.Code()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

func parseOperation(value string) (notes.OperationType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(notes.OperationTypeUpsert):
		return notes.OperationTypeUpsert, nil
	case string(notes.OperationTypeDelete):
		return notes.OperationTypeDelete, nil
	default:
		return "", errors.New("unknown operation")
	}
}

package note

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notes-api/internal/auth"
	"notes-api/internal/httputil"
	"notes-api/internal/logging"
)

// Store is the subset of Repository the handlers need
type Store interface {
	Create(ctx context.Context, ownerID uuid.UUID, title, content string) (*Note, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Note, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler contains HTTP handlers for note endpoints. All routes sit
// behind the session middleware, so the user id is always in context.
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create handles note creation for the authenticated user
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "user not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create note request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.Content == "" {
		logger.Warn("create note failed: missing fields")
		respondError(w, "title and content are required", httputil.CodeMissingFields, http.StatusBadRequest)
		return
	}

	created, err := h.store.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		logger.Error("create note failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("note created", "note_id", created.ID)

	respondJSON(w, created, http.StatusOK)
}

// List returns the authenticated user's notes, newest first
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "user not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	notes, err := h.store.ListByOwner(r.Context(), userID)
	if err != nil {
		logger.Error("list notes failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, notes, http.StatusOK)
}

// Delete removes a note owned by the authenticated user
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "user not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		logger.Warn("delete note failed: invalid note id")
		respondError(w, "invalid note ID", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	existing, err := h.store.GetByID(r.Context(), noteID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Warn("delete note failed: not found", "note_id", noteID)
			respondError(w, "note not found", httputil.CodeNoteNotFound, http.StatusNotFound)
			return
		}
		logger.Error("delete note failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if existing.UserID != userID {
		logger.Warn("delete note failed: not owner", "note_id", noteID)
		respondError(w, "user not authorized", httputil.CodeNotNoteOwner, http.StatusUnauthorized)
		return
	}

	if err := h.store.Delete(r.Context(), noteID); err != nil {
		logger.Error("delete note failed: internal error", "error", err.Error())
		respondError(w, "server error", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("note deleted", "note_id", noteID)

	respondJSON(w, map[string]string{"msg": "Note removed"}, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

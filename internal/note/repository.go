package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"notes-api/internal/database"
)

var ErrNotFound = errors.New("note not found")

// Repository handles note persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new note for the given owner
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, title, content string) (*Note, error) {
	dbNote := &database.Note{
		Title:   title,
		Content: content,
		UserID:  ownerID,
	}

	_, err := r.db.NewInsert().
		Model(dbNote).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return mapDBNoteToModel(dbNote), nil
}

// ListByOwner returns all notes of the owner, newest-created-first
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Note, error) {
	var dbNotes []*database.Note
	err := r.db.NewSelect().
		Model(&dbNotes).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]*Note, 0, len(dbNotes))
	for _, dbNote := range dbNotes {
		notes = append(notes, mapDBNoteToModel(dbNote))
	}

	return notes, nil
}

// GetByID retrieves a note regardless of owner; the caller decides
// whether the requester may act on it.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	dbNote := new(database.Note)
	err := r.db.NewSelect().
		Model(dbNote).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return mapDBNoteToModel(dbNote), nil
}

// Delete removes a note by id
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Note)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBNoteToModel converts database model to domain model
func mapDBNoteToModel(dbn *database.Note) *Note {
	return &Note{
		ID:        dbn.ID,
		Title:     dbn.Title,
		Content:   dbn.Content,
		UserID:    dbn.UserID,
		CreatedAt: dbn.CreatedAt,
	}
}

package note

import (
	"time"

	"github.com/google/uuid"
)

// Note is owned by exactly one user and is immutable after creation.
type Note struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

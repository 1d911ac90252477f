package models

import (
	"time"

	"github.com/google/uuid"
)

// Template represents a template row in the database. The source column
// holds the raw template text; UpdatedAt is bumped on every edit and is
// what the engine's staleness check compares against.
type Template struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

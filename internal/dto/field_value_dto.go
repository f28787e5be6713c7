package dto

import (
	"github.com/google/uuid"
)

// SetFieldValuesRequest represents the request to write custom field values
// on a board. Keys are field definition ids.
type SetFieldValuesRequest struct {
	Values map[string]any `json:"values" binding:"required"`
}

// CreateBoardRequest represents the request to create a board
type CreateBoardRequest struct {
	Title    string         `json:"title" binding:"required,max=255"`
	Content  string         `json:"content"`
	ParentID string         `json:"parentId" binding:"omitempty,uuid"`
	Values   map[string]any `json:"values"`
}

// FieldValueDiagnostic represents one evaluation diagnostic surfaced to clients
type FieldValueDiagnostic struct {
	FieldID uuid.UUID `json:"fieldId"`
	Ref     string    `json:"ref,omitempty"`
	Message string    `json:"message"`
}

// BoardFieldValuesResponse represents the evaluated custom field state of a
// board: stored and derived values, per-field visibility, and any evaluation
// diagnostics. Stale lists the derived fields whose configuration is pending
// reconfirmation.
type BoardFieldValuesResponse struct {
	BoardID     uuid.UUID              `json:"boardId"`
	Values      map[string]any         `json:"values"`
	Visibility  map[string]bool        `json:"visibility"`
	Stale       []uuid.UUID            `json:"stale,omitempty"`
	Diagnostics []FieldValueDiagnostic `json:"diagnostics,omitempty"`
}

// BoardResponse represents a board with its evaluated field state
type BoardResponse struct {
	ID        uuid.UUID                `json:"id"`
	ProjectID uuid.UUID                `json:"projectId"`
	ParentID  *uuid.UUID               `json:"parentId,omitempty"`
	Title     string                   `json:"title"`
	Content   string                   `json:"content,omitempty"`
	Fields    BoardFieldValuesResponse `json:"fields"`
}

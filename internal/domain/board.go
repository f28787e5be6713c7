package domain

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"project-field-api/internal/engine"
)

// Board represents a work item within a project. Custom field values are
// stored as one jsonb document keyed by field definition id; ParentID links
// boards into the parent/children relationship that rollups and mirrors
// traverse.
type Board struct {
	BaseModel
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_boards_project_id" json:"project_id"`
	ParentID     *uuid.UUID     `gorm:"type:uuid;index:idx_boards_parent_id" json:"parent_id"`
	AuthorID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_boards_author_id" json:"author_id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Content      string         `gorm:"type:text" json:"content"`
	CustomFields datatypes.JSON `gorm:"type:jsonb" json:"custom_fields"`
	Project      Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
	Children     []Board        `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// TableName specifies the table name for Board
func (Board) TableName() string {
	return "boards"
}

// FieldValues decodes the custom_fields document into the engine value map.
func (b *Board) FieldValues() (engine.Values, error) {
	values := engine.Values{}
	if len(b.CustomFields) == 0 {
		return values, nil
	}
	var byKey map[string]any
	if err := json.Unmarshal(b.CustomFields, &byKey); err != nil {
		return nil, err
	}
	for key, v := range byKey {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, err
		}
		values[id] = v
	}
	return values, nil
}

// SetFieldValues replaces the custom_fields document with the given value map.
func (b *Board) SetFieldValues(values engine.Values) error {
	byKey := make(map[string]any, len(values))
	for id, v := range values {
		byKey[id.String()] = v
	}
	doc, err := json.Marshal(byKey)
	if err != nil {
		return err
	}
	b.CustomFields = datatypes.JSON(doc)
	return nil
}

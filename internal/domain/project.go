package domain

import (
	"github.com/google/uuid"
)

// Project represents a project entity within a workspace
type Project struct {
	BaseModel
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index:idx_projects_workspace_id" json:"workspace_id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index:idx_projects_owner_id" json:"owner_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Boards      []Board   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"boards,omitempty"`
}

// TableName specifies the table name for Project
func (Project) TableName() string {
	return "projects"
}

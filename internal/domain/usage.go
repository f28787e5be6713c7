package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Usage surfaces a field can be referenced from
const (
	UsageSurfaceScreen     = "screen"
	UsageSurfaceReport     = "report"
	UsageSurfaceAutomation = "automation"
)

// FieldUsageEvent is one recorded reference of a field from a surface. The
// summary job folds these into FieldUsageSummary rows.
type FieldUsageEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FieldID    uuid.UUID `gorm:"type:uuid;not null;index:idx_field_usage_events_field_id" json:"field_id"`
	Surface    string    `gorm:"type:varchar(50);not null" json:"surface"`
	SourceName string    `gorm:"type:varchar(255);not null" json:"source_name"`
	OccurredAt time.Time `gorm:"type:timestamp;not null;index:idx_field_usage_events_occurred_at" json:"occurred_at"`
}

// TableName specifies the table name for FieldUsageEvent
func (FieldUsageEvent) TableName() string {
	return "field_usage_events"
}

// BeforeCreate assigns an id when none was set
func (e *FieldUsageEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// FieldUsageSummary is the per-field aggregate the summary job maintains.
// Screens, Reports and Automations hold distinct source names as jsonb
// string arrays.
type FieldUsageSummary struct {
	FieldID     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"field_id"`
	Screens     datatypes.JSON `gorm:"type:jsonb" json:"screens"`
	Reports     datatypes.JSON `gorm:"type:jsonb" json:"reports"`
	Automations datatypes.JSON `gorm:"type:jsonb" json:"automations"`
	UsageCount  int64          `gorm:"type:bigint;not null;default:0" json:"usage_count"`
	LastUsedAt  *time.Time     `gorm:"type:timestamp" json:"last_used_at"`
	ComputedAt  time.Time      `gorm:"type:timestamp;not null" json:"computed_at"`
}

// TableName specifies the table name for FieldUsageSummary
func (FieldUsageSummary) TableName() string {
	return "field_usage_summaries"
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

// RecordUsageEventRequest represents the request to record a field usage event
type RecordUsageEventRequest struct {
	FieldID    string `json:"fieldId" binding:"required,uuid"`
	Surface    string `json:"surface" binding:"required,oneof=screen report automation"`
	SourceName string `json:"sourceName" binding:"required,max=255"`
}

// UsageMetricResponse represents the usage metrics of one field
type UsageMetricResponse struct {
	FieldID     uuid.UUID  `json:"fieldId"`
	APIName     string     `json:"apiName"`
	Screens     []string   `json:"screens"`
	Reports     []string   `json:"reports"`
	Automations []string   `json:"automations"`
	UsageCount  int64      `json:"usageCount"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
}

// UsageReportResponse represents a usage report over a definition set.
// IsFallback is true when metrics were derived from definition contexts
// because no aggregated summary was available.
type UsageReportResponse struct {
	Metrics    []UsageMetricResponse `json:"metrics"`
	IsFallback bool                  `json:"isFallback"`
}

package dto

import (
	"time"

	"github.com/google/uuid"

	"project-field-api/internal/engine"
)

// OptionPayload represents one select option in requests and responses
type OptionPayload struct {
	OptionID string `json:"optionId,omitempty"`
	Label    string `json:"label" binding:"required,max=200"`
}

// RulePayload represents one conditional visibility rule
type RulePayload struct {
	FieldID  string `json:"fieldId" binding:"required,uuid"`
	Operator string `json:"operator" binding:"required,oneof=equals not_equals contains not_contains is_set is_not_set"`
	Value    any    `json:"value"`
}

// CreateFieldDefinitionRequest represents the request to create a field definition
type CreateFieldDefinitionRequest struct {
	Name             string          `json:"name" binding:"required,max=200"`
	APIName          string          `json:"apiName" binding:"omitempty,max=200"`
	Scope            string          `json:"scope" binding:"omitempty,oneof=project global"`
	FieldType        string          `json:"fieldType" binding:"required"`
	Contexts         []string        `json:"contexts"`
	Options          []OptionPayload `json:"optionSet"`
	Expression       string          `json:"expression"`
	SourceFieldID    string          `json:"sourceFieldId" binding:"omitempty,uuid"`
	RelationshipName string          `json:"relationshipName"`
	Aggregation      string          `json:"aggregation"`
	ConditionalRules []RulePayload   `json:"conditionalRules"`
	DefaultValue     any             `json:"defaultValue"`
	IsRequired       bool            `json:"isRequired"`
	IsPrivate        bool            `json:"isPrivate"`
	Position         int             `json:"position"`
}

// UpdateFieldDefinitionRequest represents the request to update a field definition.
// Nil pointers leave the stored value unchanged.
type UpdateFieldDefinitionRequest struct {
	Name             *string          `json:"name" binding:"omitempty,max=200"`
	FieldType        *string          `json:"fieldType"`
	Contexts         *[]string        `json:"contexts"`
	Options          *[]OptionPayload `json:"optionSet"`
	Expression       *string          `json:"expression"`
	SourceFieldID    *string          `json:"sourceFieldId" binding:"omitempty,uuid"`
	RelationshipName *string          `json:"relationshipName"`
	Aggregation      *string          `json:"aggregation"`
	ConditionalRules *[]RulePayload   `json:"conditionalRules"`
	DefaultValue     any              `json:"defaultValue"`
	IsRequired       *bool            `json:"isRequired"`
	IsPrivate        *bool            `json:"isPrivate"`
	Position         *int             `json:"position"`
	NeedsReconfirm   *bool            `json:"needsReconfirm"`
}

// FieldDefinitionResponse represents the normalized field definition response
type FieldDefinitionResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProjectID        *uuid.UUID      `json:"projectId,omitempty"`
	Name             string          `json:"name"`
	APIName          string          `json:"apiName"`
	Scope            string          `json:"scope"`
	FieldType        string          `json:"fieldType"`
	Contexts         []string        `json:"contexts"`
	Options          []OptionPayload `json:"optionSet,omitempty"`
	Expression       string          `json:"expression,omitempty"`
	SourceFieldID    string          `json:"sourceFieldId,omitempty"`
	RelationshipName string          `json:"relationshipName,omitempty"`
	Aggregation      string          `json:"aggregation,omitempty"`
	ConditionalRules []RulePayload   `json:"conditionalRules,omitempty"`
	DefaultValue     any             `json:"defaultValue,omitempty"`
	IsRequired       bool            `json:"isRequired"`
	IsPrivate        bool            `json:"isPrivate"`
	Position         int             `json:"position"`
	NeedsReconfirm   bool            `json:"needsReconfirm"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ToRawDefinition converts a create request into the engine boundary shape
func (r *CreateFieldDefinitionRequest) ToRawDefinition() engine.RawDefinition {
	raw := engine.RawDefinition{
		Name:             r.Name,
		APIName:          r.APIName,
		Scope:            r.Scope,
		Type:             r.FieldType,
		Contexts:         r.Contexts,
		Expression:       r.Expression,
		SourceFieldID:    r.SourceFieldID,
		RelationshipName: r.RelationshipName,
		Aggregation:      r.Aggregation,
		DefaultValue:     r.DefaultValue,
		IsRequired:       r.IsRequired,
		IsPrivate:        r.IsPrivate,
		Position:         r.Position,
	}
	for _, opt := range r.Options {
		raw.Options = append(raw.Options, engine.RawOption{OptionID: opt.OptionID, Label: opt.Label})
	}
	for _, rule := range r.ConditionalRules {
		raw.ConditionalRules = append(raw.ConditionalRules, engine.RawRule{
			FieldID:  rule.FieldID,
			Operator: rule.Operator,
			Value:    rule.Value,
		})
	}
	return raw
}

// FieldDefinitionResponseFromRaw builds a response from a serialized definition
func FieldDefinitionResponseFromRaw(raw engine.RawDefinition, projectID *uuid.UUID) FieldDefinitionResponse {
	resp := FieldDefinitionResponse{
		ProjectID:        projectID,
		Name:             raw.Name,
		APIName:          raw.APIName,
		Scope:            raw.Scope,
		FieldType:        raw.Type,
		Contexts:         raw.Contexts,
		Expression:       raw.Expression,
		SourceFieldID:    raw.SourceFieldID,
		RelationshipName: raw.RelationshipName,
		Aggregation:      raw.Aggregation,
		DefaultValue:     raw.DefaultValue,
		IsRequired:       raw.IsRequired,
		IsPrivate:        raw.IsPrivate,
		Position:         raw.Position,
		NeedsReconfirm:   raw.NeedsReconfirm,
		CreatedAt:        raw.CreatedAt,
		UpdatedAt:        raw.UpdatedAt,
	}
	if id, err := uuid.Parse(raw.ID); err == nil {
		resp.ID = id
	}
	for _, opt := range raw.Options {
		resp.Options = append(resp.Options, OptionPayload{OptionID: opt.OptionID, Label: opt.Label})
	}
	for _, rule := range raw.ConditionalRules {
		resp.ConditionalRules = append(resp.ConditionalRules, RulePayload{
			FieldID:  rule.FieldID,
			Operator: rule.Operator,
			Value:    rule.Value,
		})
	}
	return resp
}

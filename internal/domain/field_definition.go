package domain

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"project-field-api/internal/engine"
)

// FieldDefinition is the storage row of one custom field definition. The
// variant payloads (option set, conditional rules, governance, default
// value) live in jsonb catch-all columns; the canonical strongly-typed shape
// is produced by the engine normalizer, never read off this row directly.
type FieldDefinition struct {
	BaseModel
	ProjectID        *uuid.UUID     `gorm:"type:uuid;index:idx_field_definitions_project_id" json:"project_id"` // NULL for workspace-global definitions
	Name             string         `gorm:"type:varchar(200);not null" json:"name"`
	APIName          string         `gorm:"type:varchar(200);not null;index:idx_field_definitions_api_name" json:"api_name"`
	FieldType        string         `gorm:"type:varchar(50);not null;index:idx_field_definitions_field_type" json:"field_type"`
	Contexts         datatypes.JSON `gorm:"type:jsonb" json:"contexts"`
	OptionSet        datatypes.JSON `gorm:"type:jsonb" json:"option_set,omitempty"`
	Expression       string         `gorm:"type:text" json:"expression,omitempty"`
	SourceFieldID    *uuid.UUID     `gorm:"type:uuid;index:idx_field_definitions_source_field_id" json:"source_field_id,omitempty"`
	RelationshipName string         `gorm:"type:varchar(100)" json:"relationship_name,omitempty"`
	Aggregation      string         `gorm:"type:varchar(50)" json:"aggregation,omitempty"`
	Governance       datatypes.JSON `gorm:"type:jsonb" json:"governance,omitempty"`
	ConditionalRules datatypes.JSON `gorm:"type:jsonb" json:"conditional_rules,omitempty"`
	DefaultValue     datatypes.JSON `gorm:"type:jsonb" json:"default_value,omitempty"`
	IsRequired       bool           `gorm:"type:boolean;not null;default:false" json:"is_required"`
	IsPrivate        bool           `gorm:"type:boolean;not null;default:false" json:"is_private"`
	Position         int            `gorm:"type:int;not null;default:0;index:idx_field_definitions_position" json:"position"`
	NeedsReconfirm   bool           `gorm:"type:boolean;not null;default:false" json:"needs_reconfirm"`
	Project          *Project       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project,omitempty"`
}

// TableName specifies the table name for FieldDefinition
func (FieldDefinition) TableName() string {
	return "field_definitions"
}

// Scope returns the definition's scope derived from its project linkage.
func (d *FieldDefinition) Scope() engine.Scope {
	if d.ProjectID == nil {
		return engine.ScopeGlobal
	}
	return engine.ScopeProject
}

// ToRaw converts the storage row into the engine's normalize boundary shape.
func (d *FieldDefinition) ToRaw() (engine.RawDefinition, error) {
	raw := engine.RawDefinition{
		ID:               d.ID.String(),
		Name:             d.Name,
		APIName:          d.APIName,
		Scope:            string(d.Scope()),
		Type:             d.FieldType,
		Expression:       d.Expression,
		RelationshipName: d.RelationshipName,
		Aggregation:      d.Aggregation,
		IsRequired:       d.IsRequired,
		IsPrivate:        d.IsPrivate,
		Position:         d.Position,
		NeedsReconfirm:   d.NeedsReconfirm,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.SourceFieldID != nil {
		raw.SourceFieldID = d.SourceFieldID.String()
	}
	if err := unmarshalColumn(d.Contexts, &raw.Contexts); err != nil {
		return raw, err
	}
	if err := unmarshalColumn(d.OptionSet, &raw.Options); err != nil {
		return raw, err
	}
	if err := unmarshalColumn(d.Governance, &raw.Governance); err != nil {
		return raw, err
	}
	if err := unmarshalColumn(d.ConditionalRules, &raw.ConditionalRules); err != nil {
		return raw, err
	}
	if err := unmarshalColumn(d.DefaultValue, &raw.DefaultValue); err != nil {
		return raw, err
	}
	return raw, nil
}

// FromRaw fills the storage row from a serialized definition. The id and
// project linkage are managed by the caller.
func (d *FieldDefinition) FromRaw(raw engine.RawDefinition) error {
	d.Name = raw.Name
	d.APIName = raw.APIName
	d.FieldType = raw.Type
	d.Expression = raw.Expression
	d.RelationshipName = raw.RelationshipName
	d.Aggregation = raw.Aggregation
	d.IsRequired = raw.IsRequired
	d.IsPrivate = raw.IsPrivate
	d.Position = raw.Position
	d.NeedsReconfirm = raw.NeedsReconfirm

	d.SourceFieldID = nil
	if raw.SourceFieldID != "" {
		id, err := uuid.Parse(raw.SourceFieldID)
		if err != nil {
			return err
		}
		d.SourceFieldID = &id
	}

	var err error
	if d.Contexts, err = marshalColumn(raw.Contexts); err != nil {
		return err
	}
	if d.OptionSet, err = marshalColumn(raw.Options); err != nil {
		return err
	}
	if d.Governance, err = marshalColumn(raw.Governance); err != nil {
		return err
	}
	if d.ConditionalRules, err = marshalColumn(raw.ConditionalRules); err != nil {
		return err
	}
	if d.DefaultValue, err = marshalColumn(raw.DefaultValue); err != nil {
		return err
	}
	return nil
}

func unmarshalColumn(col datatypes.JSON, out any) error {
	if len(col) == 0 {
		return nil
	}
	return json.Unmarshal(col, out)
}

func marshalColumn(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

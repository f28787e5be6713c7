package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
)

// FieldType is the closed discriminator for custom field variants
type FieldType string

// FieldType constants
const (
	FieldTypeText        FieldType = "text"
	FieldTypeNumber      FieldType = "number"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeDate        FieldType = "date"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeFormula     FieldType = "formula"
	FieldTypeRollup      FieldType = "rollup"
	FieldTypeMirror      FieldType = "mirror"
)

// Scope determines whether a definition belongs to one project or the whole workspace
type Scope string

// Scope constants
const (
	ScopeProject Scope = "project"
	ScopeGlobal  Scope = "global"
)

// Context is a usage surface a definition can be attached to
type Context string

// Context constants
const (
	ContextTasks       Context = "tasks"
	ContextForms       Context = "forms"
	ContextBoards      Context = "boards"
	ContextReports     Context = "reports"
	ContextAutomations Context = "automations"
	ContextDocs        Context = "docs"
)

// RuleOperator is an operator in a conditional visibility rule
type RuleOperator string

// RuleOperator constants
const (
	OpEquals      RuleOperator = "equals"
	OpNotEquals   RuleOperator = "not_equals"
	OpContains    RuleOperator = "contains"
	OpNotContains RuleOperator = "not_contains"
	OpIsSet       RuleOperator = "is_set"
	OpIsNotSet    RuleOperator = "is_not_set"
)

// Relationship names the value layer can resolve. Rollups and mirrors declare
// which related entity set they read from; any other name is rejected at
// normalization.
const (
	RelationshipChildren = "children"
	RelationshipParent   = "parent"
)

// Aggregation is a rollup aggregation kind
type Aggregation string

// Aggregation constants
const (
	AggCount          Aggregation = "count"
	AggSum            Aggregation = "sum"
	AggAvg            Aggregation = "avg"
	AggMin            Aggregation = "min"
	AggMax            Aggregation = "max"
	AggConcatDistinct Aggregation = "concat_distinct"
)

// Option is one entry of a select/multiselect option set. Option ids stay
// stable across label edits.
type Option struct {
	OptionID string `json:"option_id"`
	Label    string `json:"label"`
}

// ConditionalRule gates a definition's visibility on a sibling field's value.
// All rules of a definition must hold for the field to be visible (AND).
type ConditionalRule struct {
	FieldID  uuid.UUID    `json:"field_id"`
	Operator RuleOperator `json:"operator"`
	Value    any          `json:"value,omitempty"`
}

// FormulaSpec is the payload of a formula field. Dependencies holds the ids
// of sibling fields referenced by the expression; references that match no
// sibling apiName stay in RefNames only and surface as evaluation
// diagnostics, not normalization errors.
type FormulaSpec struct {
	Expression   string      `json:"expression"`
	Dependencies []uuid.UUID `json:"dependencies"`

	// RefNames is every root variable name in the expression, resolved or not.
	RefNames []string `json:"-"`

	expr hcl.Expression
}

// RollupSpec is the payload of a rollup field.
type RollupSpec struct {
	SourceFieldID    uuid.UUID   `json:"source_field_id"`
	RelationshipName string      `json:"relationship_name"`
	Aggregation      Aggregation `json:"aggregation"`
}

// MirrorSpec is the payload of a mirror field. PresentationType is copied
// from the source definition at normalization so consumers can render the
// field without resolving the value eagerly.
type MirrorSpec struct {
	SourceFieldID    uuid.UUID `json:"source_field_id"`
	RelationshipName string    `json:"relationship_name"`
	PresentationType FieldType `json:"presentation_type"`
}

// FieldDefinition is the canonical, strongly-discriminated description of one
// custom field. Produced only by the normalizer; the variant payloads are
// present iff the field type matches.
type FieldDefinition struct {
	ID      uuid.UUID
	Name    string
	APIName string // recomputed from Name on every normalization, never stored as authoritative
	Scope   Scope
	Type    FieldType

	Contexts []Context

	Options []Option     // select/multiselect only
	Formula *FormulaSpec // formula only
	Rollup  *RollupSpec  // rollup only
	Mirror  *MirrorSpec  // mirror only

	Governance   map[string]any // opaque to evaluation
	Rules        []ConditionalRule
	DefaultValue any // non-derived types only

	Required bool
	Private  bool
	Position int

	// NeedsReconfirm is set on a rollup whose source field's value type
	// changed after the rollup was created. The recompute job skips flagged
	// rollups until an administrator reconfirms the configuration.
	NeedsReconfirm bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsDerived reports whether the field's value is computed rather than entered.
func (d *FieldDefinition) IsDerived() bool {
	switch d.Type {
	case FieldTypeFormula, FieldTypeRollup, FieldTypeMirror:
		return true
	default:
		return false
	}
}

// ValueKind classifies the runtime value a field produces, used for
// aggregation compatibility checks.
type ValueKind string

// ValueKind constants
const (
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindDate    ValueKind = "date"
	KindArray   ValueKind = "array"
	KindAny     ValueKind = "any"
)

// ValueKind returns the kind of value this definition produces. For derived
// fields the kind follows the computation: formulas are treated as numeric,
// rollup kinds follow the aggregation, mirrors follow their presentation type.
func (d *FieldDefinition) ValueKind() ValueKind {
	switch d.Type {
	case FieldTypeText, FieldTypeSelect:
		return KindString
	case FieldTypeNumber:
		return KindNumber
	case FieldTypeBoolean:
		return KindBoolean
	case FieldTypeDate:
		return KindDate
	case FieldTypeMultiSelect:
		return KindArray
	case FieldTypeFormula:
		return KindNumber
	case FieldTypeRollup:
		if d.Rollup == nil {
			return KindAny
		}
		switch d.Rollup.Aggregation {
		case AggCount, AggSum, AggAvg, AggMin, AggMax:
			return KindNumber
		case AggConcatDistinct:
			return KindArray
		}
		return KindAny
	case FieldTypeMirror:
		if d.Mirror == nil {
			return KindAny
		}
		return kindOfPresentation(d.Mirror.PresentationType)
	}
	return KindAny
}

func kindOfPresentation(t FieldType) ValueKind {
	switch t {
	case FieldTypeText, FieldTypeSelect:
		return KindString
	case FieldTypeNumber, FieldTypeFormula:
		return KindNumber
	case FieldTypeBoolean:
		return KindBoolean
	case FieldTypeDate:
		return KindDate
	case FieldTypeMultiSelect:
		return KindArray
	default:
		return KindAny
	}
}

// RawOption is the loosely-typed storage form of an option.
type RawOption struct {
	OptionID string `json:"optionId,omitempty"`
	Label    string `json:"label"`
}

// RawRule is the loosely-typed storage form of a conditional rule.
type RawRule struct {
	FieldID  string `json:"fieldId"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// RawDefinition is the storage/transport shape of a definition, exactly the
// normalize/serialize boundary the definition store sees. Variant payload
// fields are flattened; only the ones matching FieldType are meaningful.
type RawDefinition struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	APIName  string   `json:"apiName,omitempty"` // advisory; always recomputed from Name
	Scope    string   `json:"scope"`
	Type     string   `json:"fieldType"`
	Contexts []string `json:"contexts,omitempty"`

	Options []RawOption `json:"optionSet,omitempty"`

	Expression       string `json:"expression,omitempty"`
	SourceFieldID    string `json:"sourceFieldId,omitempty"`
	RelationshipName string `json:"relationshipName,omitempty"`
	Aggregation      string `json:"aggregation,omitempty"`

	Governance       map[string]any `json:"governance,omitempty"`
	ConditionalRules []RawRule      `json:"conditionalRules,omitempty"`
	DefaultValue     any            `json:"defaultValue,omitempty"`

	IsRequired     bool `json:"isRequired,omitempty"`
	IsPrivate      bool `json:"isPrivate,omitempty"`
	Position       int  `json:"position,omitempty"`
	NeedsReconfirm bool `json:"needsReconfirm,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Values is a snapshot of one entity's field values keyed by definition id.
// Numbers are float64, multiselect values []any, absent fields simply missing.
type Values map[uuid.UUID]any

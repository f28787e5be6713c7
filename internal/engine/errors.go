package engine

import "fmt"

// Normalization failure reasons. Handlers map these onto field-by-field
// validation feedback, so the set is part of the package contract.
const (
	ReasonUnknownFieldType        = "unknown_field_type"
	ReasonBadFormula              = "bad_formula"
	ReasonIncompatibleAggregation = "incompatible_aggregation"
	ReasonDanglingReference       = "dangling_reference"
	ReasonDuplicateAPIName        = "duplicate_api_name"
	ReasonMirrorReadOnly          = "mirror_is_read_only"
	ReasonUnknownRelationship     = "unknown_relationship"
	ReasonUnknownRuleOperator     = "unknown_rule_operator"
)

// DefinitionError is a normalization-time rejection of a field definition.
// It is always surfaced to the caller, never coerced into a partial result.
type DefinitionError struct {
	Reason string
	Field  string // apiName or raw name of the offending definition, may be empty
	Detail string
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid field definition %q: %s (%s)", e.Field, e.Reason, e.Detail)
	}
	return fmt.Sprintf("invalid field definition: %s (%s)", e.Reason, e.Detail)
}

// NewDefinitionError creates a DefinitionError with the given reason.
func NewDefinitionError(reason, field, detail string) *DefinitionError {
	return &DefinitionError{Reason: reason, Field: field, Detail: detail}
}

// CycleError reports a cyclic dependency among formula dependencies and
// conditional-rule references. Cycles are rejected at normalization and are
// never partially evaluated.
type CycleError struct {
	// Members lists the field ids participating in the cycle.
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic field dependency: %v", e.Members)
}

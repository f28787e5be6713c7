package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Registry holds one scope's normalized definitions. It is an explicit value
// handed to every evaluator; the engine keeps no process-wide state.
type Registry struct {
	defs      []FieldDefinition
	byID      map[uuid.UUID]*FieldDefinition
	byAPIName map[string]*FieldDefinition
}

// Definitions returns the normalized definitions in input order.
func (r *Registry) Definitions() []FieldDefinition {
	return r.defs
}

// Get looks up a definition by id.
func (r *Registry) Get(id uuid.UUID) (*FieldDefinition, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// ByAPIName looks up a definition by its apiName slug.
func (r *Registry) ByAPIName(name string) (*FieldDefinition, bool) {
	d, ok := r.byAPIName[name]
	return d, ok
}

// APIName derives the slug for a display name: lowercase, runs of
// non-alphanumeric characters collapsed to a single underscore, leading and
// trailing underscores trimmed. The slug is a pure function of the name and
// is recomputed on every normalization.
func APIName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeSet normalizes a whole scope's raw definitions and validates the
// cross-field invariants: apiName uniqueness, rollup/mirror/rule references,
// aggregation compatibility and dependency acyclicity. It returns a Registry
// ready for the evaluators, or the first typed error encountered.
func NormalizeSet(raws []RawDefinition) (*Registry, error) {
	defs := make([]FieldDefinition, 0, len(raws))
	for i := range raws {
		def, err := Normalize(raws[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	reg := &Registry{
		defs:      defs,
		byID:      make(map[uuid.UUID]*FieldDefinition, len(defs)),
		byAPIName: make(map[string]*FieldDefinition, len(defs)),
	}
	for i := range reg.defs {
		d := &reg.defs[i]
		reg.byID[d.ID] = d
		if prev, ok := reg.byAPIName[d.APIName]; ok {
			return nil, NewDefinitionError(ReasonDuplicateAPIName, d.APIName,
				fmt.Sprintf("already used by %q", prev.Name))
		}
		reg.byAPIName[d.APIName] = d
	}

	for i := range reg.defs {
		d := &reg.defs[i]

		// Formula references resolve by apiName. Names matching no sibling are
		// kept in RefNames only and turn into evaluation diagnostics later.
		if d.Formula != nil {
			d.Formula.Dependencies = d.Formula.Dependencies[:0]
			for _, name := range d.Formula.RefNames {
				if sibling, ok := reg.byAPIName[name]; ok {
					d.Formula.Dependencies = append(d.Formula.Dependencies, sibling.ID)
				}
			}
		}

		if d.Rollup != nil {
			source, ok := reg.byID[d.Rollup.SourceFieldID]
			if !ok {
				return nil, NewDefinitionError(ReasonDanglingReference, d.APIName,
					fmt.Sprintf("rollup source field %s does not exist in scope", d.Rollup.SourceFieldID))
			}
			if err := checkAggregation(d.Rollup.Aggregation, source); err != nil {
				return nil, NewDefinitionError(ReasonIncompatibleAggregation, d.APIName, err.Error())
			}
		}

		if d.Mirror != nil {
			source, ok := reg.byID[d.Mirror.SourceFieldID]
			if !ok {
				return nil, NewDefinitionError(ReasonDanglingReference, d.APIName,
					fmt.Sprintf("mirror source field %s does not exist in scope", d.Mirror.SourceFieldID))
			}
			d.Mirror.PresentationType = source.Type
		}

		for _, rule := range d.Rules {
			if _, ok := reg.byID[rule.FieldID]; !ok {
				return nil, NewDefinitionError(ReasonDanglingReference, d.APIName,
					fmt.Sprintf("conditional rule references unknown field %s", rule.FieldID))
			}
		}
	}

	if _, cycle := topoSort(dependencyEdges(reg.defs, true)); cycle != nil {
		return nil, cycle
	}
	return reg, nil
}

// Normalize converts one raw definition into canonical form. Cross-field
// invariants (references, cycles, apiName uniqueness) are checked by
// NormalizeSet; this covers everything decidable from the definition alone.
func Normalize(raw RawDefinition) (FieldDefinition, error) {
	fieldType := FieldType(raw.Type)
	switch fieldType {
	case FieldTypeText, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate,
		FieldTypeSelect, FieldTypeMultiSelect, FieldTypeFormula, FieldTypeRollup, FieldTypeMirror:
	default:
		return FieldDefinition{}, NewDefinitionError(ReasonUnknownFieldType, raw.Name,
			fmt.Sprintf("field type %q is not supported", raw.Type))
	}

	def := FieldDefinition{
		Name:           raw.Name,
		APIName:        APIName(raw.Name),
		Type:           fieldType,
		Scope:          ScopeProject,
		Governance:     raw.Governance,
		Required:       raw.IsRequired,
		Private:        raw.IsPrivate,
		Position:       raw.Position,
		NeedsReconfirm: raw.NeedsReconfirm,
		CreatedAt:      raw.CreatedAt,
		UpdatedAt:      raw.UpdatedAt,
	}
	if raw.Scope == string(ScopeGlobal) {
		def.Scope = ScopeGlobal
	}
	if raw.ID != "" {
		id, err := uuid.Parse(raw.ID)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonDanglingReference, raw.Name,
				fmt.Sprintf("malformed definition id %q", raw.ID))
		}
		def.ID = id
	} else {
		def.ID = uuid.New()
	}

	def.Contexts = normalizeContexts(raw.Contexts)

	switch fieldType {
	case FieldTypeSelect, FieldTypeMultiSelect:
		def.Options = normalizeOptions(raw.Options)
	case FieldTypeFormula:
		spec, err := parseFormula(raw.Expression)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonBadFormula, raw.Name, err.Error())
		}
		def.Formula = spec
	case FieldTypeRollup:
		sourceID, err := uuid.Parse(raw.SourceFieldID)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonDanglingReference, raw.Name,
				fmt.Sprintf("malformed rollup source field id %q", raw.SourceFieldID))
		}
		rel, err := normalizeRelationship(raw.RelationshipName, fieldType)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonUnknownRelationship, raw.Name, err.Error())
		}
		agg := Aggregation(raw.Aggregation)
		switch agg {
		case AggCount, AggSum, AggAvg, AggMin, AggMax, AggConcatDistinct:
		default:
			return FieldDefinition{}, NewDefinitionError(ReasonIncompatibleAggregation, raw.Name,
				fmt.Sprintf("aggregation %q is not supported", raw.Aggregation))
		}
		def.Rollup = &RollupSpec{
			SourceFieldID:    sourceID,
			RelationshipName: rel,
			Aggregation:      agg,
		}
	case FieldTypeMirror:
		sourceID, err := uuid.Parse(raw.SourceFieldID)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonDanglingReference, raw.Name,
				fmt.Sprintf("malformed mirror source field id %q", raw.SourceFieldID))
		}
		rel, err := normalizeRelationship(raw.RelationshipName, fieldType)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonUnknownRelationship, raw.Name, err.Error())
		}
		def.Mirror = &MirrorSpec{
			SourceFieldID:    sourceID,
			RelationshipName: rel,
		}
	}

	// Derived values are computed, not entered: requiredness, option sets and
	// defaults are meaningless on them and get canonicalized away.
	if def.IsDerived() {
		def.Required = false
		def.Options = nil
		def.DefaultValue = nil
	} else {
		def.DefaultValue = raw.DefaultValue
	}

	def.Rules = make([]ConditionalRule, 0, len(raw.ConditionalRules))
	for _, rr := range raw.ConditionalRules {
		fieldID, err := uuid.Parse(rr.FieldID)
		if err != nil {
			return FieldDefinition{}, NewDefinitionError(ReasonDanglingReference, raw.Name,
				fmt.Sprintf("malformed rule field id %q", rr.FieldID))
		}
		op := RuleOperator(rr.Operator)
		switch op {
		case OpEquals, OpNotEquals, OpContains, OpNotContains, OpIsSet, OpIsNotSet:
		default:
			return FieldDefinition{}, NewDefinitionError(ReasonUnknownRuleOperator, raw.Name,
				fmt.Sprintf("rule operator %q is not supported", rr.Operator))
		}
		def.Rules = append(def.Rules, ConditionalRule{FieldID: fieldID, Operator: op, Value: rr.Value})
	}

	return def, nil
}

// Serialize converts a canonical definition back into its storage shape.
// Serialize is the inverse of Normalize: re-normalizing the result yields an
// equal definition.
func Serialize(def FieldDefinition) RawDefinition {
	raw := RawDefinition{
		ID:             def.ID.String(),
		Name:           def.Name,
		APIName:        def.APIName,
		Scope:          string(def.Scope),
		Type:           string(def.Type),
		Governance:     def.Governance,
		DefaultValue:   def.DefaultValue,
		IsRequired:     def.Required,
		IsPrivate:      def.Private,
		Position:       def.Position,
		NeedsReconfirm: def.NeedsReconfirm,
		CreatedAt:      def.CreatedAt,
		UpdatedAt:      def.UpdatedAt,
	}
	for _, c := range def.Contexts {
		raw.Contexts = append(raw.Contexts, string(c))
	}
	for _, o := range def.Options {
		raw.Options = append(raw.Options, RawOption{OptionID: o.OptionID, Label: o.Label})
	}
	if def.Formula != nil {
		raw.Expression = def.Formula.Expression
	}
	if def.Rollup != nil {
		raw.SourceFieldID = def.Rollup.SourceFieldID.String()
		raw.RelationshipName = def.Rollup.RelationshipName
		raw.Aggregation = string(def.Rollup.Aggregation)
	}
	if def.Mirror != nil {
		raw.SourceFieldID = def.Mirror.SourceFieldID.String()
		raw.RelationshipName = def.Mirror.RelationshipName
	}
	for _, r := range def.Rules {
		raw.ConditionalRules = append(raw.ConditionalRules, RawRule{
			FieldID:  r.FieldID.String(),
			Operator: string(r.Operator),
			Value:    r.Value,
		})
	}
	return raw
}

// normalizeRelationship canonicalizes the declared relationship of a derived
// field. An empty name defaults to the conventional direction (rollups
// aggregate children, mirrors read the parent); anything outside the
// supported set is rejected rather than silently resolved to the default.
func normalizeRelationship(name string, t FieldType) (string, error) {
	switch name {
	case RelationshipChildren, RelationshipParent:
		return name, nil
	case "":
		if t == FieldTypeRollup {
			return RelationshipChildren, nil
		}
		return RelationshipParent, nil
	default:
		return "", fmt.Errorf("relationship %q is not resolvable, supported relationships are %q and %q",
			name, RelationshipChildren, RelationshipParent)
	}
}

func normalizeContexts(in []string) []Context {
	seen := make(map[Context]bool, len(in))
	out := make([]Context, 0, len(in))
	for _, c := range in {
		ctx := Context(strings.ToLower(strings.TrimSpace(c)))
		if ctx == "" || seen[ctx] {
			continue
		}
		seen[ctx] = true
		out = append(out, ctx)
	}
	return out
}

// normalizeOptions assigns a stable id to any option lacking one and
// deduplicates by case-insensitive label, preserving declared order.
func normalizeOptions(in []RawOption) []Option {
	seen := make(map[string]bool, len(in))
	out := make([]Option, 0, len(in))
	for _, o := range in {
		key := strings.ToLower(strings.TrimSpace(o.Label))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		id := o.OptionID
		if id == "" {
			id = uuid.NewString()
		}
		out = append(out, Option{OptionID: id, Label: o.Label})
	}
	return out
}

// checkAggregation validates that the aggregation can consume the source
// field's value kind: sum/avg need numbers, min/max need numbers or dates,
// count and concat_distinct take anything.
func checkAggregation(agg Aggregation, source *FieldDefinition) error {
	kind := source.ValueKind()
	switch agg {
	case AggSum, AggAvg:
		if kind != KindNumber {
			return fmt.Errorf("%s requires a numeric source, %s field %q produces %s",
				agg, source.Type, source.APIName, kind)
		}
	case AggMin, AggMax:
		if kind != KindNumber && kind != KindDate {
			return fmt.Errorf("%s requires a numeric or date source, %s field %q produces %s",
				agg, source.Type, source.APIName, kind)
		}
	}
	return nil
}

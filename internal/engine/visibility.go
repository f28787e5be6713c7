package engine

import (
	"strings"

	"github.com/google/uuid"
)

// Visible computes the set of currently visible definitions for a value
// snapshot. A definition with conditional rules is visible iff every rule
// holds (AND semantics); a definition without rules is always visible.
//
// If the combined dependency graph (rule references plus formula
// dependencies) is cyclic the configuration is inconsistent and the
// evaluator fails open: every field is visible.
func Visible(reg *Registry, values Values) map[uuid.UUID]bool {
	defs := reg.Definitions()
	visible := make(map[uuid.UUID]bool, len(defs))

	if _, cycle := topoSort(dependencyEdges(defs, true)); cycle != nil {
		for i := range defs {
			visible[defs[i].ID] = true
		}
		return visible
	}

	for i := range defs {
		d := &defs[i]
		visible[d.ID] = rulesHold(d.Rules, values)
	}
	return visible
}

func rulesHold(rules []ConditionalRule, values Values) bool {
	for _, rule := range rules {
		if !ruleHolds(rule, values) {
			return false
		}
	}
	return true
}

func ruleHolds(rule ConditionalRule, values Values) bool {
	target, present := values[rule.FieldID]

	switch rule.Operator {
	case OpEquals:
		return valuesEqual(target, rule.Value)
	case OpNotEquals:
		return !valuesEqual(target, rule.Value)
	case OpContains:
		return contains(target, rule.Value)
	case OpNotContains:
		return !contains(target, rule.Value)
	case OpIsSet:
		return isSet(target, present)
	case OpIsNotSet:
		return !isSet(target, present)
	default:
		return false
	}
}

// contains is defined only for array- and string-valued targets; anything
// else never contains.
func contains(target, needle any) bool {
	switch tv := target.(type) {
	case []any:
		for _, elem := range tv {
			if valuesEqual(elem, needle) {
				return true
			}
		}
		return false
	case string:
		ns, ok := needle.(string)
		return ok && strings.Contains(tv, ns)
	default:
		return false
	}
}

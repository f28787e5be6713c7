package engine

// Defaults computes the initial value map for a new entity: one entry per
// non-derived, non-private definition. Derived fields are always computed and
// never materialize a default; private fields are skipped by policy so a
// value is never pre-populated for a field the creator cannot see.
func Defaults(reg *Registry) Values {
	defs := reg.Definitions()
	out := make(Values, len(defs))
	for i := range defs {
		d := &defs[i]
		if d.IsDerived() || d.Private {
			continue
		}
		if d.DefaultValue != nil {
			out[d.ID] = d.DefaultValue
			continue
		}
		out[d.ID] = emptyValue(d.Type)
	}
	return out
}

// emptyValue is the type-specific empty for fields without a literal default.
func emptyValue(t FieldType) any {
	switch t {
	case FieldTypeText:
		return ""
	case FieldTypeMultiSelect:
		return []any{}
	case FieldTypeBoolean:
		return false
	default:
		return nil
	}
}

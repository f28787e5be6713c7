package engine

// MirrorResult is the outcome of resolving a mirror field. Stale marks a
// value whose related entity no longer exists; the value is nil then, never
// an error.
type MirrorResult struct {
	Value any  `json:"value"`
	Stale bool `json:"stale,omitempty"`
}

// ResolveMirror exposes the source field's value from the related entity's
// snapshot. relatedValues is nil when the relationship target was deleted.
// Mirrors are always read-only; write rejection happens at the service
// boundary with ReasonMirrorReadOnly.
func ResolveMirror(def *FieldDefinition, relatedValues Values) MirrorResult {
	if def.Mirror == nil {
		return MirrorResult{Stale: true}
	}
	if relatedValues == nil {
		return MirrorResult{Stale: true}
	}
	v, ok := relatedValues[def.Mirror.SourceFieldID]
	if !ok {
		return MirrorResult{Value: nil}
	}
	return MirrorResult{Value: v}
}

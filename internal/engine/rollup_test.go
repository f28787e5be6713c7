package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rollupOver(t *testing.T, aggregation string) *FieldDefinition {
	t.Helper()
	source := rawNumber("Points")
	rollup := RawDefinition{
		ID:               uuid.NewString(),
		Name:             "Rolled",
		Type:             "rollup",
		SourceFieldID:    source.ID,
		RelationshipName: "children",
		Aggregation:      aggregation,
	}
	reg := mustRegistry(t, source, rollup)
	def, ok := reg.ByAPIName("rolled")
	require.True(t, ok)
	return def
}

func TestAggregate_EmptySetIdentities(t *testing.T) {
	assert.Equal(t, 0.0, Aggregate(rollupOver(t, "count"), nil))
	assert.Equal(t, 0.0, Aggregate(rollupOver(t, "sum"), nil))
	assert.Nil(t, Aggregate(rollupOver(t, "avg"), nil))
	assert.Nil(t, Aggregate(rollupOver(t, "min"), nil))
	assert.Nil(t, Aggregate(rollupOver(t, "max"), nil))
	assert.Equal(t, []any{}, Aggregate(rollupOver(t, "concat_distinct"), nil))
}

func TestAggregate_SumSkipsNulls(t *testing.T) {
	// Children with points [3, 5, null] roll up to 8.
	got := Aggregate(rollupOver(t, "sum"), []any{3.0, 5.0, nil})
	assert.Equal(t, 8.0, got)
}

func TestAggregate_CountSkipsNulls(t *testing.T) {
	got := Aggregate(rollupOver(t, "count"), []any{3.0, nil, 5.0, nil})
	assert.Equal(t, 2.0, got)
}

func TestAggregate_Avg(t *testing.T) {
	got := Aggregate(rollupOver(t, "avg"), []any{2.0, 4.0, nil})
	assert.Equal(t, 3.0, got)
}

func TestAggregate_MinMax(t *testing.T) {
	values := []any{7.0, nil, 2.0, 9.0}
	assert.Equal(t, 2.0, Aggregate(rollupOver(t, "min"), values))
	assert.Equal(t, 9.0, Aggregate(rollupOver(t, "max"), values))
}

func TestAggregate_ConcatDistinctPreservesOrder(t *testing.T) {
	source := rawText("Label")
	rollup := RawDefinition{
		ID:               uuid.NewString(),
		Name:             "Labels",
		Type:             "rollup",
		SourceFieldID:    source.ID,
		RelationshipName: "children",
		Aggregation:      "concat_distinct",
	}
	reg := mustRegistry(t, source, rollup)
	def, _ := reg.ByAPIName("labels")

	got := Aggregate(def, []any{"b", "a", nil, "b", "c", "a"})
	assert.Equal(t, []any{"b", "a", "c"}, got)
}

func TestAggregate_MixedIntAndFloatInputs(t *testing.T) {
	// Values that crossed a jsonb boundary may arrive as ints.
	got := Aggregate(rollupOver(t, "sum"), []any{3, 5.0})
	assert.Equal(t, 8.0, got)
}

package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage_PrimarySummary(t *testing.T) {
	status := rawText("Status")
	notes := rawText("Notes")
	reg := mustRegistry(t, status, notes)
	statusID := defID(t, reg, "status")

	lastUsed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	summary := UsageSummary{
		statusID: {
			Screens:    []string{"Sprint Board", "Intake Form"},
			Reports:    []string{"Velocity"},
			UsageCount: 42,
			LastUsedAt: &lastUsed,
		},
	}

	report := Usage(reg, summary)

	assert.False(t, report.IsFallback)
	require.Len(t, report.Metrics, 2)

	byID := make(map[uuid.UUID]UsageMetric)
	for _, m := range report.Metrics {
		byID[m.FieldID] = m
	}
	assert.Equal(t, int64(42), byID[statusID].UsageCount)
	assert.Equal(t, "status", byID[statusID].APIName)
	// Definitions absent from the summary show up as unused, not missing.
	assert.Equal(t, int64(0), byID[defID(t, reg, "notes")].UsageCount)
}

func TestUsage_FallbackDerivesFromContexts(t *testing.T) {
	def := rawText("Status")
	def.Contexts = []string{"boards", "forms", "reports", "automations", "docs"}
	reg := mustRegistry(t, def)

	report := Usage(reg, nil)

	assert.True(t, report.IsFallback)
	require.Len(t, report.Metrics, 1)
	m := report.Metrics[0]
	assert.ElementsMatch(t, []string{"boards", "forms"}, m.Screens)
	assert.Equal(t, []string{"reports"}, m.Reports)
	assert.Equal(t, []string{"automations"}, m.Automations)
	assert.Equal(t, int64(0), m.UsageCount)
	assert.Nil(t, m.LastUsedAt)
}

func TestUsage_FallbackWithNoContextsIsEmptyMetric(t *testing.T) {
	reg := mustRegistry(t, rawText("Inert"))

	report := Usage(reg, nil)

	assert.True(t, report.IsFallback)
	require.Len(t, report.Metrics, 1)
	assert.Empty(t, report.Metrics[0].Screens)
	assert.Empty(t, report.Metrics[0].Reports)
	assert.Empty(t, report.Metrics[0].Automations)
}

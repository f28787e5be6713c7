package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"project-field-api/internal/client"
	"project-field-api/internal/domain"
	"project-field-api/internal/dto"
	"project-field-api/internal/engine"
	"project-field-api/internal/repository"
)

func mustJSON(t *testing.T, v any) datatypes.JSON {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return datatypes.JSON(b)
}

func TestRecordEvent_ValidatesField(t *testing.T) {
	defRepo := &MockFieldDefinitionRepository{} // FindByID -> not found
	svc := NewUsageService(&MockUsageRepository{}, defRepo, nil, nil)

	err := svc.RecordEvent(context.Background(), &dto.RecordUsageEventRequest{
		FieldID: uuid.NewString(),
		Surface: domain.UsageSurfaceScreen,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRecordEvent_StoresEvent(t *testing.T) {
	projectID := uuid.New()
	field := rowFromRaw(t, &projectID, engine.RawDefinition{Name: "Status", Type: "text"})

	defRepo := &MockFieldDefinitionRepository{
		FindByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.FieldDefinition, error) {
			return field, nil
		},
	}
	var recorded *domain.FieldUsageEvent
	usageRepo := &MockUsageRepository{
		RecordEventFunc: func(ctx context.Context, event *domain.FieldUsageEvent) error {
			recorded = event
			return nil
		},
	}
	svc := NewUsageService(usageRepo, defRepo, nil, nil)

	err := svc.RecordEvent(context.Background(), &dto.RecordUsageEventRequest{
		FieldID:    field.ID.String(),
		Surface:    domain.UsageSurfaceReport,
		SourceName: "sprint-report",
	})
	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.Equal(t, field.ID, recorded.FieldID)
	assert.Equal(t, domain.UsageSurfaceReport, recorded.Surface)
	assert.Equal(t, "sprint-report", recorded.SourceName)
	assert.False(t, recorded.OccurredAt.IsZero())
}

func TestGetUsageReport_FallsBackToContexts(t *testing.T) {
	projectID := uuid.New()
	field := rowFromRaw(t, &projectID, engine.RawDefinition{
		Name:     "Priority",
		Type:     "text",
		Contexts: []string{"boards", "reports"},
	})

	defRepo := &MockFieldDefinitionRepository{
		FindVisibleToProjectFunc: func(ctx context.Context, id uuid.UUID) ([]*domain.FieldDefinition, error) {
			return []*domain.FieldDefinition{field}, nil
		},
	}
	// MockUsageRepository defaults return ErrSummaryUnavailable everywhere
	svc := NewUsageService(&MockUsageRepository{}, defRepo, nil, nil)

	report, err := svc.GetUsageReport(context.Background(), projectID)
	require.NoError(t, err)
	assert.True(t, report.IsFallback)
	require.Len(t, report.Metrics, 1)
	assert.Equal(t, []string{"boards"}, report.Metrics[0].Screens)
	assert.Equal(t, []string{"reports"}, report.Metrics[0].Reports)
	assert.Zero(t, report.Metrics[0].UsageCount)
	assert.Nil(t, report.Metrics[0].LastUsedAt)
}

func TestGetUsageReport_UsesStoredSummaries(t *testing.T) {
	projectID := uuid.New()
	used := rowFromRaw(t, &projectID, engine.RawDefinition{Name: "Status", Type: "text"})
	idle := rowFromRaw(t, &projectID, engine.RawDefinition{Name: "Notes", Type: "text"})

	lastUsed := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	defRepo := &MockFieldDefinitionRepository{
		FindVisibleToProjectFunc: func(ctx context.Context, id uuid.UUID) ([]*domain.FieldDefinition, error) {
			return []*domain.FieldDefinition{used, idle}, nil
		},
	}
	usageRepo := &MockUsageRepository{
		GetSummariesFunc: func(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error) {
			assert.Len(t, fieldIDs, 2)
			return map[uuid.UUID]*domain.FieldUsageSummary{
				used.ID: {
					FieldID:     used.ID,
					Screens:     mustJSON(t, []string{"kanban", "detail"}),
					Reports:     mustJSON(t, []string{"sprint-report"}),
					Automations: mustJSON(t, []string{}),
					UsageCount:  17,
					LastUsedAt:  &lastUsed,
				},
			}, nil
		},
	}
	svc := NewUsageService(usageRepo, defRepo, nil, nil)

	report, err := svc.GetUsageReport(context.Background(), projectID)
	require.NoError(t, err)
	assert.False(t, report.IsFallback)
	require.Len(t, report.Metrics, 2)

	byID := map[uuid.UUID]dto.UsageMetricResponse{}
	for _, m := range report.Metrics {
		byID[m.FieldID] = m
	}
	assert.Equal(t, []string{"kanban", "detail"}, byID[used.ID].Screens)
	assert.Equal(t, int64(17), byID[used.ID].UsageCount)
	require.NotNil(t, byID[used.ID].LastUsedAt)
	assert.True(t, byID[used.ID].LastUsedAt.Equal(lastUsed))

	// A field absent from the summary reports as unused, not as fallback
	assert.Empty(t, byID[idle.ID].Screens)
	assert.Zero(t, byID[idle.ID].UsageCount)
}

func TestGetUsageReport_PrefersCachedSummaries(t *testing.T) {
	projectID := uuid.New()
	field := rowFromRaw(t, &projectID, engine.RawDefinition{Name: "Status", Type: "text"})

	defRepo := &MockFieldDefinitionRepository{
		FindVisibleToProjectFunc: func(ctx context.Context, id uuid.UUID) ([]*domain.FieldDefinition, error) {
			return []*domain.FieldDefinition{field}, nil
		},
	}
	usageRepo := &MockUsageRepository{
		GetCachedSummaryFunc: func(ctx context.Context, fieldID uuid.UUID) (*domain.FieldUsageSummary, error) {
			return &domain.FieldUsageSummary{
				FieldID:    fieldID,
				Screens:    mustJSON(t, []string{"kanban"}),
				UsageCount: 3,
			}, nil
		},
		GetSummariesFunc: func(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error) {
			t.Fatal("database lookup must be skipped on a full cache hit")
			return nil, repository.ErrSummaryUnavailable
		},
	}
	svc := NewUsageService(usageRepo, defRepo, nil, nil)

	report, err := svc.GetUsageReport(context.Background(), projectID)
	require.NoError(t, err)
	assert.False(t, report.IsFallback)
	require.Len(t, report.Metrics, 1)
	assert.Equal(t, int64(3), report.Metrics[0].UsageCount)
}

func TestExportUsageCSV(t *testing.T) {
	projectID := uuid.New()
	field := rowFromRaw(t, &projectID, engine.RawDefinition{
		Name:     "Priority",
		Type:     "text",
		Contexts: []string{"boards"},
	})

	defRepo := &MockFieldDefinitionRepository{
		FindVisibleToProjectFunc: func(ctx context.Context, id uuid.UUID) ([]*domain.FieldDefinition, error) {
			return []*domain.FieldDefinition{field}, nil
		},
	}
	exporter := client.NewMockUsageExporter()
	svc := NewUsageService(&MockUsageRepository{}, defRepo, exporter, nil)

	url, err := svc.ExportUsageCSV(context.Background(), projectID)
	require.NoError(t, err)
	assert.Contains(t, url, "usage/"+projectID.String())

	require.Len(t, exporter.Uploads, 1)
	for key, body := range exporter.Uploads {
		assert.True(t, strings.HasPrefix(key, "usage/"+projectID.String()+"/"))
		assert.True(t, strings.HasSuffix(key, ".csv"))

		lines := strings.Split(strings.TrimSpace(string(body)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "field_id,api_name,screens,reports,automations,usage_count,last_used_at,is_fallback", lines[0])
		assert.Contains(t, lines[1], field.ID.String())
		assert.Contains(t, lines[1], "priority")
		assert.Contains(t, lines[1], "true") // fallback column
	}
}

func TestExportUsageCSV_RequiresExporter(t *testing.T) {
	svc := NewUsageService(&MockUsageRepository{}, &MockFieldDefinitionRepository{}, nil, nil)
	_, err := svc.ExportUsageCSV(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

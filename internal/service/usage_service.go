package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"project-field-api/internal/client"
	"project-field-api/internal/domain"
	"project-field-api/internal/dto"
	"project-field-api/internal/engine"
	"project-field-api/internal/metrics"
	"project-field-api/internal/repository"
	"project-field-api/internal/response"
)

// UsageService defines the interface for field usage business logic
type UsageService interface {
	RecordEvent(ctx context.Context, req *dto.RecordUsageEventRequest) error
	GetUsageReport(ctx context.Context, projectID uuid.UUID) (*dto.UsageReportResponse, error)
	ExportUsageCSV(ctx context.Context, projectID uuid.UUID) (string, error)
}

// usageServiceImpl is the implementation of UsageService
type usageServiceImpl struct {
	usageRepo      repository.UsageRepository
	definitionRepo repository.FieldDefinitionRepository
	exporter       client.UsageExporter
	metrics        *metrics.Metrics
}

// NewUsageService creates a new instance of UsageService. The exporter may be
// nil, which disables CSV export.
func NewUsageService(usageRepo repository.UsageRepository, definitionRepo repository.FieldDefinitionRepository, exporter client.UsageExporter, m *metrics.Metrics) UsageService {
	return &usageServiceImpl{
		usageRepo:      usageRepo,
		definitionRepo: definitionRepo,
		exporter:       exporter,
		metrics:        m,
	}
}

// RecordEvent records one usage event for later aggregation
func (s *usageServiceImpl) RecordEvent(ctx context.Context, req *dto.RecordUsageEventRequest) error {
	fieldID, err := uuid.Parse(req.FieldID)
	if err != nil {
		return response.NewValidationError("Invalid field id", err.Error())
	}
	if _, err := s.definitionRepo.FindByID(ctx, fieldID); err != nil {
		return response.NewNotFoundError("Field definition not found", "")
	}

	event := &domain.FieldUsageEvent{
		FieldID:    fieldID,
		Surface:    req.Surface,
		SourceName: req.SourceName,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.usageRepo.RecordEvent(ctx, event); err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to record usage event", err.Error())
	}
	return nil
}

// GetUsageReport returns usage metrics for every field a project sees. When
// no aggregated summary exists yet, the report falls back to deriving usage
// surfaces from each definition's declared contexts and says so.
func (s *usageServiceImpl) GetUsageReport(ctx context.Context, projectID uuid.UUID) (*dto.UsageReportResponse, error) {
	reg, err := s.loadRegistry(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary, err := s.loadSummary(ctx, reg)
	if err != nil {
		if !errors.Is(err, repository.ErrSummaryUnavailable) {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load usage summary", err.Error())
		}
		summary = nil
	}

	report := engine.Usage(reg, summary)
	if report.IsFallback && s.metrics != nil {
		s.metrics.IncrementUsageFallback()
	}

	resp := &dto.UsageReportResponse{IsFallback: report.IsFallback}
	for _, m := range report.Metrics {
		resp.Metrics = append(resp.Metrics, dto.UsageMetricResponse{
			FieldID:     m.FieldID,
			APIName:     m.APIName,
			Screens:     m.Screens,
			Reports:     m.Reports,
			Automations: m.Automations,
			UsageCount:  m.UsageCount,
			LastUsedAt:  m.LastUsedAt,
		})
	}
	return resp, nil
}

// ExportUsageCSV renders the current usage report as CSV and uploads it,
// returning the download URL
func (s *usageServiceImpl) ExportUsageCSV(ctx context.Context, projectID uuid.UUID) (string, error) {
	if s.exporter == nil {
		return "", response.NewAppError(response.ErrCodeInternal, "Usage export is not configured", "")
	}

	report, err := s.GetUsageReport(ctx, projectID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"field_id", "api_name", "screens", "reports", "automations", "usage_count", "last_used_at", "is_fallback"})
	for _, m := range report.Metrics {
		lastUsed := ""
		if m.LastUsedAt != nil {
			lastUsed = m.LastUsedAt.UTC().Format(time.RFC3339)
		}
		_ = w.Write([]string{
			m.FieldID.String(),
			m.APIName,
			strings.Join(m.Screens, ";"),
			strings.Join(m.Reports, ";"),
			strings.Join(m.Automations, ";"),
			strconv.FormatInt(m.UsageCount, 10),
			lastUsed,
			strconv.FormatBool(report.IsFallback),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", response.NewAppError(response.ErrCodeInternal, "Failed to render usage CSV", err.Error())
	}

	key := fmt.Sprintf("usage/%s/%s.csv", projectID, time.Now().UTC().Format("2006-01-02T150405"))
	url, err := s.exporter.UploadReport(ctx, key, buf.Bytes())
	if err != nil {
		return "", response.NewAppError(response.ErrCodeInternal, "Failed to upload usage CSV", err.Error())
	}
	return url, nil
}

// loadSummary reads summaries cache-first and converts them to the engine
// shape. Returns repository.ErrSummaryUnavailable when nothing is aggregated.
func (s *usageServiceImpl) loadSummary(ctx context.Context, reg *engine.Registry) (engine.UsageSummary, error) {
	defs := reg.Definitions()
	ids := make([]uuid.UUID, 0, len(defs))
	rows := make(map[uuid.UUID]*domain.FieldUsageSummary, len(defs))

	for _, def := range defs {
		if row, err := s.usageRepo.GetCachedSummary(ctx, def.ID); err == nil {
			rows[def.ID] = row
			continue
		}
		ids = append(ids, def.ID)
	}

	if len(ids) > 0 {
		fromDB, err := s.usageRepo.GetSummaries(ctx, ids)
		if err != nil {
			if !errors.Is(err, repository.ErrSummaryUnavailable) || len(rows) == 0 {
				return nil, err
			}
		}
		for id, row := range fromDB {
			rows[id] = row
		}
	}
	if len(rows) == 0 {
		return nil, repository.ErrSummaryUnavailable
	}

	summary := engine.UsageSummary{}
	for id, row := range rows {
		metric := engine.UsageMetric{
			UsageCount: row.UsageCount,
			LastUsedAt: row.LastUsedAt,
		}
		if err := decodeStringList(row.Screens, &metric.Screens); err != nil {
			return nil, err
		}
		if err := decodeStringList(row.Reports, &metric.Reports); err != nil {
			return nil, err
		}
		if err := decodeStringList(row.Automations, &metric.Automations); err != nil {
			return nil, err
		}
		summary[id] = metric
	}
	return summary, nil
}

func (s *usageServiceImpl) loadRegistry(ctx context.Context, projectID uuid.UUID) (*engine.Registry, error) {
	rows, err := s.definitionRepo.FindVisibleToProject(ctx, projectID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to fetch field definitions", err.Error())
	}
	raws := make([]engine.RawDefinition, 0, len(rows))
	for _, row := range rows {
		raw, err := row.ToRaw()
		if err != nil {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode definition", err.Error())
		}
		raws = append(raws, raw)
	}
	reg, err := engine.NormalizeSet(raws)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func decodeStringList(raw []byte, out *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

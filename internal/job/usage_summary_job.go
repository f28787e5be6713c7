package job

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"project-field-api/internal/domain"
	"project-field-api/internal/repository"
)

// UsageSummaryJob folds raw usage events into per-field summaries. Each run
// rebuilds the aggregates from the full event history, upserts them and warms
// the cache, so the report endpoint can serve without the fallback path.
type UsageSummaryJob struct {
	usageRepo repository.UsageRepository
	logger    *zap.Logger
}

// NewUsageSummaryJob creates a new UsageSummaryJob instance
func NewUsageSummaryJob(usageRepo repository.UsageRepository, logger *zap.Logger) *UsageSummaryJob {
	return &UsageSummaryJob{
		usageRepo: usageRepo,
		logger:    logger,
	}
}

// Run aggregates usage events into summaries
func (j *UsageSummaryJob) Run() {
	ctx := context.Background()

	events, err := j.usageRepo.FindEventsSince(ctx, time.Time{})
	if err != nil {
		j.logger.Error("Failed to load usage events", zap.Error(err))
		return
	}
	if len(events) == 0 {
		j.logger.Debug("No usage events, skipping summary")
		return
	}

	summaries, err := j.fold(events)
	if err != nil {
		j.logger.Error("Failed to aggregate usage events", zap.Error(err))
		return
	}

	stored := 0
	for _, summary := range summaries {
		if err := j.usageRepo.UpsertSummary(ctx, summary); err != nil {
			j.logger.Error("Failed to upsert usage summary",
				zap.String("field_id", summary.FieldID.String()),
				zap.Error(err),
			)
			continue
		}
		stored++
	}

	if err := j.usageRepo.CacheSummaries(ctx, summaries); err != nil {
		j.logger.Warn("Failed to cache usage summaries", zap.Error(err))
	}

	j.logger.Info("Usage summary job completed",
		zap.Int("events", len(events)),
		zap.Int("summaries", stored),
	)
}

// fold groups events by field and collects distinct source names per surface
func (j *UsageSummaryJob) fold(events []*domain.FieldUsageEvent) ([]*domain.FieldUsageSummary, error) {
	type accumulator struct {
		screens     map[string]bool
		reports     map[string]bool
		automations map[string]bool
		count       int64
		lastUsedAt  time.Time
	}

	byField := map[uuid.UUID]*accumulator{}
	var order []uuid.UUID

	for _, event := range events {
		acc, ok := byField[event.FieldID]
		if !ok {
			acc = &accumulator{
				screens:     map[string]bool{},
				reports:     map[string]bool{},
				automations: map[string]bool{},
			}
			byField[event.FieldID] = acc
			order = append(order, event.FieldID)
		}

		switch event.Surface {
		case domain.UsageSurfaceScreen:
			acc.screens[event.SourceName] = true
		case domain.UsageSurfaceReport:
			acc.reports[event.SourceName] = true
		case domain.UsageSurfaceAutomation:
			acc.automations[event.SourceName] = true
		}
		acc.count++
		if event.OccurredAt.After(acc.lastUsedAt) {
			acc.lastUsedAt = event.OccurredAt
		}
	}

	now := time.Now().UTC()
	summaries := make([]*domain.FieldUsageSummary, 0, len(order))
	for _, fieldID := range order {
		acc := byField[fieldID]
		screens, err := json.Marshal(sortedKeys(acc.screens))
		if err != nil {
			return nil, err
		}
		reports, err := json.Marshal(sortedKeys(acc.reports))
		if err != nil {
			return nil, err
		}
		automations, err := json.Marshal(sortedKeys(acc.automations))
		if err != nil {
			return nil, err
		}

		lastUsed := acc.lastUsedAt
		summaries = append(summaries, &domain.FieldUsageSummary{
			FieldID:     fieldID,
			Screens:     screens,
			Reports:     reports,
			Automations: automations,
			UsageCount:  acc.count,
			LastUsedAt:  &lastUsed,
			ComputedAt:  now,
		})
	}
	return summaries, nil
}

// sortedKeys keeps the serialized source-name arrays deterministic
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"project-field-api/internal/domain"
)

// ErrSummaryUnavailable signals that no usage summary has been computed yet.
// Callers fall back to deriving usage from definition contexts.
var ErrSummaryUnavailable = errors.New("usage summary unavailable")

const (
	usageCacheKeyPrefix = "field_usage_summary:"
	usageCacheTTL       = 30 * time.Minute
)

// UsageRepository defines the interface for usage event and summary data access
type UsageRepository interface {
	RecordEvent(ctx context.Context, event *domain.FieldUsageEvent) error
	FindEventsSince(ctx context.Context, since time.Time) ([]*domain.FieldUsageEvent, error)
	UpsertSummary(ctx context.Context, summary *domain.FieldUsageSummary) error
	GetSummaries(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error)
	CacheSummaries(ctx context.Context, summaries []*domain.FieldUsageSummary) error
	GetCachedSummary(ctx context.Context, fieldID uuid.UUID) (*domain.FieldUsageSummary, error)
}

// usageRepositoryImpl is the GORM implementation of UsageRepository with a
// Redis read-through cache in front of the summary table
type usageRepositoryImpl struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewUsageRepository creates a new instance of UsageRepository. The redis
// client may be nil, in which case caching is skipped.
func NewUsageRepository(db *gorm.DB, redisClient *redis.Client) UsageRepository {
	return &usageRepositoryImpl{db: db, redis: redisClient}
}

// RecordEvent records one usage event
func (r *usageRepositoryImpl) RecordEvent(ctx context.Context, event *domain.FieldUsageEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return err
	}
	return nil
}

// FindEventsSince finds all usage events recorded at or after the given time
func (r *usageRepositoryImpl) FindEventsSince(ctx context.Context, since time.Time) ([]*domain.FieldUsageEvent, error) {
	var events []*domain.FieldUsageEvent
	if err := r.db.WithContext(ctx).
		Where("occurred_at >= ?", since).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// UpsertSummary inserts or replaces the summary row of one field
func (r *usageRepositoryImpl) UpsertSummary(ctx context.Context, summary *domain.FieldUsageSummary) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "field_id"}},
			UpdateAll: true,
		}).
		Create(summary).Error; err != nil {
		return err
	}
	return nil
}

// GetSummaries loads the summary rows of the given fields. Returns
// ErrSummaryUnavailable when none of them have a computed summary.
func (r *usageRepositoryImpl) GetSummaries(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error) {
	if len(fieldIDs) == 0 {
		return map[uuid.UUID]*domain.FieldUsageSummary{}, nil
	}
	var rows []*domain.FieldUsageSummary
	if err := r.db.WithContext(ctx).
		Where("field_id IN ?", fieldIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrSummaryUnavailable
	}
	summaries := make(map[uuid.UUID]*domain.FieldUsageSummary, len(rows))
	for _, row := range rows {
		summaries[row.FieldID] = row
	}
	return summaries, nil
}

// CacheSummaries warms the Redis cache with freshly computed summaries
func (r *usageRepositoryImpl) CacheSummaries(ctx context.Context, summaries []*domain.FieldUsageSummary) error {
	if r.redis == nil {
		return nil
	}
	for _, summary := range summaries {
		payload, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		key := usageCacheKeyPrefix + summary.FieldID.String()
		if err := r.redis.Set(ctx, key, payload, usageCacheTTL).Err(); err != nil {
			return err
		}
	}
	return nil
}

// GetCachedSummary reads one summary from the Redis cache. A cache miss or an
// absent client returns ErrSummaryUnavailable so the caller moves on to the
// database.
func (r *usageRepositoryImpl) GetCachedSummary(ctx context.Context, fieldID uuid.UUID) (*domain.FieldUsageSummary, error) {
	if r.redis == nil {
		return nil, ErrSummaryUnavailable
	}
	payload, err := r.redis.Get(ctx, usageCacheKeyPrefix+fieldID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSummaryUnavailable
		}
		return nil, err
	}
	var summary domain.FieldUsageSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"project-field-api/internal/domain"
	"project-field-api/internal/repository"
)

// MockFieldDefinitionRepository is a mock implementation of FieldDefinitionRepository
type MockFieldDefinitionRepository struct {
	CreateFunc               func(ctx context.Context, def *domain.FieldDefinition) error
	FindByIDFunc             func(ctx context.Context, id uuid.UUID) (*domain.FieldDefinition, error)
	FindByScopeFunc          func(ctx context.Context, projectID *uuid.UUID) ([]*domain.FieldDefinition, error)
	FindVisibleToProjectFunc func(ctx context.Context, projectID uuid.UUID) ([]*domain.FieldDefinition, error)
	FindBySourceFieldIDFunc  func(ctx context.Context, sourceID uuid.UUID) ([]*domain.FieldDefinition, error)
	FindDerivedFunc          func(ctx context.Context) ([]*domain.FieldDefinition, error)
	CountRuleReferencesFunc  func(ctx context.Context, fieldID uuid.UUID) (int64, error)
	UpdateFunc               func(ctx context.Context, def *domain.FieldDefinition) error
	UpdateNeedsReconfirmFunc func(ctx context.Context, ids []uuid.UUID, needsReconfirm bool) error
	DeleteFunc               func(ctx context.Context, id uuid.UUID) error
}

func (m *MockFieldDefinitionRepository) Create(ctx context.Context, def *domain.FieldDefinition) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, def)
	}
	return nil
}

func (m *MockFieldDefinitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FieldDefinition, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockFieldDefinitionRepository) FindByScope(ctx context.Context, projectID *uuid.UUID) ([]*domain.FieldDefinition, error) {
	if m.FindByScopeFunc != nil {
		return m.FindByScopeFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *MockFieldDefinitionRepository) FindVisibleToProject(ctx context.Context, projectID uuid.UUID) ([]*domain.FieldDefinition, error) {
	if m.FindVisibleToProjectFunc != nil {
		return m.FindVisibleToProjectFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *MockFieldDefinitionRepository) FindBySourceFieldID(ctx context.Context, sourceID uuid.UUID) ([]*domain.FieldDefinition, error) {
	if m.FindBySourceFieldIDFunc != nil {
		return m.FindBySourceFieldIDFunc(ctx, sourceID)
	}
	return nil, nil
}

func (m *MockFieldDefinitionRepository) FindDerived(ctx context.Context) ([]*domain.FieldDefinition, error) {
	if m.FindDerivedFunc != nil {
		return m.FindDerivedFunc(ctx)
	}
	return nil, nil
}

func (m *MockFieldDefinitionRepository) CountRuleReferences(ctx context.Context, fieldID uuid.UUID) (int64, error) {
	if m.CountRuleReferencesFunc != nil {
		return m.CountRuleReferencesFunc(ctx, fieldID)
	}
	return 0, nil
}

func (m *MockFieldDefinitionRepository) Update(ctx context.Context, def *domain.FieldDefinition) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, def)
	}
	return nil
}

func (m *MockFieldDefinitionRepository) UpdateNeedsReconfirm(ctx context.Context, ids []uuid.UUID, needsReconfirm bool) error {
	if m.UpdateNeedsReconfirmFunc != nil {
		return m.UpdateNeedsReconfirmFunc(ctx, ids, needsReconfirm)
	}
	return nil
}

func (m *MockFieldDefinitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockBoardRepository is a mock implementation of BoardRepository
type MockBoardRepository struct {
	CreateFunc             func(ctx context.Context, board *domain.Board) error
	FindByIDFunc           func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	FindByProjectIDFunc    func(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error)
	FindProjectIDsFunc     func(ctx context.Context) ([]uuid.UUID, error)
	FindChildrenFunc       func(ctx context.Context, parentID uuid.UUID) ([]*domain.Board, error)
	FindParentFunc         func(ctx context.Context, board *domain.Board) (*domain.Board, error)
	UpdateCustomFieldsFunc func(ctx context.Context, board *domain.Board) error
	UpdateFunc             func(ctx context.Context, board *domain.Board) error
	DeleteFunc             func(ctx context.Context, id uuid.UUID) error
}

func (m *MockBoardRepository) Create(ctx context.Context, board *domain.Board) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, board)
	}
	return nil
}

func (m *MockBoardRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockBoardRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error) {
	if m.FindByProjectIDFunc != nil {
		return m.FindByProjectIDFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *MockBoardRepository) FindProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.FindProjectIDsFunc != nil {
		return m.FindProjectIDsFunc(ctx)
	}
	return nil, nil
}

func (m *MockBoardRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Board, error) {
	if m.FindChildrenFunc != nil {
		return m.FindChildrenFunc(ctx, parentID)
	}
	return nil, nil
}

func (m *MockBoardRepository) FindParent(ctx context.Context, board *domain.Board) (*domain.Board, error) {
	if m.FindParentFunc != nil {
		return m.FindParentFunc(ctx, board)
	}
	return nil, nil
}

func (m *MockBoardRepository) UpdateCustomFields(ctx context.Context, board *domain.Board) error {
	if m.UpdateCustomFieldsFunc != nil {
		return m.UpdateCustomFieldsFunc(ctx, board)
	}
	return nil
}

func (m *MockBoardRepository) Update(ctx context.Context, board *domain.Board) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, board)
	}
	return nil
}

func (m *MockBoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockUsageRepository is a mock implementation of UsageRepository
type MockUsageRepository struct {
	RecordEventFunc      func(ctx context.Context, event *domain.FieldUsageEvent) error
	FindEventsSinceFunc  func(ctx context.Context, since time.Time) ([]*domain.FieldUsageEvent, error)
	UpsertSummaryFunc    func(ctx context.Context, summary *domain.FieldUsageSummary) error
	GetSummariesFunc     func(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error)
	CacheSummariesFunc   func(ctx context.Context, summaries []*domain.FieldUsageSummary) error
	GetCachedSummaryFunc func(ctx context.Context, fieldID uuid.UUID) (*domain.FieldUsageSummary, error)
}

func (m *MockUsageRepository) RecordEvent(ctx context.Context, event *domain.FieldUsageEvent) error {
	if m.RecordEventFunc != nil {
		return m.RecordEventFunc(ctx, event)
	}
	return nil
}

func (m *MockUsageRepository) FindEventsSince(ctx context.Context, since time.Time) ([]*domain.FieldUsageEvent, error) {
	if m.FindEventsSinceFunc != nil {
		return m.FindEventsSinceFunc(ctx, since)
	}
	return nil, nil
}

func (m *MockUsageRepository) UpsertSummary(ctx context.Context, summary *domain.FieldUsageSummary) error {
	if m.UpsertSummaryFunc != nil {
		return m.UpsertSummaryFunc(ctx, summary)
	}
	return nil
}

func (m *MockUsageRepository) GetSummaries(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error) {
	if m.GetSummariesFunc != nil {
		return m.GetSummariesFunc(ctx, fieldIDs)
	}
	return nil, repository.ErrSummaryUnavailable
}

func (m *MockUsageRepository) CacheSummaries(ctx context.Context, summaries []*domain.FieldUsageSummary) error {
	if m.CacheSummariesFunc != nil {
		return m.CacheSummariesFunc(ctx, summaries)
	}
	return nil
}

func (m *MockUsageRepository) GetCachedSummary(ctx context.Context, fieldID uuid.UUID) (*domain.FieldUsageSummary, error) {
	if m.GetCachedSummaryFunc != nil {
		return m.GetCachedSummaryFunc(ctx, fieldID)
	}
	return nil, repository.ErrSummaryUnavailable
}

package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"project-field-api/internal/domain"
	"project-field-api/internal/dto"
)

// MockFieldDefinitionRepository is a mock implementation of FieldDefinitionRepository
type MockFieldDefinitionRepository struct {
	mock.Mock
}

func (m *MockFieldDefinitionRepository) Create(ctx context.Context, def *domain.FieldDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockFieldDefinitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FieldDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FieldDefinition), args.Error(1)
}

func (m *MockFieldDefinitionRepository) FindByScope(ctx context.Context, projectID *uuid.UUID) ([]*domain.FieldDefinition, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FieldDefinition), args.Error(1)
}

func (m *MockFieldDefinitionRepository) FindVisibleToProject(ctx context.Context, projectID uuid.UUID) ([]*domain.FieldDefinition, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FieldDefinition), args.Error(1)
}

func (m *MockFieldDefinitionRepository) FindBySourceFieldID(ctx context.Context, sourceID uuid.UUID) ([]*domain.FieldDefinition, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FieldDefinition), args.Error(1)
}

func (m *MockFieldDefinitionRepository) FindDerived(ctx context.Context) ([]*domain.FieldDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FieldDefinition), args.Error(1)
}

func (m *MockFieldDefinitionRepository) CountRuleReferences(ctx context.Context, fieldID uuid.UUID) (int64, error) {
	args := m.Called(ctx, fieldID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFieldDefinitionRepository) Update(ctx context.Context, def *domain.FieldDefinition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockFieldDefinitionRepository) UpdateNeedsReconfirm(ctx context.Context, ids []uuid.UUID, needsReconfirm bool) error {
	args := m.Called(ctx, ids, needsReconfirm)
	return args.Error(0)
}

func (m *MockFieldDefinitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBoardRepository is a mock implementation of BoardRepository
type MockBoardRepository struct {
	mock.Mock
}

func (m *MockBoardRepository) Create(ctx context.Context, board *domain.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Board), args.Error(1)
}

func (m *MockBoardRepository) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Board), args.Error(1)
}

func (m *MockBoardRepository) FindProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockBoardRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Board, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Board), args.Error(1)
}

func (m *MockBoardRepository) FindParent(ctx context.Context, board *domain.Board) (*domain.Board, error) {
	args := m.Called(ctx, board)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Board), args.Error(1)
}

func (m *MockBoardRepository) UpdateCustomFields(ctx context.Context, board *domain.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardRepository) Update(ctx context.Context, board *domain.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUsageRepository is a mock implementation of UsageRepository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) RecordEvent(ctx context.Context, event *domain.FieldUsageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockUsageRepository) FindEventsSince(ctx context.Context, since time.Time) ([]*domain.FieldUsageEvent, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FieldUsageEvent), args.Error(1)
}

func (m *MockUsageRepository) UpsertSummary(ctx context.Context, summary *domain.FieldUsageSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockUsageRepository) GetSummaries(ctx context.Context, fieldIDs []uuid.UUID) (map[uuid.UUID]*domain.FieldUsageSummary, error) {
	args := m.Called(ctx, fieldIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.FieldUsageSummary), args.Error(1)
}

func (m *MockUsageRepository) CacheSummaries(ctx context.Context, summaries []*domain.FieldUsageSummary) error {
	args := m.Called(ctx, summaries)
	return args.Error(0)
}

func (m *MockUsageRepository) GetCachedSummary(ctx context.Context, fieldID uuid.UUID) (*domain.FieldUsageSummary, error) {
	args := m.Called(ctx, fieldID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FieldUsageSummary), args.Error(1)
}

// MockFieldValueService is a mock implementation of FieldValueService
type MockFieldValueService struct {
	mock.Mock
}

func (m *MockFieldValueService) CreateBoard(ctx context.Context, projectID, authorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
	args := m.Called(ctx, projectID, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BoardResponse), args.Error(1)
}

func (m *MockFieldValueService) GetBoardValues(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BoardFieldValuesResponse), args.Error(1)
}

func (m *MockFieldValueService) SetBoardValues(ctx context.Context, boardID uuid.UUID, req *dto.SetFieldValuesRequest) (*dto.BoardFieldValuesResponse, error) {
	args := m.Called(ctx, boardID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BoardFieldValuesResponse), args.Error(1)
}

func (m *MockFieldValueService) RefreshBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BoardFieldValuesResponse), args.Error(1)
}

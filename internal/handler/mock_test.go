package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"project-field-api/internal/dto"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// MockFieldDefinitionService is a mock implementation of FieldDefinitionService
type MockFieldDefinitionService struct {
	CreateDefinitionFunc func(ctx context.Context, projectID *uuid.UUID, req *dto.CreateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error)
	GetDefinitionFunc    func(ctx context.Context, id uuid.UUID) (*dto.FieldDefinitionResponse, error)
	GetDefinitionsFunc   func(ctx context.Context, projectID uuid.UUID) ([]*dto.FieldDefinitionResponse, error)
	UpdateDefinitionFunc func(ctx context.Context, id uuid.UUID, req *dto.UpdateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error)
	DeleteDefinitionFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *MockFieldDefinitionService) CreateDefinition(ctx context.Context, projectID *uuid.UUID, req *dto.CreateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error) {
	if m.CreateDefinitionFunc != nil {
		return m.CreateDefinitionFunc(ctx, projectID, req)
	}
	return nil, nil
}

func (m *MockFieldDefinitionService) GetDefinition(ctx context.Context, id uuid.UUID) (*dto.FieldDefinitionResponse, error) {
	if m.GetDefinitionFunc != nil {
		return m.GetDefinitionFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockFieldDefinitionService) GetDefinitions(ctx context.Context, projectID uuid.UUID) ([]*dto.FieldDefinitionResponse, error) {
	if m.GetDefinitionsFunc != nil {
		return m.GetDefinitionsFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *MockFieldDefinitionService) UpdateDefinition(ctx context.Context, id uuid.UUID, req *dto.UpdateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error) {
	if m.UpdateDefinitionFunc != nil {
		return m.UpdateDefinitionFunc(ctx, id, req)
	}
	return nil, nil
}

func (m *MockFieldDefinitionService) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	if m.DeleteDefinitionFunc != nil {
		return m.DeleteDefinitionFunc(ctx, id)
	}
	return nil
}

// MockFieldValueService is a mock implementation of FieldValueService
type MockFieldValueService struct {
	CreateBoardFunc    func(ctx context.Context, projectID, authorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error)
	GetBoardValuesFunc func(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error)
	SetBoardValuesFunc func(ctx context.Context, boardID uuid.UUID, req *dto.SetFieldValuesRequest) (*dto.BoardFieldValuesResponse, error)
	RefreshBoardFunc   func(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error)
}

func (m *MockFieldValueService) CreateBoard(ctx context.Context, projectID, authorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
	if m.CreateBoardFunc != nil {
		return m.CreateBoardFunc(ctx, projectID, authorID, req)
	}
	return nil, nil
}

func (m *MockFieldValueService) GetBoardValues(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error) {
	if m.GetBoardValuesFunc != nil {
		return m.GetBoardValuesFunc(ctx, boardID)
	}
	return nil, nil
}

func (m *MockFieldValueService) SetBoardValues(ctx context.Context, boardID uuid.UUID, req *dto.SetFieldValuesRequest) (*dto.BoardFieldValuesResponse, error) {
	if m.SetBoardValuesFunc != nil {
		return m.SetBoardValuesFunc(ctx, boardID, req)
	}
	return nil, nil
}

func (m *MockFieldValueService) RefreshBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error) {
	if m.RefreshBoardFunc != nil {
		return m.RefreshBoardFunc(ctx, boardID)
	}
	return nil, nil
}

// MockUsageService is a mock implementation of UsageService
type MockUsageService struct {
	RecordEventFunc    func(ctx context.Context, req *dto.RecordUsageEventRequest) error
	GetUsageReportFunc func(ctx context.Context, projectID uuid.UUID) (*dto.UsageReportResponse, error)
	ExportUsageCSVFunc func(ctx context.Context, projectID uuid.UUID) (string, error)
}

func (m *MockUsageService) RecordEvent(ctx context.Context, req *dto.RecordUsageEventRequest) error {
	if m.RecordEventFunc != nil {
		return m.RecordEventFunc(ctx, req)
	}
	return nil
}

func (m *MockUsageService) GetUsageReport(ctx context.Context, projectID uuid.UUID) (*dto.UsageReportResponse, error) {
	if m.GetUsageReportFunc != nil {
		return m.GetUsageReportFunc(ctx, projectID)
	}
	return nil, nil
}

func (m *MockUsageService) ExportUsageCSV(ctx context.Context, projectID uuid.UUID) (string, error) {
	if m.ExportUsageCSVFunc != nil {
		return m.ExportUsageCSVFunc(ctx, projectID)
	}
	return "", nil
}

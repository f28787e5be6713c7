package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"project-field-api/internal/domain"
	"project-field-api/internal/dto"
	"project-field-api/internal/engine"
	"project-field-api/internal/metrics"
	"project-field-api/internal/repository"
	"project-field-api/internal/response"
)

// FieldDefinitionService defines the interface for field definition business logic
type FieldDefinitionService interface {
	CreateDefinition(ctx context.Context, projectID *uuid.UUID, req *dto.CreateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error)
	GetDefinition(ctx context.Context, id uuid.UUID) (*dto.FieldDefinitionResponse, error)
	GetDefinitions(ctx context.Context, projectID uuid.UUID) ([]*dto.FieldDefinitionResponse, error)
	UpdateDefinition(ctx context.Context, id uuid.UUID, req *dto.UpdateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error)
	DeleteDefinition(ctx context.Context, id uuid.UUID) error
}

// fieldDefinitionServiceImpl is the implementation of FieldDefinitionService
type fieldDefinitionServiceImpl struct {
	definitionRepo repository.FieldDefinitionRepository
	metrics        *metrics.Metrics
}

// NewFieldDefinitionService creates a new instance of FieldDefinitionService
func NewFieldDefinitionService(definitionRepo repository.FieldDefinitionRepository, m *metrics.Metrics) FieldDefinitionService {
	return &fieldDefinitionServiceImpl{
		definitionRepo: definitionRepo,
		metrics:        m,
	}
}

// CreateDefinition validates a new definition against the full set it will
// live in, then persists its normalized form. Definition errors from the
// normalizer (unknown type, bad formula, dangling reference, cycle) pass
// through for the handler to map.
func (s *fieldDefinitionServiceImpl) CreateDefinition(ctx context.Context, projectID *uuid.UUID, req *dto.CreateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error) {
	raw := req.ToRawDefinition()
	raw.ID = uuid.NewString()
	if projectID == nil {
		raw.Scope = string(engine.ScopeGlobal)
	}

	raws, err := s.loadRawSet(ctx, projectID)
	if err != nil {
		return nil, err
	}
	raws = append(raws, raw)

	reg, err := engine.NormalizeSet(raws)
	if err != nil {
		return nil, err
	}

	normalized, ok := reg.Get(uuid.MustParse(raw.ID))
	if !ok {
		return nil, response.NewAppError(response.ErrCodeInternal, "Normalized definition missing from set", "")
	}

	row := &domain.FieldDefinition{ProjectID: projectID}
	row.ID = normalized.ID
	if err := row.FromRaw(engine.Serialize(*normalized)); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode definition", err.Error())
	}
	if err := s.definitionRepo.Create(ctx, row); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to create field definition", err.Error())
	}

	if s.metrics != nil {
		s.metrics.IncrementDefinitionCreated()
	}

	resp := dto.FieldDefinitionResponseFromRaw(engine.Serialize(*normalized), projectID)
	resp.CreatedAt = row.CreatedAt
	resp.UpdatedAt = row.UpdatedAt
	return &resp, nil
}

// GetDefinition retrieves one definition in normalized form
func (s *fieldDefinitionServiceImpl) GetDefinition(ctx context.Context, id uuid.UUID) (*dto.FieldDefinitionResponse, error) {
	row, err := s.definitionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Field definition not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to fetch field definition", err.Error())
	}

	raw, err := row.ToRaw()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode definition", err.Error())
	}
	raw.CreatedAt = row.CreatedAt
	raw.UpdatedAt = row.UpdatedAt
	resp := dto.FieldDefinitionResponseFromRaw(raw, row.ProjectID)
	return &resp, nil
}

// GetDefinitions retrieves the normalized definition set a project sees:
// its own definitions plus the workspace-global ones
func (s *fieldDefinitionServiceImpl) GetDefinitions(ctx context.Context, projectID uuid.UUID) ([]*dto.FieldDefinitionResponse, error) {
	rows, err := s.definitionRepo.FindVisibleToProject(ctx, projectID)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to fetch field definitions", err.Error())
	}

	responses := make([]*dto.FieldDefinitionResponse, 0, len(rows))
	for _, row := range rows {
		raw, err := row.ToRaw()
		if err != nil {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode definition", err.Error())
		}
		raw.CreatedAt = row.CreatedAt
		raw.UpdatedAt = row.UpdatedAt
		resp := dto.FieldDefinitionResponseFromRaw(raw, row.ProjectID)
		responses = append(responses, &resp)
	}
	return responses, nil
}

// UpdateDefinition applies a partial update and re-validates the whole set.
// When the update changes the value type a rollup or mirror reads from, the
// dependents are flagged for reconfirmation instead of being recomputed
// against a configuration that may no longer make sense.
func (s *fieldDefinitionServiceImpl) UpdateDefinition(ctx context.Context, id uuid.UUID, req *dto.UpdateFieldDefinitionRequest) (*dto.FieldDefinitionResponse, error) {
	row, err := s.definitionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Field definition not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to fetch field definition", err.Error())
	}

	raw, err := row.ToRaw()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode definition", err.Error())
	}

	before, err := engine.Normalize(raw)
	if err != nil {
		return nil, err
	}

	applyDefinitionPatch(&raw, req)

	// A successful PATCH is the administrator's reconfirmation: the flag
	// clears unless the request explicitly keeps it set.
	if req.NeedsReconfirm == nil {
		raw.NeedsReconfirm = false
	}

	raws, err := s.loadRawSet(ctx, row.ProjectID)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		if raws[i].ID == raw.ID {
			raws[i] = raw
		}
	}

	reg, err := engine.NormalizeSet(raws)
	if err != nil {
		return nil, err
	}
	normalized, ok := reg.Get(id)
	if !ok {
		return nil, response.NewAppError(response.ErrCodeInternal, "Normalized definition missing from set", "")
	}

	if err := row.FromRaw(engine.Serialize(*normalized)); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode definition", err.Error())
	}
	if err := s.definitionRepo.Update(ctx, row); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to update field definition", err.Error())
	}

	// A value-kind change invalidates dependent rollup and mirror
	// configurations. They keep their last stored values but are skipped by
	// recompute until reconfirmed.
	if before.ValueKind() != normalized.ValueKind() {
		if err := s.flagDependents(ctx, id); err != nil {
			return nil, err
		}
	}

	resp := dto.FieldDefinitionResponseFromRaw(engine.Serialize(*normalized), row.ProjectID)
	resp.CreatedAt = row.CreatedAt
	resp.UpdatedAt = row.UpdatedAt
	return &resp, nil
}

// DeleteDefinition soft deletes a definition. Deletion is rejected while
// other definitions still read from it; visibility rules referencing it are
// soft-invalidated by the evaluator instead.
func (s *fieldDefinitionServiceImpl) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	if _, err := s.definitionRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFoundError("Field definition not found", "")
		}
		return response.NewAppError(response.ErrCodeInternal, "Failed to fetch field definition", err.Error())
	}

	dependents, err := s.definitionRepo.FindBySourceFieldID(ctx, id)
	if err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to check dependent definitions", err.Error())
	}
	if len(dependents) > 0 {
		return response.NewValidationError(
			fmt.Sprintf("Field is the source of %d derived field(s)", len(dependents)),
			"Delete or repoint the dependent rollup/mirror fields first")
	}

	if err := s.definitionRepo.Delete(ctx, id); err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to delete field definition", err.Error())
	}
	return nil
}

// loadRawSet loads the raw definition set for normalization: all definitions
// visible in the given project scope, or the global set when projectID is nil
func (s *fieldDefinitionServiceImpl) loadRawSet(ctx context.Context, projectID *uuid.UUID) ([]engine.RawDefinition, error) {
	var rows []*domain.FieldDefinition
	var err error
	if projectID == nil {
		rows, err = s.definitionRepo.FindByScope(ctx, nil)
	} else {
		rows, err = s.definitionRepo.FindVisibleToProject(ctx, *projectID)
	}
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
	return raws, nil
}

func (s *fieldDefinitionServiceImpl) flagDependents(ctx context.Context, sourceID uuid.UUID) error {
	dependents, err := s.definitionRepo.FindBySourceFieldID(ctx, sourceID)
	if err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to fetch dependent definitions", err.Error())
	}
	ids := make([]uuid.UUID, 0, len(dependents))
	for _, dep := range dependents {
		ids = append(ids, dep.ID)
	}
	if err := s.definitionRepo.UpdateNeedsReconfirm(ctx, ids, true); err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to flag dependent definitions", err.Error())
	}
	return nil
}

// applyDefinitionPatch merges a partial update into the stored raw form
func applyDefinitionPatch(raw *engine.RawDefinition, req *dto.UpdateFieldDefinitionRequest) {
	if req.Name != nil {
		raw.Name = *req.Name
		raw.APIName = "" // recomputed from the new name
	}
	if req.FieldType != nil {
		raw.Type = *req.FieldType
	}
	if req.Contexts != nil {
		raw.Contexts = *req.Contexts
	}
	if req.Options != nil {
		raw.Options = nil
		for _, opt := range *req.Options {
			raw.Options = append(raw.Options, engine.RawOption{OptionID: opt.OptionID, Label: opt.Label})
		}
	}
	if req.Expression != nil {
		raw.Expression = *req.Expression
	}
	if req.SourceFieldID != nil {
		raw.SourceFieldID = *req.SourceFieldID
	}
	if req.RelationshipName != nil {
		raw.RelationshipName = *req.RelationshipName
	}
	if req.Aggregation != nil {
		raw.Aggregation = *req.Aggregation
	}
	if req.ConditionalRules != nil {
		raw.ConditionalRules = nil
		for _, rule := range *req.ConditionalRules {
			raw.ConditionalRules = append(raw.ConditionalRules, engine.RawRule{
				FieldID:  rule.FieldID,
				Operator: rule.Operator,
				Value:    rule.Value,
			})
		}
	}
	if req.DefaultValue != nil {
		raw.DefaultValue = req.DefaultValue
	}
	if req.IsRequired != nil {
		raw.IsRequired = *req.IsRequired
	}
	if req.IsPrivate != nil {
		raw.IsPrivate = *req.IsPrivate
	}
	if req.Position != nil {
		raw.Position = *req.Position
	}
	if req.NeedsReconfirm != nil {
		raw.NeedsReconfirm = *req.NeedsReconfirm
	}
}

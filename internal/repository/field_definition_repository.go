package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"project-field-api/internal/domain"
)

// FieldDefinitionRepository defines the interface for field definition data access
type FieldDefinitionRepository interface {
	Create(ctx context.Context, def *domain.FieldDefinition) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FieldDefinition, error)
	FindByScope(ctx context.Context, projectID *uuid.UUID) ([]*domain.FieldDefinition, error)
	FindVisibleToProject(ctx context.Context, projectID uuid.UUID) ([]*domain.FieldDefinition, error)
	FindBySourceFieldID(ctx context.Context, sourceID uuid.UUID) ([]*domain.FieldDefinition, error)
	FindDerived(ctx context.Context) ([]*domain.FieldDefinition, error)
	CountRuleReferences(ctx context.Context, fieldID uuid.UUID) (int64, error)
	Update(ctx context.Context, def *domain.FieldDefinition) error
	UpdateNeedsReconfirm(ctx context.Context, ids []uuid.UUID, needsReconfirm bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// fieldDefinitionRepositoryImpl is the GORM implementation of FieldDefinitionRepository
type fieldDefinitionRepositoryImpl struct {
	db *gorm.DB
}

// NewFieldDefinitionRepository creates a new instance of FieldDefinitionRepository
func NewFieldDefinitionRepository(db *gorm.DB) FieldDefinitionRepository {
	return &fieldDefinitionRepositoryImpl{db: db}
}

// Create creates a new field definition
func (r *fieldDefinitionRepositoryImpl) Create(ctx context.Context, def *domain.FieldDefinition) error {
	if err := r.db.WithContext(ctx).Create(def).Error; err != nil {
		return err
	}
	return nil
}

// FindByID finds a field definition by ID
func (r *fieldDefinitionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.FieldDefinition, error) {
	var def domain.FieldDefinition
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

// FindByScope finds definitions of one scope: a project's own definitions,
// or the workspace-global ones when projectID is nil
func (r *fieldDefinitionRepositoryImpl) FindByScope(ctx context.Context, projectID *uuid.UUID) ([]*domain.FieldDefinition, error) {
	var defs []*domain.FieldDefinition
	query := r.db.WithContext(ctx)
	if projectID == nil {
		query = query.Where("project_id IS NULL")
	} else {
		query = query.Where("project_id = ?", *projectID)
	}
	if err := query.Order("position ASC, created_at ASC").Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// FindVisibleToProject finds the full definition set a project evaluates
// against: its own definitions plus the workspace-global ones
func (r *fieldDefinitionRepositoryImpl) FindVisibleToProject(ctx context.Context, projectID uuid.UUID) ([]*domain.FieldDefinition, error) {
	var defs []*domain.FieldDefinition
	if err := r.db.WithContext(ctx).
		Where("project_id = ? OR project_id IS NULL", projectID).
		Order("position ASC, created_at ASC").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// FindBySourceFieldID finds the rollup and mirror definitions reading from a source field
func (r *fieldDefinitionRepositoryImpl) FindBySourceFieldID(ctx context.Context, sourceID uuid.UUID) ([]*domain.FieldDefinition, error) {
	var defs []*domain.FieldDefinition
	if err := r.db.WithContext(ctx).
		Where("source_field_id = ?", sourceID).
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// FindDerived finds all formula, rollup and mirror definitions
func (r *fieldDefinitionRepositoryImpl) FindDerived(ctx context.Context) ([]*domain.FieldDefinition, error) {
	var defs []*domain.FieldDefinition
	if err := r.db.WithContext(ctx).
		Where("field_type IN ?", []string{"formula", "rollup", "mirror"}).
		Order("created_at ASC").
		Find(&defs).Error; err != nil {
		return nil, err
	}
	return defs, nil
}

// CountRuleReferences counts definitions whose conditional rules reference the
// given field. The rules column is a jsonb array of {fieldId, ...} objects, so
// a containment probe on the serialized id is sufficient.
func (r *fieldDefinitionRepositoryImpl) CountRuleReferences(ctx context.Context, fieldID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.FieldDefinition{}).
		Where("conditional_rules LIKE ?", "%"+fieldID.String()+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update updates a field definition
func (r *fieldDefinitionRepositoryImpl) Update(ctx context.Context, def *domain.FieldDefinition) error {
	if err := r.db.WithContext(ctx).Save(def).Error; err != nil {
		return err
	}
	return nil
}

// UpdateNeedsReconfirm sets the reconfirm flag on the given definitions
func (r *fieldDefinitionRepositoryImpl) UpdateNeedsReconfirm(ctx context.Context, ids []uuid.UUID, needsReconfirm bool) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&domain.FieldDefinition{}).
		Where("id IN ?", ids).
		Update("needs_reconfirm", needsReconfirm).Error; err != nil {
		return err
	}
	return nil
}

// Delete soft deletes a field definition
func (r *fieldDefinitionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&domain.FieldDefinition{}, id).Error; err != nil {
		return err
	}
	return nil
}

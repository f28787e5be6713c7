package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"project-field-api/internal/domain"
)

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error)
	FindProjectIDs(ctx context.Context) ([]uuid.UUID, error)
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Board, error)
	FindParent(ctx context.Context, board *domain.Board) (*domain.Board, error)
	UpdateCustomFields(ctx context.Context, board *domain.Board) error
	Update(ctx context.Context, board *domain.Board) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// boardRepositoryImpl is the GORM implementation of BoardRepository
type boardRepositoryImpl struct {
	db *gorm.DB
}

// NewBoardRepository creates a new instance of BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &boardRepositoryImpl{db: db}
}

// Create creates a new board
func (r *boardRepositoryImpl) Create(ctx context.Context, board *domain.Board) error {
	if err := r.db.WithContext(ctx).Create(board).Error; err != nil {
		return err
	}
	return nil
}

// FindByID finds a board by ID
func (r *boardRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var board domain.Board
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// FindByProjectID finds all boards of a project
func (r *boardRepositoryImpl) FindByProjectID(ctx context.Context, projectID uuid.UUID) ([]*domain.Board, error) {
	var boards []*domain.Board
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// FindProjectIDs lists the distinct projects that currently have boards
func (r *boardRepositoryImpl) FindProjectIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&domain.Board{}).
		Distinct("project_id").
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindChildren finds the direct children of a board, the record set rollups
// aggregate over
func (r *boardRepositoryImpl) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*domain.Board, error) {
	var boards []*domain.Board
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// FindParent finds the parent board a mirror reads from, or nil for roots
func (r *boardRepositoryImpl) FindParent(ctx context.Context, board *domain.Board) (*domain.Board, error) {
	if board.ParentID == nil {
		return nil, nil
	}
	var parent domain.Board
	if err := r.db.WithContext(ctx).
		Where("id = ?", *board.ParentID).
		First(&parent).Error; err != nil {
		return nil, err
	}
	return &parent, nil
}

// UpdateCustomFields persists only the custom_fields document, leaving the
// rest of the row untouched
func (r *boardRepositoryImpl) UpdateCustomFields(ctx context.Context, board *domain.Board) error {
	if err := r.db.WithContext(ctx).
		Model(&domain.Board{}).
		Where("id = ?", board.ID).
		Update("custom_fields", board.CustomFields).Error; err != nil {
		return err
	}
	return nil
}

// Update updates a board
func (r *boardRepositoryImpl) Update(ctx context.Context, board *domain.Board) error {
	if err := r.db.WithContext(ctx).Save(board).Error; err != nil {
		return err
	}
	return nil
}

// Delete soft deletes a board
func (r *boardRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Board{}, id).Error; err != nil {
		return err
	}
	return nil
}

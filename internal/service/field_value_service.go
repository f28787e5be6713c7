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

// FieldValueService defines the interface for board field value business logic
type FieldValueService interface {
	CreateBoard(ctx context.Context, projectID, authorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error)
	GetBoardValues(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error)
	SetBoardValues(ctx context.Context, boardID uuid.UUID, req *dto.SetFieldValuesRequest) (*dto.BoardFieldValuesResponse, error)
	RefreshBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error)
}

// fieldValueServiceImpl is the implementation of FieldValueService
type fieldValueServiceImpl struct {
	boardRepo      repository.BoardRepository
	definitionRepo repository.FieldDefinitionRepository
	metrics        *metrics.Metrics
}

// NewFieldValueService creates a new instance of FieldValueService
func NewFieldValueService(boardRepo repository.BoardRepository, definitionRepo repository.FieldDefinitionRepository, m *metrics.Metrics) FieldValueService {
	return &fieldValueServiceImpl{
		boardRepo:      boardRepo,
		definitionRepo: definitionRepo,
		metrics:        m,
	}
}

// CreateBoard creates a board with defaults resolved for every non-derived
// field the creator did not set explicitly
func (s *fieldValueServiceImpl) CreateBoard(ctx context.Context, projectID, authorID uuid.UUID, req *dto.CreateBoardRequest) (*dto.BoardResponse, error) {
	reg, err := s.loadRegistry(ctx, projectID)
	if err != nil {
		return nil, err
	}

	// Defaults first, explicit values on top
	values := engine.Defaults(reg)
	if len(req.Values) > 0 {
		explicit, err := s.validateWrites(reg, req.Values)
		if err != nil {
			return nil, err
		}
		for id, v := range explicit {
			values[id] = v
		}
	}

	board := &domain.Board{
		ProjectID: projectID,
		AuthorID:  authorID,
		Title:     req.Title,
		Content:   req.Content,
	}
	if req.ParentID != "" {
		parentID, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, response.NewValidationError("Invalid parent board id", err.Error())
		}
		board.ParentID = &parentID
	}
	if err := board.SetFieldValues(values); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode field values", err.Error())
	}
	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to create board", err.Error())
	}

	fields, err := s.evaluate(ctx, board, reg)
	if err != nil {
		return nil, err
	}
	return &dto.BoardResponse{
		ID:        board.ID,
		ProjectID: board.ProjectID,
		ParentID:  board.ParentID,
		Title:     board.Title,
		Content:   board.Content,
		Fields:    *fields,
	}, nil
}

// GetBoardValues evaluates and returns the full field state of a board
func (s *fieldValueServiceImpl) GetBoardValues(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error) {
	board, err := s.findBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	reg, err := s.loadRegistry(ctx, board.ProjectID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, board, reg)
}

// SetBoardValues writes custom field values on a board. Writes to derived
// fields are rejected, select values must name a configured option, and the
// stored document is then re-evaluated.
func (s *fieldValueServiceImpl) SetBoardValues(ctx context.Context, boardID uuid.UUID, req *dto.SetFieldValuesRequest) (*dto.BoardFieldValuesResponse, error) {
	board, err := s.findBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	reg, err := s.loadRegistry(ctx, board.ProjectID)
	if err != nil {
		return nil, err
	}

	writes, err := s.validateWrites(reg, req.Values)
	if err != nil {
		return nil, err
	}

	values, err := board.FieldValues()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode field values", err.Error())
	}
	for id, v := range writes {
		if v == nil {
			delete(values, id)
			continue
		}
		values[id] = v
	}
	if err := board.SetFieldValues(values); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode field values", err.Error())
	}
	if err := s.boardRepo.UpdateCustomFields(ctx, board); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to persist field values", err.Error())
	}

	return s.evaluate(ctx, board, reg)
}

// RefreshBoard recomputes the derived values of a board and persists them,
// so readers that bypass evaluation (exports, search indexers) see fresh data
func (s *fieldValueServiceImpl) RefreshBoard(ctx context.Context, boardID uuid.UUID) (*dto.BoardFieldValuesResponse, error) {
	board, err := s.findBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	reg, err := s.loadRegistry(ctx, board.ProjectID)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluate(ctx, board, reg)
	if err != nil {
		return nil, err
	}

	values := engine.Values{}
	for key, v := range result.Values {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		values[id] = v
	}
	if err := board.SetFieldValues(values); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode field values", err.Error())
	}
	if err := s.boardRepo.UpdateCustomFields(ctx, board); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to persist field values", err.Error())
	}
	return result, nil
}

// evaluate produces the full evaluated field state of one board: stored
// values, formula results, rollups and mirrors resolved over their declared
// relationship, and conditional visibility over the combined snapshot.
func (s *fieldValueServiceImpl) evaluate(ctx context.Context, board *domain.Board, reg *engine.Registry) (*dto.BoardFieldValuesResponse, error) {
	values, err := board.FieldValues()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode field values", err.Error())
	}

	resp := &dto.BoardFieldValuesResponse{
		BoardID:    board.ID,
		Values:     map[string]any{},
		Visibility: map[string]bool{},
	}

	// Each declared relationship is resolved to its board set once, shared by
	// every derived field reading through it.
	relatedBoards := map[string][]*domain.Board{}
	loadRelated := func(relationship string) ([]*domain.Board, error) {
		if boards, ok := relatedBoards[relationship]; ok {
			return boards, nil
		}
		boards, err := s.resolveRelationship(ctx, board, relationship)
		if err != nil {
			return nil, err
		}
		relatedBoards[relationship] = boards
		return boards, nil
	}

	for _, def := range reg.Definitions() {
		switch def.Type {
		case engine.FieldTypeRollup:
			// A flagged rollup keeps its stored value and is reported stale
			if def.NeedsReconfirm {
				resp.Stale = append(resp.Stale, def.ID)
				continue
			}
			boards, err := loadRelated(def.Rollup.RelationshipName)
			if err != nil {
				return nil, err
			}
			related, err := s.collectRelated(boards, def.Rollup.SourceFieldID)
			if err != nil {
				return nil, err
			}
			d := def
			values[def.ID] = engine.Aggregate(&d, related)
			if s.metrics != nil {
				s.metrics.RecordEvaluation("rollup", nil)
			}
		case engine.FieldTypeMirror:
			boards, err := loadRelated(def.Mirror.RelationshipName)
			if err != nil {
				return nil, err
			}
			// A mirror reflects exactly one related entity. Zero related
			// boards (a root mirroring its parent) or more than one (a parent
			// mirroring multiple children) cannot resolve and go stale.
			var sourceValues engine.Values
			if len(boards) == 1 {
				if _, sourceExists := reg.Get(def.Mirror.SourceFieldID); sourceExists {
					sourceValues, err = boards[0].FieldValues()
					if err != nil {
						return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode related field values", err.Error())
					}
				}
			}
			d := def
			result := engine.ResolveMirror(&d, sourceValues)
			values[def.ID] = result.Value
			if result.Stale {
				resp.Stale = append(resp.Stale, def.ID)
			}
			if s.metrics != nil {
				s.metrics.RecordEvaluation("mirror", nil)
			}
		}
	}

	// Formulas run last so they can read rollup and mirror results
	results, cycleErr := engine.EvaluateFormulas(reg, values)
	if cycleErr != nil {
		return nil, cycleErr
	}
	for id, result := range results {
		values[id] = result.Value
		var evalErr error
		if len(result.Diagnostics) > 0 {
			evalErr = errors.New(result.Diagnostics[0].Message)
		}
		if s.metrics != nil {
			s.metrics.RecordEvaluation("formula", evalErr)
		}
		for _, diag := range result.Diagnostics {
			resp.Diagnostics = append(resp.Diagnostics, dto.FieldValueDiagnostic{
				FieldID: id,
				Ref:     diag.Ref,
				Message: diag.Message,
			})
		}
	}

	for id, v := range values {
		resp.Values[id.String()] = v
	}
	for id, visible := range engine.Visible(reg, values) {
		resp.Visibility[id.String()] = visible
	}
	return resp, nil
}

// validateWrites parses and checks an incoming value map: ids must resolve,
// derived fields are read-only, and select values must name configured options
func (s *fieldValueServiceImpl) validateWrites(reg *engine.Registry, in map[string]any) (engine.Values, error) {
	writes := engine.Values{}
	for key, v := range in {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, response.NewValidationError(fmt.Sprintf("Invalid field id: %s", key), err.Error())
		}
		def, ok := reg.Get(id)
		if !ok {
			return nil, response.NewNotFoundError(fmt.Sprintf("Unknown field: %s", key), "")
		}
		if def.Type == engine.FieldTypeMirror {
			return nil, engine.NewDefinitionError(engine.ReasonMirrorReadOnly, def.APIName,
				"mirror fields reflect the parent value and cannot be written")
		}
		if def.IsDerived() {
			return nil, response.NewValidationError(
				fmt.Sprintf("Field '%s' is computed and cannot be written", def.APIName), "")
		}
		if v != nil {
			if err := checkOptionMembership(def, v); err != nil {
				return nil, err
			}
		}
		writes[id] = v
	}
	return writes, nil
}

func checkOptionMembership(def *engine.FieldDefinition, v any) error {
	switch def.Type {
	case engine.FieldTypeSelect:
		s, ok := v.(string)
		if !ok || !hasOption(def, s) {
			return response.NewValidationError(
				fmt.Sprintf("Value for '%s' must be one of the configured options", def.APIName), "")
		}
	case engine.FieldTypeMultiSelect:
		items, ok := v.([]any)
		if !ok {
			return response.NewValidationError(
				fmt.Sprintf("Value for '%s' must be an array of option ids", def.APIName), "")
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok || !hasOption(def, s) {
				return response.NewValidationError(
					fmt.Sprintf("Value for '%s' must be one of the configured options", def.APIName), "")
			}
		}
	}
	return nil
}

func hasOption(def *engine.FieldDefinition, optionID string) bool {
	for _, opt := range def.Options {
		if opt.OptionID == optionID {
			return true
		}
	}
	return false
}

// resolveRelationship loads the board set a declared relationship names: the
// direct children, or the single parent (empty for root boards). Unknown
// names cannot occur here; normalization rejects them.
func (s *fieldValueServiceImpl) resolveRelationship(ctx context.Context, board *domain.Board, relationship string) ([]*domain.Board, error) {
	switch relationship {
	case engine.RelationshipParent:
		parent, err := s.boardRepo.FindParent(ctx, board)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load parent board", err.Error())
		}
		if parent == nil {
			return nil, nil
		}
		return []*domain.Board{parent}, nil
	default:
		boards, err := s.boardRepo.FindChildren(ctx, board.ID)
		if err != nil {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load child boards", err.Error())
		}
		return boards, nil
	}
}

// collectRelated gathers the source field's value from each related board,
// one entry per board that has the value set
func (s *fieldValueServiceImpl) collectRelated(boards []*domain.Board, sourceID uuid.UUID) ([]any, error) {
	related := make([]any, 0, len(boards))
	for _, b := range boards {
		childValues, err := b.FieldValues()
		if err != nil {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode child field values", err.Error())
		}
		if v, ok := childValues[sourceID]; ok {
			related = append(related, v)
		}
	}
	return related, nil
}

func (s *fieldValueServiceImpl) findBoard(ctx context.Context, boardID uuid.UUID) (*domain.Board, error) {
	board, err := s.boardRepo.FindByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Board not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to fetch board", err.Error())
	}
	return board, nil
}

func (s *fieldValueServiceImpl) loadRegistry(ctx context.Context, projectID uuid.UUID) (*engine.Registry, error) {
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

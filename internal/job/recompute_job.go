package job

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"project-field-api/internal/domain"
	"project-field-api/internal/repository"
	"project-field-api/internal/service"
)

// RecomputeJob periodically re-evaluates and persists derived field values so
// consumers that read stored documents directly (exports, search indexers)
// see reasonably fresh rollups and mirrors. Flagged definitions keep their
// stored values; evaluation reports them stale without recomputing.
type RecomputeJob struct {
	definitionRepo repository.FieldDefinitionRepository
	boardRepo      repository.BoardRepository
	valueService   service.FieldValueService
	logger         *zap.Logger
}

// NewRecomputeJob creates a new RecomputeJob instance
func NewRecomputeJob(
	definitionRepo repository.FieldDefinitionRepository,
	boardRepo repository.BoardRepository,
	valueService service.FieldValueService,
	logger *zap.Logger,
) *RecomputeJob {
	return &RecomputeJob{
		definitionRepo: definitionRepo,
		boardRepo:      boardRepo,
		valueService:   valueService,
		logger:         logger,
	}
}

// Run refreshes every board in every project that has derived fields
func (j *RecomputeJob) Run() {
	ctx := context.Background()

	derived, err := j.definitionRepo.FindDerived(ctx)
	if err != nil {
		j.logger.Error("Failed to load derived field definitions", zap.Error(err))
		return
	}
	if len(derived) == 0 {
		j.logger.Debug("No derived field definitions, skipping recompute")
		return
	}

	projectIDs, err := j.affectedProjects(ctx, derived)
	if err != nil {
		j.logger.Error("Failed to resolve affected projects", zap.Error(err))
		return
	}

	refreshed := 0
	failed := 0
	for _, projectID := range projectIDs {
		boards, err := j.boardRepo.FindByProjectID(ctx, projectID)
		if err != nil {
			j.logger.Error("Failed to load boards for recompute",
				zap.String("project_id", projectID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}
		for _, board := range boards {
			if _, err := j.valueService.RefreshBoard(ctx, board.ID); err != nil {
				j.logger.Warn("Failed to refresh board",
					zap.String("board_id", board.ID.String()),
					zap.Error(err),
				)
				failed++
				continue
			}
			refreshed++
		}
	}

	j.logger.Info("Recompute job completed",
		zap.Int("projects", len(projectIDs)),
		zap.Int("boards_refreshed", refreshed),
		zap.Int("failed", failed),
	)
}

// affectedProjects resolves which projects need a sweep. A global derived
// definition touches every project with boards; project-scoped ones touch
// only their own project.
func (j *RecomputeJob) affectedProjects(ctx context.Context, derived []*domain.FieldDefinition) ([]uuid.UUID, error) {
	hasGlobal := false
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID

	for _, def := range derived {
		if def.ProjectID == nil {
			hasGlobal = true
			continue
		}
		if !seen[*def.ProjectID] {
			seen[*def.ProjectID] = true
			out = append(out, *def.ProjectID)
		}
	}

	if hasGlobal {
		all, err := j.boardRepo.FindProjectIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range all {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}

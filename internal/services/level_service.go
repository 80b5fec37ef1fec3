package services

import (
	"context"

	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
)

// LevelService manages a company's level table.
type LevelService struct {
	log       *logger.Logger
	levelRepo repository.LevelRepository
	progress  *ProgressService
}

func NewLevelService(log *logger.Logger, levelRepo repository.LevelRepository, progress *ProgressService) *LevelService {
	return &LevelService{
		log:       log.With("service", "LevelService"),
		levelRepo: levelRepo,
		progress:  progress,
	}
}

// List returns the level table ordered by level number.
func (s *LevelService) List(ctx context.Context, companyID string) ([]models.LevelConfig, error) {
	levels, err := s.levelRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, persistenceError("list levels", err)
	}
	return levels, nil
}

// Replace validates and swaps the whole table in one transaction. Progress
// rows are re-derived in the same transaction; resulting level changes are
// announced after commit.
func (s *LevelService) Replace(ctx context.Context, companyID string, input []LevelInput) ([]models.LevelConfig, error) {
	rows, err := ValidateLevelTable(input)
	if err != nil {
		return nil, err
	}

	changes, err := s.levelRepo.Replace(ctx, companyID, rows, DeriveLevel)
	if err != nil {
		return nil, persistenceError("replace level table", err)
	}
	s.log.Info("level table replaced", "company_id", companyID, "levels", len(rows), "relevelled", len(changes))

	if s.progress != nil {
		s.progress.afterCommit(ctx, changes)
	}
	return s.List(ctx, companyID)
}

package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProgressRepository is a GORM implementation of ProgressRepository
type GormProgressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &GormProgressRepository{db: db}
}

// Find returns the progress row of a user in a company. A missing row is not an error.
func (r *GormProgressRepository) Find(ctx context.Context, userID, companyID string) (*models.UserProgress, bool, error) {
	var progress models.UserProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Take(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &progress, true, nil
}

// Ensure creates the zero-XP row for a user if it does not exist yet
func (r *GormProgressRepository) Ensure(ctx context.Context, userID, companyID string, derive LevelDeriver) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCompany(tx, companyID, "SHARE"); err != nil {
			return err
		}
		levels, err := listLevels(tx, companyID)
		if err != nil {
			return err
		}
		progress := models.UserProgress{
			UserID:       userID,
			CompanyID:    companyID,
			CurrentXP:    0,
			CurrentLevel: derive(0, levels),
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&progress).Error
	})
}

// AddXP credits delta XP to the user and stores the re-derived level
func (r *GormProgressRepository) AddXP(ctx context.Context, userID, companyID string, delta int64, derive LevelDeriver) (ProgressChange, error) {
	var change ProgressChange

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCompany(tx, companyID, "SHARE"); err != nil {
			return err
		}

		// seeded at level 1 and re-derived below once the row is locked
		seed := models.UserProgress{UserID: userID, CompanyID: companyID, CurrentLevel: 1}
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed)
		if created.Error != nil {
			return created.Error
		}

		var before models.UserProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND company_id = ?", userID, companyID).
			Take(&before).Error; err != nil {
			return err
		}

		levels, err := listLevels(tx, companyID)
		if err != nil {
			return err
		}
		if created.RowsAffected > 0 {
			before.CurrentLevel = derive(before.CurrentXP, levels)
		}

		after := before
		after.CurrentXP = before.CurrentXP + delta
		if after.CurrentXP < 0 {
			after.CurrentXP = 0
		}
		after.CurrentLevel = derive(after.CurrentXP, levels)

		if err := tx.Model(&models.UserProgress{}).
			Where("user_id = ? AND company_id = ?", userID, companyID).
			Updates(map[string]interface{}{
				"current_xp":    after.CurrentXP,
				"current_level": after.CurrentLevel,
			}).Error; err != nil {
			return err
		}

		change = ProgressChange{Before: before, After: after}
		return nil
	})
	if err != nil {
		return ProgressChange{}, err
	}
	return change, nil
}

// Leaderboard lists the top progress rows of a company by XP
func (r *GormProgressRepository) Leaderboard(ctx context.Context, companyID string, limit int) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	if err := r.db.WithContext(ctx).
		Preload("User").
		Scopes(database.ForCompany(companyID)).
		Order("current_xp DESC").
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

package repository

import (
	"context"

	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLevelRepository is a GORM implementation of LevelRepository
type GormLevelRepository struct {
	db *gorm.DB
}

// NewLevelRepository creates a new LevelRepository
func NewLevelRepository(db *gorm.DB) LevelRepository {
	return &GormLevelRepository{db: db}
}

// ListByCompany returns the level table ordered by level number
func (r *GormLevelRepository) ListByCompany(ctx context.Context, companyID string) ([]models.LevelConfig, error) {
	return listLevels(r.db.WithContext(ctx), companyID)
}

// FindByLevel finds a single level entry
func (r *GormLevelRepository) FindByLevel(ctx context.Context, companyID string, level int) (*models.LevelConfig, error) {
	var cfg models.LevelConfig
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND level_number = ?", companyID, level).
		First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Replace deletes and re-inserts the level table, then re-derives progress rows
func (r *GormLevelRepository) Replace(ctx context.Context, companyID string, levels []models.LevelConfig, derive LevelDeriver) ([]ProgressChange, error) {
	var changes []ProgressChange

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockCompany(tx, companyID, "UPDATE"); err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", companyID).Delete(&models.LevelConfig{}).Error; err != nil {
			return err
		}

		rows := make([]models.LevelConfig, len(levels))
		for i, l := range levels {
			l.CompanyID = companyID
			rows[i] = l
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}

		sorted, err := listLevels(tx, companyID)
		if err != nil {
			return err
		}

		var progress []models.UserProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("company_id = ?", companyID).
			Find(&progress).Error; err != nil {
			return err
		}

		for _, p := range progress {
			level := derive(p.CurrentXP, sorted)
			if level == p.CurrentLevel {
				continue
			}
			after := p
			after.CurrentLevel = level
			if err := tx.Model(&models.UserProgress{}).
				Where("user_id = ? AND company_id = ?", p.UserID, p.CompanyID).
				Update("current_level", level).Error; err != nil {
				return err
			}
			changes = append(changes, ProgressChange{Before: p, After: after})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// lockCompany takes a row lock on the company. Level table writers hold it
// exclusively and XP credits hold it shared, so a credit never derives a
// level from a table that a concurrent replace is swapping out.
func lockCompany(tx *gorm.DB, companyID, strength string) error {
	var companies []models.Company
	return tx.Clauses(clause.Locking{Strength: strength}).
		Where("id = ?", companyID).
		Find(&companies).Error
}

func listLevels(db *gorm.DB, companyID string) ([]models.LevelConfig, error) {
	var levels []models.LevelConfig
	if err := db.Scopes(database.ForCompany(companyID)).
		Order("level_number ASC").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

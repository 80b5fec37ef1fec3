package repository

import (
	"context"

	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// EnsureWithDefaultLevels inserts the company if absent and seeds the default levels
func (r *GormCompanyRepository) EnsureWithDefaultLevels(ctx context.Context, id string, defaults []models.LevelConfig) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Company{ID: id})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true

		if len(defaults) == 0 {
			return nil
		}
		levels := make([]models.LevelConfig, len(defaults))
		for i, l := range defaults {
			l.CompanyID = id
			levels[i] = l
		}
		return tx.Create(&levels).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Stats counts assignments, participants and comments of a company
func (r *GormCompanyRepository) Stats(ctx context.Context, companyID string) (CompanyStats, error) {
	var stats CompanyStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Assignment{}).
		Scopes(database.ForCompany(companyID)).
		Count(&stats.TotalAssignments).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&models.UserProgress{}).
		Scopes(database.ForCompany(companyID)).
		Count(&stats.TotalUsers).Error; err != nil {
		return stats, err
	}

	if err := db.Model(&models.Comment{}).
		Joins("JOIN assignments ON assignments.id = comments.assignment_id").
		Where("assignments.company_id = ?", companyID).
		Count(&stats.TotalComments).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

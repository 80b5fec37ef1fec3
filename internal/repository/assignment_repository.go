package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LIKE escaping with '!' so the pattern reads the same on sqlite and mysql
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// GormAssignmentRepository is a GORM implementation of AssignmentRepository
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// Create creates a new assignment
func (r *GormAssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

// FindByID finds an assignment by ID with its author
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// List retrieves assignments of one company, newest first
func (r *GormAssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	var assignments []models.Assignment

	db := r.db.WithContext(ctx)
	query := db.Model(&models.Assignment{}).Where("assignments.company_id = ?", filter.CompanyID)

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		if db.Dialector.Name() == "postgres" {
			query = query.Where("? = ANY(assignments.tags)", tag)
		} else {
			// array literal stored as text: {"a","b"}
			query = query.Where("assignments.tags LIKE ? ESCAPE '!'", "%\""+likeEscaper.Replace(tag)+"\"%")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("assignments.created_at DESC").Order("assignments.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.NewPaginationParams(filter.Page, filter.PageSize)))
	}

	if err := listQuery.Preload("User").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

// CastVote stores the voter's direction and shifts vote_count by the signed
// difference to the previous vote, all under a lock on the assignment row.
func (r *GormAssignmentRepository) CastVote(ctx context.Context, assignmentID, userID string, direction models.VoteDirection) (*VoteOutcome, error) {
	var outcome VoteOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignment models.Assignment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", assignmentID).
			First(&assignment).Error; err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
			Take(&existing).Error
		found := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
		} else if err != nil {
			return err
		}

		var previous models.VoteDirection
		if found {
			previous = existing.Direction
		}
		delta := int64(direction) - int64(previous)

		outcome = VoteOutcome{
			Previous:  previous,
			Current:   direction,
			Delta:     delta,
			FirstVote: !found,
		}

		if delta == 0 {
			outcome.Assignment = assignment
			return nil
		}

		if found {
			if err := tx.Model(&models.Vote{}).
				Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
				Update("direction", direction).Error; err != nil {
				return err
			}
		} else {
			vote := models.Vote{AssignmentID: assignmentID, UserID: userID, Direction: direction}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Assignment{}).
			Where("id = ?", assignmentID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", delta)).Error; err != nil {
			return err
		}

		if err := tx.Where("id = ?", assignmentID).First(&assignment).Error; err != nil {
			return err
		}
		outcome.Assignment = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// FindVote returns the standing vote of a user, or nil when there is none
func (r *GormAssignmentRepository) FindVote(ctx context.Context, assignmentID, userID string) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

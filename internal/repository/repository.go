package repository

import (
	"context"

	"github.com/yukikurage/questboard-api/internal/models"
)

// LevelDeriver maps an XP total onto a level using a company's level table,
// which is passed sorted by level number.
type LevelDeriver func(xp int64, levels []models.LevelConfig) int

// ProgressChange is a progress row before and after one committed write.
type ProgressChange struct {
	Before models.UserProgress
	After  models.UserProgress
}

// CompanyStats summarizes activity within a company.
type CompanyStats struct {
	TotalAssignments int64 `json:"total_assignments"`
	TotalUsers       int64 `json:"total_users"`
	TotalComments    int64 `json:"total_comments"`
}

// VoteOutcome describes the effect of one castVote call.
type VoteOutcome struct {
	Assignment models.Assignment
	Previous   models.VoteDirection
	Current    models.VoteDirection
	Delta      int64
	// FirstVote is set when this call created the voter's row.
	FirstVote bool
}

// AssignmentFilter holds filtering options for listing assignments
type AssignmentFilter struct {
	CompanyID string
	Tag       string
	Page      int
	PageSize  int
}

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	// FindByID finds a company by ID
	FindByID(ctx context.Context, id string) (*models.Company, error)

	// EnsureWithDefaultLevels creates the company if absent and seeds its level
	// table in the same transaction. Reports whether the company was created.
	EnsureWithDefaultLevels(ctx context.Context, id string, defaults []models.LevelConfig) (bool, error)

	// Stats aggregates assignment, participant and comment counts
	Stats(ctx context.Context, companyID string) (CompanyStats, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// Upsert inserts the user or refreshes its profile fields
	Upsert(ctx context.Context, user *models.User) error
}

// LevelRepository defines the interface for level table access
type LevelRepository interface {
	// ListByCompany returns the level table ordered by level number ascending
	ListByCompany(ctx context.Context, companyID string) ([]models.LevelConfig, error)

	// FindByLevel finds a single level entry
	FindByLevel(ctx context.Context, companyID string, level int) (*models.LevelConfig, error)

	// Replace swaps the whole level table and re-derives every progress row of
	// the company in one transaction. Returns the rows whose level changed.
	Replace(ctx context.Context, companyID string, levels []models.LevelConfig, derive LevelDeriver) ([]ProgressChange, error)
}

// ProgressRepository defines the interface for user progress access
type ProgressRepository interface {
	// Find returns the progress row; found is false when none exists
	Find(ctx context.Context, userID, companyID string) (*models.UserProgress, bool, error)

	// Ensure creates a zero-XP progress row if none exists
	Ensure(ctx context.Context, userID, companyID string, derive LevelDeriver) error

	// AddXP credits XP and re-derives the level atomically
	AddXP(ctx context.Context, userID, companyID string, delta int64, derive LevelDeriver) (ProgressChange, error)

	// Leaderboard lists the top progress rows by XP with users preloaded
	Leaderboard(ctx context.Context, companyID string, limit int) ([]models.UserProgress, error)
}

// AssignmentRepository defines the interface for assignment data access
type AssignmentRepository interface {
	// Create creates a new assignment
	Create(ctx context.Context, assignment *models.Assignment) error

	// FindByID finds an assignment by ID with its author preloaded
	FindByID(ctx context.Context, id string) (*models.Assignment, error)

	// List retrieves assignments newest-first with filtering and pagination
	List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, int64, error)

	// CastVote records a vote and adjusts the aggregate atomically
	CastVote(ctx context.Context, assignmentID, userID string, direction models.VoteDirection) (*VoteOutcome, error)

	// FindVote returns the voter's standing vote, or nil
	FindVote(ctx context.Context, assignmentID, userID string) (*models.Vote, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create inserts the comment and bumps the assignment's comment count
	Create(ctx context.Context, comment *models.Comment) error

	// ListByAssignment lists comments oldest-first with authors preloaded
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Comment, error)
}

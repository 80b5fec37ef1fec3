package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/models"
)

func TestCompanyRepository_EnsureSeedsOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db)
	levels := NewLevelRepository(db)
	ctx := context.Background()

	created, err := repo.EnsureWithDefaultLevels(ctx, "c1", defaultLevels())
	require.NoError(t, err)
	assert.True(t, created)

	// an admin edit must survive the next sighting
	_, err = levels.Replace(ctx, "c1", []models.LevelConfig{{LevelNumber: 1, XPRequired: 0}}, highestReached)
	require.NoError(t, err)

	created, err = repo.EnsureWithDefaultLevels(ctx, "c1", defaultLevels())
	require.NoError(t, err)
	assert.False(t, created)

	list, err := levels.ListByCompany(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	company, err := repo.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", company.ID)
}

func TestCompanyRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCompanyRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	a1 := createTestAssignment(t, db, "u1", "c1", "one")
	createTestAssignment(t, db, "u1", "c1", "two")
	other := createTestAssignment(t, db, "u1", "c2", "other")
	require.NoError(t, comments.Create(ctx, &models.Comment{AssignmentID: a1.ID, UserID: "u2", Content: "hi"}))
	require.NoError(t, comments.Create(ctx, &models.Comment{AssignmentID: other.ID, UserID: "u2", Content: "hi"}))
	require.NoError(t, db.Create(&models.UserProgress{UserID: "u1", CompanyID: "c1", CurrentLevel: 1}).Error)
	require.NoError(t, db.Create(&models.UserProgress{UserID: "u2", CompanyID: "c1", CurrentLevel: 1}).Error)

	stats, err := repo.Stats(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalAssignments)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.TotalComments)
}

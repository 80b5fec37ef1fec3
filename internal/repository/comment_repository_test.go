package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
)

func TestCommentRepository_CreateAndListOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "u2")
	a := createTestAssignment(t, db, "u1", "c1", "A")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.Comment{AssignmentID: a.ID, UserID: "u2", Content: "second", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Comment{AssignmentID: a.ID, UserID: "u2", Content: "first", CreatedAt: base}))

	list, err := repo.ListByAssignment(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "u2", list[0].User.Username)

	var reloaded models.Assignment
	require.NoError(t, db.First(&reloaded, "id = ?", a.ID).Error)
	assert.EqualValues(t, 2, reloaded.CommentCount)
}

func TestCommentRepository_CreateOnMissingAssignmentRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)

	err := repo.Create(context.Background(), &models.Comment{AssignmentID: "missing", UserID: "u", Content: "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUserRepository_UpsertRefreshesProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", Username: "old"}))
	require.NoError(t, repo.Upsert(ctx, &models.User{ID: "u1", Username: "new", AvatarURL: strPtr("https://img/a.png")}))

	user, err := repo.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", user.Username)
	require.NotNil(t, user.AvatarURL)

	_, err = repo.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

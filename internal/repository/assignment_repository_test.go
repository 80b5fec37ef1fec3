package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
)

func TestAssignmentRepository_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	createTestUser(t, db, "u1")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := &models.Assignment{
			Title:     fmt.Sprintf("a%d", i),
			UserID:    "u1",
			CompanyID: "c1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, a))
	}
	createTestAssignment(t, db, "u1", "other", "elsewhere")

	list, total, err := repo.List(ctx, AssignmentFilter{CompanyID: "c1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, "a2", list[0].Title)
	assert.Equal(t, "a0", list[2].Title)
	assert.Equal(t, "u1", list[0].User.Username)

	page, total, err := repo.List(ctx, AssignmentFilter{CompanyID: "c1", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "a0", page[0].Title)
}

func TestAssignmentRepository_ListByTag(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Assignment{Title: "go", UserID: "u", CompanyID: "c", Tags: models.TagList{"go", "db"}}))
	require.NoError(t, repo.Create(ctx, &models.Assignment{Title: "gopher", UserID: "u", CompanyID: "c", Tags: models.TagList{"gopher"}}))

	list, total, err := repo.List(ctx, AssignmentFilter{CompanyID: "c", Tag: "go"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "go", list[0].Title)
}

func TestAssignmentRepository_ListByTagTreatsWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Assignment{Title: "plain", UserID: "u", CompanyID: "c", Tags: models.TagList{"abc"}}))
	require.NoError(t, repo.Create(ctx, &models.Assignment{Title: "literal", UserID: "u", CompanyID: "c", Tags: models.TagList{"a_c", "100%"}}))

	for _, tag := range []string{"%", "_", "a%", "a_c", "100%"} {
		list, total, err := repo.List(ctx, AssignmentFilter{CompanyID: "c", Tag: tag})
		require.NoError(t, err)
		switch tag {
		case "a_c", "100%":
			require.Len(t, list, 1, tag)
			assert.Equal(t, "literal", list[0].Title)
		default:
			assert.Zero(t, total, tag)
		}
	}
}

func TestAssignmentRepository_FindByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssignmentRepository_CastVote(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	a := createTestAssignment(t, db, "author", "c1", "A")

	out, err := repo.CastVote(ctx, a.ID, "voter", models.VoteUp)
	require.NoError(t, err)
	assert.True(t, out.FirstVote)
	assert.EqualValues(t, 1, out.Delta)
	assert.EqualValues(t, 1, out.Assignment.VoteCount)

	// same direction again changes nothing
	out, err = repo.CastVote(ctx, a.ID, "voter", models.VoteUp)
	require.NoError(t, err)
	assert.False(t, out.FirstVote)
	assert.EqualValues(t, 0, out.Delta)
	assert.EqualValues(t, 1, out.Assignment.VoteCount)

	// flipping moves the aggregate by the signed difference
	out, err = repo.CastVote(ctx, a.ID, "voter", models.VoteDown)
	require.NoError(t, err)
	assert.EqualValues(t, -2, out.Delta)
	assert.Equal(t, models.VoteUp, out.Previous)
	assert.EqualValues(t, -1, out.Assignment.VoteCount)

	vote, err := repo.FindVote(ctx, a.ID, "voter")
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, models.VoteDown, vote.Direction)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("assignment_id = ?", a.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAssignmentRepository_CastVoteMissingAssignment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)

	_, err := repo.CastVote(context.Background(), "missing", "voter", models.VoteUp)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAssignmentRepository_ConcurrentVotes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()
	a := createTestAssignment(t, db, "author", "c1", "A")

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := models.VoteUp
			if i%4 == 0 {
				dir = models.VoteDown
			}
			_, err := repo.CastVote(ctx, a.ID, fmt.Sprintf("voter-%d", i), dir)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 15 up, 5 down
	loaded, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, loaded.VoteCount)

	var sum int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("assignment_id = ?", a.ID).
		Select("COALESCE(SUM(direction), 0)").
		Scan(&sum).Error)
	assert.Equal(t, loaded.VoteCount, sum)
}

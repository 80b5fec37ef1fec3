package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func defaultLevels() []models.LevelConfig {
	return []models.LevelConfig{
		{LevelNumber: 1, XPRequired: 0, RewardName: strPtr("Novice")},
		{LevelNumber: 2, XPRequired: 100, RewardName: strPtr("Contributor")},
		{LevelNumber: 3, XPRequired: 500, RewardName: strPtr("Expert")},
	}
}

func TestLevelRepository_ListAscending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLevelRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]models.LevelConfig{
		{CompanyID: "c1", LevelNumber: 3, XPRequired: 500},
		{CompanyID: "c1", LevelNumber: 1, XPRequired: 0},
		{CompanyID: "c1", LevelNumber: 2, XPRequired: 100},
		{CompanyID: "c2", LevelNumber: 1, XPRequired: 0},
	}).Error)

	levels, err := repo.ListByCompany(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, levels, 3)
	for i, l := range levels {
		assert.Equal(t, i+1, l.LevelNumber)
	}

	_, err = repo.FindByLevel(ctx, "c1", 9)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLevelRepository_ReplaceRederivesProgress(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLevelRepository(db)
	ctx := context.Background()

	_, err := repo.Replace(ctx, "c1", defaultLevels(), highestReached)
	require.NoError(t, err)

	require.NoError(t, db.Create(&[]models.UserProgress{
		{UserID: "u1", CompanyID: "c1", CurrentXP: 150, CurrentLevel: 2},
		{UserID: "u2", CompanyID: "c1", CurrentXP: 10, CurrentLevel: 1},
	}).Error)

	// cheaper thresholds promote both users
	changes, err := repo.Replace(ctx, "c1", []models.LevelConfig{
		{LevelNumber: 1, XPRequired: 0},
		{LevelNumber: 2, XPRequired: 5},
		{LevelNumber: 3, XPRequired: 120},
	}, highestReached)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	byUser := map[string]ProgressChange{}
	for _, c := range changes {
		byUser[c.After.UserID] = c
	}
	assert.Equal(t, 2, byUser["u1"].Before.CurrentLevel)
	assert.Equal(t, 3, byUser["u1"].After.CurrentLevel)
	assert.Equal(t, 1, byUser["u2"].Before.CurrentLevel)
	assert.Equal(t, 2, byUser["u2"].After.CurrentLevel)

	levels, err := repo.ListByCompany(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Nil(t, levels[0].RewardName)
	assert.EqualValues(t, 120, levels[2].XPRequired)
}

func TestLevelRepository_ReplaceRollsBackOnInsertFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLevelRepository(db)
	ctx := context.Background()

	_, err := repo.Replace(ctx, "c1", defaultLevels(), highestReached)
	require.NoError(t, err)

	injected := errors.New("insert failed")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_levels", func(tx *gorm.DB) {
		if tx.Statement.Table == "level_configs" {
			tx.AddError(injected)
		}
	}))
	t.Cleanup(func() {
		_ = db.Callback().Create().Remove("test:fail_levels")
	})

	_, err = repo.Replace(ctx, "c1", []models.LevelConfig{{LevelNumber: 1, XPRequired: 0}}, highestReached)
	require.ErrorIs(t, err, injected)

	levels, err := repo.ListByCompany(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, levels, 3, "prior table must survive a failed replace")
}

func TestLevelRepository_ReplaceIsOneTransactionOnPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "companies" WHERE id = \$1 FOR UPDATE`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1"))
	mock.ExpectExec(`DELETE FROM "level_configs"`).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO "level_configs"`).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	repo := NewLevelRepository(db)
	_, err = repo.Replace(context.Background(), "c1", []models.LevelConfig{{LevelNumber: 1, XPRequired: 0}}, highestReached)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/config"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBPath: "x.db"})
		require.NoError(t, err, driver)
		assert.Equal(t, driver, d.Name())
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenInMemoryAndIndexes(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}

	require.NoError(t, AddIndexes(db, logger.Nop()))
	assert.True(t, db.Migrator().HasIndex(&models.UserProgress{}, "idx_user_progress_company_xp"))

	// second run is a no-op
	require.NoError(t, AddIndexes(db, logger.Nop()))
}

func TestTagListRoundTrip(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)

	a := models.Assignment{Title: "t", UserID: "u", CompanyID: "c", Tags: models.TagList{"go", "sql"}}
	require.NoError(t, db.Create(&a).Error)
	assert.NotEmpty(t, a.ID)

	var loaded models.Assignment
	require.NoError(t, db.First(&loaded, "id = ?", a.ID).Error)
	assert.Equal(t, models.TagList{"go", "sql"}, loaded.Tags)
}

package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Username: id}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestAssignment(t *testing.T, db *gorm.DB, authorID, companyID, title string) *models.Assignment {
	t.Helper()
	a := &models.Assignment{Title: title, UserID: authorID, CompanyID: companyID}
	require.NoError(t, db.Create(a).Error)
	return a
}

// highestReached mirrors the production level rule for repository tests.
func highestReached(xp int64, levels []models.LevelConfig) int {
	level := 1
	for _, l := range levels {
		if l.XPRequired <= xp {
			level = l.LevelNumber
		}
	}
	return level
}

func strPtr(s string) *string { return &s }

// recordReads logs every SELECT as "<table>" or "<table> <lock strength>".
func recordReads(t *testing.T, db *gorm.DB) (reads func() []string, reset func()) {
	t.Helper()
	var mu sync.Mutex
	var log []string
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:record_reads", func(tx *gorm.DB) {
		entry := tx.Statement.Table
		if c, ok := tx.Statement.Clauses["FOR"]; ok {
			if l, ok := c.Expression.(clause.Locking); ok {
				entry += " " + l.Strength
			}
		}
		mu.Lock()
		log = append(log, entry)
		mu.Unlock()
	}))
	reads = func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), log...)
	}
	reset = func() {
		mu.Lock()
		log = nil
		mu.Unlock()
	}
	return reads, reset
}

package database

import (
	"fmt"

	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes creates the read-path indexes that are not declared on the model tags.
func AddIndexes(db *gorm.DB, log *logger.Logger) error {
	indexes := []struct {
		model interface{}
		name  string
		sql   string
	}{
		// leaderboard: top XP per company
		{&models.UserProgress{}, "idx_user_progress_company_xp", "CREATE INDEX idx_user_progress_company_xp ON user_progress (company_id, current_xp DESC)"},
		// comments are always read per assignment in creation order
		{&models.Comment{}, "idx_comments_assignment_created", "CREATE INDEX idx_comments_assignment_created ON comments (assignment_id, created_at)"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("Index already exists, skipping", "index", idx.name)
			continue
		}
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		log.Info("Created index", "index", idx.name)
	}

	return nil
}

package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/identity"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/realtime"
	"github.com/yukikurage/questboard-api/internal/repository"
	"github.com/yukikurage/questboard-api/internal/storage"
	"gorm.io/gorm"
)

type recordingHook struct {
	mu     sync.Mutex
	grants []RewardGrant
	err    error
}

func (h *recordingHook) OnLevelUp(ctx context.Context, grant RewardGrant) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.grants = append(h.grants, grant)
	return h.err
}

func (h *recordingHook) Grants() []RewardGrant {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]RewardGrant(nil), h.grants...)
}

type testEnv struct {
	db          *gorm.DB
	feed        *realtime.MemoryFeed
	store       *storage.MemoryStore
	hook        *recordingHook
	progress    *ProgressService
	levels      *LevelService
	votes       *VoteService
	assignments *AssignmentService
	comments    *CommentService
	sync        *SyncService
	bridge      *LevelUpBridge
	levelRepo   repository.LevelRepository
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	log := logger.Nop()
	feed := realtime.NewMemoryFeed()
	t.Cleanup(func() { feed.Close() })
	store := storage.NewMemoryStore("https://files.test")
	hook := &recordingHook{}

	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	levelRepo := repository.NewLevelRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	progress := NewProgressService(log, progressRepo, levelRepo, feed, DefaultXPAwards(), hook)
	assignments := NewAssignmentService(log, assignmentRepo, companyRepo, store, progress, 1024)

	return &testEnv{
		db:          db,
		feed:        feed,
		store:       store,
		hook:        hook,
		progress:    progress,
		levels:      NewLevelService(log, levelRepo, progress),
		votes:       NewVoteService(log, assignmentRepo, progress),
		assignments: assignments,
		comments:    NewCommentService(log, commentRepo, assignments, progress),
		sync:        NewSyncService(log, companyRepo, userRepo, progressRepo, identity.NewDevProvider("biz_1")),
		bridge:      NewLevelUpBridge(log, feed, levelRepo),
		levelRepo:   levelRepo,
	}
}

// seedCompany creates the company with the default level table and the given users.
func (e *testEnv) seedCompany(t *testing.T, companyID string, userIDs ...string) {
	t.Helper()
	ctx := context.Background()
	for _, u := range userIDs {
		require.NoError(t, e.sync.Ensure(ctx, u, companyID))
	}
}

func (e *testEnv) createAssignment(t *testing.T, companyID, authorID, title string) *models.Assignment {
	t.Helper()
	a, err := e.assignments.Create(context.Background(), CreateAssignmentInput{
		CompanyID: companyID,
		UserID:    authorID,
		Title:     title,
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) progressOf(t *testing.T, userID, companyID string) *ProgressView {
	t.Helper()
	view, err := e.progress.Get(context.Background(), userID, companyID)
	require.NoError(t, err)
	return view
}

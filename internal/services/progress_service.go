package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yukikurage/questboard-api/internal/constants"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/realtime"
	"github.com/yukikurage/questboard-api/internal/repository"
)

const rewardHookTimeout = 10 * time.Second

type AwardReason string

const (
	AwardAssignmentPosted AwardReason = "assignment_posted"
	AwardCommentPosted    AwardReason = "comment_posted"
	AwardUpvoteReceived   AwardReason = "upvote_received"
)

// XPAwards configures how much XP each activity earns.
type XPAwards struct {
	AssignmentPosted int64
	CommentPosted    int64
	UpvoteReceived   int64
}

func DefaultXPAwards() XPAwards {
	return XPAwards{
		AssignmentPosted: constants.DefaultXPAssignmentPosted,
		CommentPosted:    constants.DefaultXPCommentPosted,
		UpvoteReceived:   constants.DefaultXPUpvoteReceived,
	}
}

func (a XPAwards) amount(reason AwardReason) int64 {
	switch reason {
	case AwardAssignmentPosted:
		return a.AssignmentPosted
	case AwardCommentPosted:
		return a.CommentPosted
	case AwardUpvoteReceived:
		return a.UpvoteReceived
	default:
		return 0
	}
}

// ProgressView is a user's standing in a company. Initialized is false when
// the user has no stored progress yet.
type ProgressView struct {
	UserID       string `json:"user_id"`
	CompanyID    string `json:"company_id"`
	CurrentXP    int64  `json:"current_xp"`
	CurrentLevel int    `json:"current_level"`
	Initialized  bool   `json:"initialized"`
	// NextLevelXP is the threshold of the next level, nil at the top.
	NextLevelXP *int64 `json:"next_level_xp"`
}

// ProgressService owns XP credits and the level derived from them.
type ProgressService struct {
	log          *logger.Logger
	progressRepo repository.ProgressRepository
	levelRepo    repository.LevelRepository
	feed         realtime.Feed
	hooks        []RewardHook
	awards       XPAwards
}

func NewProgressService(
	log *logger.Logger,
	progressRepo repository.ProgressRepository,
	levelRepo repository.LevelRepository,
	feed realtime.Feed,
	awards XPAwards,
	hooks ...RewardHook,
) *ProgressService {
	return &ProgressService{
		log:          log.With("service", "ProgressService"),
		progressRepo: progressRepo,
		levelRepo:    levelRepo,
		feed:         feed,
		hooks:        hooks,
		awards:       awards,
	}
}

// Get returns the user's progress, or the zero state when none is stored.
func (s *ProgressService) Get(ctx context.Context, userID, companyID string) (*ProgressView, error) {
	var (
		progress *models.UserProgress
		found    bool
		levels   []models.LevelConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, found, err = s.progressRepo.Find(gctx, userID, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		levels, err = s.levelRepo.ListByCompany(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceError("load progress", err)
	}

	view := &ProgressView{UserID: userID, CompanyID: companyID}
	if found {
		view.CurrentXP = progress.CurrentXP
		view.CurrentLevel = progress.CurrentLevel
		view.Initialized = true
	} else {
		view.CurrentLevel = DeriveLevel(0, levels)
	}
	for _, l := range levels {
		if l.LevelNumber > view.CurrentLevel {
			xp := l.XPRequired
			view.NextLevelXP = &xp
			break
		}
	}
	return view, nil
}

// Award credits the configured XP for reason. Zero-valued awards are skipped.
func (s *ProgressService) Award(ctx context.Context, userID, companyID string, reason AwardReason) (*repository.ProgressChange, error) {
	amount := s.awards.amount(reason)
	if amount <= 0 {
		return nil, nil
	}
	change, err := s.AddXP(ctx, userID, companyID, amount)
	if err != nil {
		return nil, err
	}
	s.log.Debug("xp awarded", "user_id", userID, "company_id", companyID, "reason", reason, "amount", amount)
	return change, nil
}

// AddXP credits delta XP in one transaction, then announces the change.
func (s *ProgressService) AddXP(ctx context.Context, userID, companyID string, delta int64) (*repository.ProgressChange, error) {
	change, err := s.progressRepo.AddXP(ctx, userID, companyID, delta, DeriveLevel)
	if err != nil {
		return nil, persistenceError("credit xp", err)
	}
	s.afterCommit(ctx, []repository.ProgressChange{change})
	return &change, nil
}

// Leaderboard returns the top users of a company by XP.
func (s *ProgressService) Leaderboard(ctx context.Context, companyID string, limit int) ([]models.UserProgress, error) {
	if limit <= 0 {
		limit = constants.DefaultLeaderboardLimit
	}
	if limit > constants.MaxLeaderboardLimit {
		limit = constants.MaxLeaderboardLimit
	}
	rows, err := s.progressRepo.Leaderboard(ctx, companyID, limit)
	if err != nil {
		return nil, persistenceError("load leaderboard", err)
	}
	return rows, nil
}

// SyncRewards re-runs the reward hooks for the user's current level.
func (s *ProgressService) SyncRewards(ctx context.Context, userID, companyID string) (*RewardGrant, error) {
	view, err := s.Get(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.levelRepo.FindByLevel(ctx, companyID, view.CurrentLevel)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRewardAtLevel
		}
		return nil, persistenceError("load level", err)
	}
	if cfg.RewardName == nil {
		return nil, ErrNoRewardAtLevel
	}

	grant := RewardGrant{UserID: userID, CompanyID: companyID, Level: view.CurrentLevel, Reward: *cfg.RewardName}
	s.runHooks(ctx, grant)
	return &grant, nil
}

// afterCommit publishes change events and fires reward hooks for level-ups.
// Both are best effort: the XP write has already committed.
func (s *ProgressService) afterCommit(ctx context.Context, changes []repository.ProgressChange) {
	if len(changes) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	levelsByCompany := map[string][]models.LevelConfig{}

	for _, c := range changes {
		event := realtime.ChangeEvent{
			Table:     realtime.TableUserProgress,
			UserID:    c.After.UserID,
			CompanyID: c.After.CompanyID,
			Old:       realtime.ProgressSnapshot{XP: c.Before.CurrentXP, Level: c.Before.CurrentLevel},
			New:       realtime.ProgressSnapshot{XP: c.After.CurrentXP, Level: c.After.CurrentLevel},
			At:        time.Now().UTC(),
		}
		if s.feed != nil {
			if err := s.feed.Publish(ctx, event); err != nil {
				s.log.Error("failed to publish progress change", "error", err, "user_id", event.UserID, "company_id", event.CompanyID)
			}
		}

		if c.After.CurrentLevel <= c.Before.CurrentLevel || len(s.hooks) == 0 {
			continue
		}
		levels, ok := levelsByCompany[c.After.CompanyID]
		if !ok {
			var err error
			levels, err = s.levelRepo.ListByCompany(ctx, c.After.CompanyID)
			if err != nil {
				s.log.Error("failed to load levels for reward", "error", err, "company_id", c.After.CompanyID)
				continue
			}
			levelsByCompany[c.After.CompanyID] = levels
		}
		up, ok := ResolveLevelUp(c.Before.CurrentLevel, c.After.CurrentLevel, levels)
		if !ok || up.Reward == nil {
			continue
		}
		s.runHooks(ctx, RewardGrant{
			UserID:    c.After.UserID,
			CompanyID: c.After.CompanyID,
			Level:     up.To,
			Reward:    *up.Reward,
		})
	}
}

func (s *ProgressService) runHooks(ctx context.Context, grant RewardGrant) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rewardHookTimeout)
	defer cancel()
	for _, h := range s.hooks {
		if err := h.OnLevelUp(ctx, grant); err != nil {
			s.log.Error("reward hook failed", "error", err, "user_id", grant.UserID, "company_id", grant.CompanyID, "level", grant.Level)
		}
	}
}

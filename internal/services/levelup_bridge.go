package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/realtime"
	"github.com/yukikurage/questboard-api/internal/repository"
)

// LevelUpNotice is delivered once for every committed progress change that
// raised the user's level.
type LevelUpNotice struct {
	UserID    string  `json:"user_id"`
	CompanyID string  `json:"company_id"`
	OldLevel  int     `json:"old_level"`
	Level     int     `json:"level"`
	XP        int64   `json:"xp"`
	Reward    *string `json:"reward"`
}

// LevelUpBridge turns raw progress change events into level-up notices for a
// single user in a single company.
type LevelUpBridge struct {
	log       *logger.Logger
	feed      realtime.Feed
	levelRepo repository.LevelRepository
}

func NewLevelUpBridge(log *logger.Logger, feed realtime.Feed, levelRepo repository.LevelRepository) *LevelUpBridge {
	return &LevelUpBridge{
		log:       log.With("service", "LevelUpBridge"),
		feed:      feed,
		levelRepo: levelRepo,
	}
}

// Watch subscribes to the user's progress changes. The returned channel is
// closed and the subscription released when ctx ends. Events are evaluated
// one by one and never coalesced.
func (b *LevelUpBridge) Watch(ctx context.Context, userID, companyID string) (<-chan LevelUpNotice, error) {
	sub, err := b.feed.Subscribe(ctx, realtime.Filter{UserID: userID, CompanyID: companyID})
	if err != nil {
		return nil, err
	}

	out := make(chan LevelUpNotice)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				notice, ok := b.evaluate(ctx, event)
				if !ok {
					continue
				}
				select {
				case out <- notice:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *LevelUpBridge) evaluate(ctx context.Context, event realtime.ChangeEvent) (LevelUpNotice, bool) {
	if event.New.Level <= event.Old.Level {
		return LevelUpNotice{}, false
	}
	notice := LevelUpNotice{
		UserID:    event.UserID,
		CompanyID: event.CompanyID,
		OldLevel:  event.Old.Level,
		Level:     event.New.Level,
		XP:        event.New.XP,
	}

	cfg, err := b.levelRepo.FindByLevel(ctx, event.CompanyID, event.New.Level)
	switch {
	case err == nil:
		notice.Reward = cfg.RewardName
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		// the level-up still happened; deliver it without the reward name
		b.log.Warn("failed to resolve reward", "error", err, "company_id", event.CompanyID, "level", event.New.Level)
	}
	return notice, true
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

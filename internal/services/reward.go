package services

import (
	"context"

	"github.com/yukikurage/questboard-api/internal/logger"
)

// RewardGrant is handed to reward hooks once per level increase that has a
// reward bound to the new level.
type RewardGrant struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Level     int    `json:"level"`
	Reward    string `json:"reward"`
}

// RewardHook grants or announces a reward. Failures are logged by the caller
// and never undo the level change.
type RewardHook interface {
	OnLevelUp(ctx context.Context, grant RewardGrant) error
}

// RewardHookFunc adapts a function to RewardHook.
type RewardHookFunc func(ctx context.Context, grant RewardGrant) error

func (f RewardHookFunc) OnLevelUp(ctx context.Context, grant RewardGrant) error {
	return f(ctx, grant)
}

// LogRewardHook only records grants.
type LogRewardHook struct {
	log *logger.Logger
}

func NewLogRewardHook(log *logger.Logger) *LogRewardHook {
	return &LogRewardHook{log: log.With("service", "RewardLog")}
}

func (h *LogRewardHook) OnLevelUp(ctx context.Context, grant RewardGrant) error {
	h.log.Info("reward granted",
		"user_id", grant.UserID,
		"company_id", grant.CompanyID,
		"level", grant.Level,
		"reward", grant.Reward,
	)
	return nil
}

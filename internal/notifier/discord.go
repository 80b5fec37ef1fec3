package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/repository"
	"github.com/yukikurage/questboard-api/internal/services"
)

// ChannelSender is the part of *discordgo.Session the announcer needs.
type ChannelSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordRewardAnnouncer posts level-up rewards to a Discord channel. It only
// announces; granting the reward is left to other hooks.
type DiscordRewardAnnouncer struct {
	log       *logger.Logger
	session   ChannelSender
	channelID string
	users     repository.UserRepository
}

func NewDiscordRewardAnnouncer(log *logger.Logger, session ChannelSender, channelID string, users repository.UserRepository) *DiscordRewardAnnouncer {
	return &DiscordRewardAnnouncer{
		log:       log.With("service", "DiscordRewardAnnouncer"),
		session:   session,
		channelID: channelID,
		users:     users,
	}
}

func (n *DiscordRewardAnnouncer) OnLevelUp(ctx context.Context, grant services.RewardGrant) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	name := grant.UserID
	if n.users != nil {
		if user, err := n.users.FindByID(ctx, grant.UserID); err == nil && user.Username != "" {
			name = user.Username
		}
	}

	message := fmt.Sprintf("🏆 **Level Up**\n**User:** %s\n**Level:** %d\n**Reward:** %s",
		name,
		grant.Level,
		grant.Reward,
	)

	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		n.log.Error("failed to send discord message", "error", err, "user_id", grant.UserID, "company_id", grant.CompanyID)
		return err
	}
	return nil
}

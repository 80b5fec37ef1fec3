package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/questboard-api/internal/database"
	"github.com/yukikurage/questboard-api/internal/logger"
	"github.com/yukikurage/questboard-api/internal/models"
	"github.com/yukikurage/questboard-api/internal/repository"
	"github.com/yukikurage/questboard-api/internal/services"
)

type fakeSender struct {
	channel string
	content string
	err     error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = content
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

var grant = services.RewardGrant{UserID: "user_a", CompanyID: "biz_1", Level: 3, Reward: "Expert Access"}

func TestAnnouncer_PostsWithUsername(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	users := repository.NewUserRepository(db)
	require.NoError(t, users.Upsert(context.Background(), &models.User{ID: "user_a", Username: "alice"}))

	sender := &fakeSender{}
	n := NewDiscordRewardAnnouncer(logger.Nop(), sender, "chan-1", users)

	require.NoError(t, n.OnLevelUp(context.Background(), grant))
	assert.Equal(t, "chan-1", sender.channel)
	assert.Contains(t, sender.content, "alice")
	assert.Contains(t, sender.content, "**Level:** 3")
	assert.Contains(t, sender.content, "Expert Access")
}

func TestAnnouncer_FallsBackToUserID(t *testing.T) {
	sender := &fakeSender{}
	n := NewDiscordRewardAnnouncer(logger.Nop(), sender, "chan-1", nil)

	require.NoError(t, n.OnLevelUp(context.Background(), grant))
	assert.Contains(t, sender.content, "user_a")
}

func TestAnnouncer_Errors(t *testing.T) {
	assert.Error(t, NewDiscordRewardAnnouncer(logger.Nop(), nil, "chan-1", nil).OnLevelUp(context.Background(), grant))
	assert.Error(t, NewDiscordRewardAnnouncer(logger.Nop(), &fakeSender{}, "", nil).OnLevelUp(context.Background(), grant))

	boom := errors.New("rate limited")
	n := NewDiscordRewardAnnouncer(logger.Nop(), &fakeSender{err: boom}, "chan-1", nil)
	assert.ErrorIs(t, n.OnLevelUp(context.Background(), grant), boom)
}

func TestAnnouncer_IsRewardHook(t *testing.T) {
	var _ services.RewardHook = (*DiscordRewardAnnouncer)(nil)
}

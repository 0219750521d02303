package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modelqueue"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/broker/v1/broker"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1"
	"github.com/rs/zerolog"
)

const (
	colorGold = 0xf1c40f
	colorBlue = 0x3498db
)

var (
	_ publisher.Channel = (*RankingChannel)(nil)
	_ broker.Sink       = (*AdminSink)(nil)
)

// RankingChannel shows the leaderboard as an embed in a Discord text channel.
type RankingChannel struct {
	api       discordAPI
	channelID string
	log       *zerolog.Logger
}

// NewRankingChannel binds the leaderboard to the given channel.
func NewRankingChannel(session *discordgo.Session, channelID string, log *zerolog.Logger) *RankingChannel {
	return &RankingChannel{api: session, channelID: channelID, log: log}
}

// LastMessageID returns the most recent message of the channel, whoever wrote it.
func (c *RankingChannel) LastMessageID(ctx context.Context) (string, bool, error) {
	if c.channelID == "" {
		return "", false, &NotConfiguredError{Name: "RANKING_CHANNEL"}
	}
	messages, err := c.api.ChannelMessages(c.channelID, 1, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return "", false, err
	}
	if len(messages) == 0 {
		return "", false, nil
	}
	return messages[0].ID, true, nil
}

// EditMessage replaces the embed of an existing message.
func (c *RankingChannel) EditMessage(ctx context.Context, id string, leaderboard publisher.Leaderboard) error {
	_, err := c.api.ChannelMessageEditEmbed(c.channelID, id, leaderboardEmbed(leaderboard), discordgo.WithContext(ctx))
	return err
}

// SendMessage posts a new leaderboard message and returns its identifier.
func (c *RankingChannel) SendMessage(ctx context.Context, leaderboard publisher.Leaderboard) (string, error) {
	if c.channelID == "" {
		return "", &NotConfiguredError{Name: "RANKING_CHANNEL"}
	}
	msg, err := c.api.ChannelMessageSendEmbed(c.channelID, leaderboardEmbed(leaderboard), discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func leaderboardEmbed(leaderboard publisher.Leaderboard) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "**" + leaderboard.Title + "**",
		Description: leaderboard.Description,
		Color:       colorBlue,
	}
}

// AdminSink posts notifications to the admin channels: collections to one, sales to another.
type AdminSink struct {
	api      discordAPI
	channels *config.ChannelConfig
	log      *zerolog.Logger
}

// NewAdminSink creates a notification sink over the bot session.
func NewAdminSink(session *discordgo.Session, channels *config.ChannelConfig, log *zerolog.Logger) *AdminSink {
	return &AdminSink{api: session, channels: channels, log: log}
}

// Name identifies the sink in logs.
func (s *AdminSink) Name() string {
	return "discord"
}

// Deliver sends the notification text to the admin channel of its kind.
func (s *AdminSink) Deliver(ctx context.Context, notification modelqueue.Notification) error {
	channelID, name := s.channels.AdminChannel, "ADMIN_CHANNEL"
	if notification.Kind == modelqueue.KindSale {
		channelID, name = s.channels.SaleAdminChannel, "VENDA_ADMIN_CHANNEL"
	}
	if channelID == "" {
		return &NotConfiguredError{Name: name}
	}
	_, err := s.api.ChannelMessageSend(channelID, notification.Text(), discordgo.WithContext(ctx))
	return err
}

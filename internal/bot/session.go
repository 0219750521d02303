package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/danilovkiri/dk-go-coletabot/internal/config"
)

// discordAPI is the part of *discordgo.Session the bot talks to.
type discordAPI interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

var _ discordAPI = (*discordgo.Session)(nil)

// NewSession creates a Discord session that is not connected yet.
func NewSession(cfg *config.BotConfig) (*discordgo.Session, error) {
	if cfg.Token == "" {
		return nil, &NotConfiguredError{Name: "DISCORD_TOKEN"}
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	return s, nil
}

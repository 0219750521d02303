// Package bot implements the Discord surface of the ledger: slash commands, registration
// buttons and modals on the way in, admin notifications and the leaderboard on the way out.
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/ledger/v1"
	serviceErrors "github.com/danilovkiri/dk-go-coletabot/internal/service/ledger/v1/errors"
	storageErrors "github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/errors"
	"github.com/rs/zerolog"
)

// Replies shown to the submitter, only visible to them.
const (
	ReplyCollectionRecorded = "Coleta registrada com sucesso!"
	ReplySaleRecorded       = "Venda registrada com sucesso!"
	ReplyInvalidBoxes       = "Por favor, insira um número válido e positivo para a quantidade de caixas."
	ReplyInvalidAmount      = "Por favor, insira um número válido para o valor da venda."
	ReplyStoreFailure       = "Não foi possível registrar agora. Tente novamente em instantes."
	ReplyEmbedSent          = "Embed enviada!"
	ReplyChannelNotFound    = "Canal não encontrado."
)

// Bot defines attributes of a struct available to its methods.
type Bot struct {
	session  *discordgo.Session
	api      discordAPI
	ledger   ledger.Ledger
	guildID  string
	channels *config.ChannelConfig
	log      *zerolog.Logger
}

// InitBot initializes a bot on an unopened session and registers its interaction handler.
func InitBot(session *discordgo.Session, l ledger.Ledger, botConfig *config.BotConfig, channels *config.ChannelConfig, log *zerolog.Logger) (*Bot, error) {
	if session == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil session was passed to bot initializer"}
	}
	if l == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger was passed to bot initializer"}
	}
	b := &Bot{
		session:  session,
		api:      session,
		ledger:   l,
		guildID:  botConfig.GuildID,
		channels: channels,
		log:      log,
	}
	session.AddHandler(b.InteractionHandler)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info().Str("user", r.User.Username).Msg("bot connected")
	})
	return b, nil
}

// Open connects to the gateway and registers the slash commands, for GuildID only when set.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return err
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, Commands())
	if err != nil {
		return fmt.Errorf("registering commands failed: %w", err)
	}
	b.log.Info().Int("commands", len(registered)).Str("guild", b.guildID).Msg("commands synchronized")
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	b.log.Info().Msg("closing discord session")
	return b.session.Close()
}

// InteractionHandler answers every interaction the bot receives.
func (b *Bot) InteractionHandler(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handle(context.Background(), i.Interaction)
}

func (b *Bot) handle(ctx context.Context, i *discordgo.Interaction) {
	response := b.route(ctx, i)
	if response == nil {
		return
	}
	if err := b.api.InteractionRespond(i, response, discordgo.WithContext(ctx)); err != nil {
		b.log.Error().Err(err).Str("interaction", i.ID).Msg("responding to interaction failed")
	}
}

// route picks the response of an interaction; nil means the interaction is not ours.
func (b *Bot) route(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case CommandSendEmbed:
			return b.postRegistration(ctx, collectionEmbedMessage())
		case CommandSendSaleEmbed:
			return b.postRegistration(ctx, saleEmbedMessage())
		case CommandCollection:
			return collectionModal()
		case CommandSale:
			return saleModal()
		}
	case discordgo.InteractionMessageComponent:
		switch i.MessageComponentData().CustomID {
		case ButtonCollection:
			return collectionModal()
		case ButtonSale:
			return saleModal()
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		switch data.CustomID {
		case ModalCollection:
			return ephemeral(b.submitCollection(ctx, ModalValues(data)))
		case ModalSale:
			return ephemeral(b.submitSale(ctx, ModalValues(data)))
		}
	}
	b.log.Debug().Str("interaction", i.ID).Msg("ignoring unknown interaction")
	return nil
}

func (b *Bot) postRegistration(ctx context.Context, message *discordgo.MessageSend) *discordgo.InteractionResponse {
	if b.channels.EmbedChannel == "" {
		b.log.Warn().Err(&NotConfiguredError{Name: "EMBED_CHANNEL"}).Msg("posting registration embed failed")
		return ephemeral(ReplyChannelNotFound)
	}
	if _, err := b.api.ChannelMessageSendComplex(b.channels.EmbedChannel, message, discordgo.WithContext(ctx)); err != nil {
		b.log.Error().Err(err).Str("channel", b.channels.EmbedChannel).Msg("posting registration embed failed")
		return ephemeral(ReplyChannelNotFound)
	}
	return ephemeral(ReplyEmbedSent)
}

func (b *Bot) submitCollection(ctx context.Context, values map[string]string) string {
	_, err := b.ledger.RecordCollection(ctx, values[FieldUserID], values[FieldName], values[FieldBoxes])
	if err != nil {
		return b.failureReply(err, ReplyInvalidBoxes)
	}
	return ReplyCollectionRecorded
}

func (b *Bot) submitSale(ctx context.Context, values map[string]string) string {
	_, err := b.ledger.RecordSale(ctx, values[FieldUserID], values[FieldName], values[FieldDescription], values[FieldDelivered], values[FieldAmount])
	if err != nil {
		return b.failureReply(err, ReplyInvalidAmount)
	}
	return ReplySaleRecorded
}

func (b *Bot) failureReply(err error, validationReply string) string {
	if serviceErrors.IsValidation(err) {
		b.log.Info().Err(err).Msg("submission rejected")
		return validationReply
	}
	if storageErrors.IsStoreError(err) {
		b.log.Error().Err(err).Msg("submission could not be stored")
	} else {
		b.log.Error().Err(err).Msg("submission failed")
	}
	return ReplyStoreFailure
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

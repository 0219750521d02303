// Package publisher keeps the collection leaderboard posted in a channel, editing the
// previous post whenever possible instead of stacking new ones.
package publisher

import (
	"context"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1"
	publisherErrors "github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1"
	"github.com/rs/zerolog"
)

// MessageIDSetting is the settings key holding the leaderboard message in pinned mode.
const MessageIDSetting = "ranking_message_id"

const (
	defaultSize         = 10
	defaultInterval     = 5 * time.Minute
	defaultStoreTimeout = 5 * time.Second
)

var _ publisher.Publisher = (*Publisher)(nil)

// Publisher defines attributes of a struct available to its methods.
type Publisher struct {
	storage      storage.Storage
	channel      publisher.Channel
	size         int
	interval     time.Duration
	pinned       bool
	storeTimeout time.Duration
	log          *zerolog.Logger
}

// InitPublisher initializes a publisher; zero values of cfg fall back to a top 10 every five minutes.
func InitPublisher(st storage.Storage, channel publisher.Channel, cfg *config.PublisherConfig, storeTimeout time.Duration, log *zerolog.Logger) (*Publisher, error) {
	if st == nil {
		return nil, &publisherErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to publisher initializer"}
	}
	if channel == nil {
		return nil, &publisherErrors.ServiceFoundNilArgument{Msg: "nil channel was passed to publisher initializer"}
	}
	if cfg == nil {
		cfg = &config.PublisherConfig{}
	}
	p := &Publisher{
		storage:      st,
		channel:      channel,
		size:         cfg.Size,
		interval:     cfg.Interval,
		pinned:       cfg.PinMessage,
		storeTimeout: storeTimeout,
		log:          log,
	}
	if p.size <= 0 {
		p.size = defaultSize
	}
	if p.interval <= 0 {
		p.interval = defaultInterval
	}
	if p.storeTimeout <= 0 {
		p.storeTimeout = defaultStoreTimeout
	}
	return p, nil
}

// Run publishes right away and then on every tick until ctx is done. Failed cycles are logged and skipped.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Info().Dur("interval", p.interval).Bool("pinned", p.pinned).Msg("leaderboard publisher started")
	p.cycle(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("leaderboard publisher stopped")
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Publisher) cycle(ctx context.Context) {
	if err := p.PublishOnce(ctx); err != nil {
		p.log.Error().Err(err).Msg("leaderboard cycle skipped")
	}
}

// Leaderboard reads the current top collectors and renders them.
func (p *Publisher) Leaderboard(ctx context.Context) (publisher.Leaderboard, error) {
	storeCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	totals, err := p.storage.TopCollections(storeCtx, p.size)
	if err != nil {
		return publisher.Leaderboard{}, &publisherErrors.PublishError{Stage: "read", Err: err}
	}
	return Render(totals), nil
}

// PublishOnce runs a single leaderboard cycle.
func (p *Publisher) PublishOnce(ctx context.Context) error {
	leaderboard, err := p.Leaderboard(ctx)
	if err != nil {
		return err
	}
	if p.pinned {
		return p.publishPinned(ctx, leaderboard)
	}
	return p.publishLast(ctx, leaderboard)
}

// publishLast edits the most recent message of the channel, or posts when the channel is empty.
func (p *Publisher) publishLast(ctx context.Context, leaderboard publisher.Leaderboard) error {
	id, found, err := p.channel.LastMessageID(ctx)
	if err != nil {
		return &publisherErrors.PublishError{Stage: "resolve", Err: err}
	}
	if found {
		err := p.channel.EditMessage(ctx, id, leaderboard)
		if err == nil {
			p.log.Info().Str("message", id).Int("entries", len(leaderboard.Entries)).Msg("leaderboard edited")
			return nil
		}
		p.log.Warn().Err(err).Str("message", id).Msg("editing leaderboard failed, posting a new one")
	}
	_, err = p.send(ctx, leaderboard)
	return err
}

// publishPinned edits the message remembered in settings, or posts one and remembers it.
func (p *Publisher) publishPinned(ctx context.Context, leaderboard publisher.Leaderboard) error {
	storeCtx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	id, err := p.storage.GetSetting(storeCtx, MessageIDSetting)
	cancel()
	if err != nil {
		return &publisherErrors.PublishError{Stage: "resolve", Err: err}
	}
	if id != "" {
		err := p.channel.EditMessage(ctx, id, leaderboard)
		if err == nil {
			p.log.Info().Str("message", id).Int("entries", len(leaderboard.Entries)).Msg("leaderboard edited")
			return nil
		}
		p.log.Warn().Err(err).Str("message", id).Msg("editing pinned leaderboard failed, posting a new one")
	}
	newID, err := p.send(ctx, leaderboard)
	if err != nil {
		return err
	}
	storeCtx, cancel = context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	if err := p.storage.SetSetting(storeCtx, MessageIDSetting, newID); err != nil {
		return &publisherErrors.PublishError{Stage: "remember", Err: err}
	}
	return nil
}

func (p *Publisher) send(ctx context.Context, leaderboard publisher.Leaderboard) (string, error) {
	id, err := p.channel.SendMessage(ctx, leaderboard)
	if err != nil {
		return "", &publisherErrors.PublishError{Stage: "send", Err: err}
	}
	p.log.Info().Str("message", id).Int("entries", len(leaderboard.Entries)).Msg("leaderboard posted")
	return id, nil
}

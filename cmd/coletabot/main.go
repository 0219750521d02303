package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	rest "github.com/danilovkiri/dk-go-coletabot/internal/api/rest/v1"
	"github.com/danilovkiri/dk-go-coletabot/internal/bot"
	"github.com/danilovkiri/dk-go-coletabot/internal/client"
	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/logger"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/broker/v1/broker"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/ledger/v1/ledger"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1/publisher"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/factory"
	"golang.org/x/sync/errgroup"
)

func main() {
	wg := &sync.WaitGroup{}

	// get configuration
	cfg, err := config.NewConfiguration()
	if err != nil {
		logger.InitLog("info").Fatal().Err(err).Msg("")
	}
	cfg.ParseFlags()
	log := logger.InitLog(cfg.BotConfig.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize storage
	store, err := factory.InitStorage(ctx, cfg.StorageConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage initialization failed")
	}

	// initialize discord session
	session, err := bot.NewSession(cfg.BotConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	// initialize notification broker
	sinks := []broker.Sink{bot.NewAdminSink(session, cfg.ChannelConfig, log)}
	if cfg.NotifierConfig.WebhookURL != "" {
		sinks = append(sinks, client.InitClient(cfg.NotifierConfig, log))
	}
	brokerService := broker.InitBroker(ctx, log, wg, cfg.QueueConfig.WorkerNumber, cfg.QueueConfig.QueueSize, cfg.QueueConfig.RetryNumber, sinks...)
	brokerService.ListenAndProcess()

	// initialize main services
	ledgerService, err := ledger.InitService(store, brokerService, cfg.StorageConfig.Timeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	rankingChannel := bot.NewRankingChannel(session, cfg.ChannelConfig.RankingChannel, log)
	publisherService, err := publisher.InitPublisher(store, rankingChannel, cfg.PublisherConfig, cfg.StorageConfig.Timeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	// connect the bot
	discordBot, err := bot.InitBot(session, ledgerService, cfg.BotConfig, cfg.ChannelConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	if err := discordBot.Open(); err != nil {
		log.Fatal().Err(err).Msg("discord connection failed")
	}

	// initialize health server
	var server *http.Server
	if cfg.ServerConfig.ServerAddress != "" {
		server, err = rest.InitServer(cfg.ServerConfig, publisherService, log)
		if err != nil {
			log.Fatal().Err(err).Msg("")
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		publisherService.Run(gCtx)
		return nil
	})
	if server != nil {
		g.Go(func() error {
			log.Info().Str("address", server.Addr).Msg("server start attempted")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// set a listener for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	g.Go(func() error {
		select {
		case <-done:
			log.Info().Msg("shutdown signal received")
		case <-gCtx.Done():
		}
		if err := discordBot.Close(); err != nil {
			log.Error().Err(err).Msg("closing discord session failed")
		}
		if server != nil {
			ctxTO, cancelTO := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelTO()
			if err := server.Shutdown(ctxTO); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
			}
		}
		cancel()
		return nil
	})

	runErr := g.Wait()
	wg.Wait()
	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("closing storage failed")
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("bot stopped with error")
	}
	log.Info().Msg("bot shutdown succeeded")
}

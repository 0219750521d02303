package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/logger"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1/publisher"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/factory"
)

func main() {
	asJSON := flag.Bool("json", false, "Print the ranking as JSON")

	cfg, err := config.NewConfiguration()
	if err != nil {
		logger.InitLog("info").Fatal().Err(err).Msg("")
	}
	cfg.ParseFlags()
	log := logger.InitLog(cfg.BotConfig.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StorageConfig.Timeout)
	defer cancel()

	store, err := factory.InitStorage(ctx, cfg.StorageConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage initialization failed")
	}
	defer store.Close()

	totals, err := store.TopCollections(ctx, cfg.PublisherConfig.Size)
	if err != nil {
		log.Fatal().Err(err).Msg("reading ranking failed")
	}
	leaderboard := publisher.Render(totals)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(leaderboard.Entries); err != nil {
			log.Fatal().Err(err).Msg("")
		}
		return
	}
	fmt.Println(leaderboard.Text())
}

// Package factory selects the record store backing medium from configuration.
package factory

import (
	"context"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/infile"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/insql"
	"github.com/rs/zerolog"
)

// InitStorage opens the SQL store when a DSN is configured and the JSON data file otherwise.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (storage.Storage, error) {
	if cfg.DatabaseDSN != "" {
		log.Info().Str("driver", cfg.DatabaseDriver).Msg("using SQL storage")
		st, err := insql.InitStorage(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	log.Info().Str("file", cfg.DataFile).Msg("using file storage")
	st, err := infile.InitStorage(cfg.DataFile, log)
	if err != nil {
		return nil, err
	}
	return st, nil
}

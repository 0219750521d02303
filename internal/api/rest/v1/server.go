// Package rest provides functionality for initializing the health server.
package rest

import (
	"net/http"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/api/rest/v1/handlers"
	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"
)

// InitServer returns a http.Server object ready to be listening and serving.
func InitServer(cfg *config.ServerConfig, rankings publisher.Publisher, log *zerolog.Logger) (*http.Server, error) {
	urlHandler, err := handlers.InitHandlers(rankings, log)
	if err != nil {
		return nil, err
	}

	r := NewRouter(urlHandler)
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv, nil
}

// NewRouter sets routing for the health and ranking endpoints.
func NewRouter(urlHandler *handlers.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", urlHandler.HandleStatus())
	r.Get("/ping", urlHandler.HandlePing())
	r.Get("/api/ranking", urlHandler.HandleGetRanking())
	return r
}

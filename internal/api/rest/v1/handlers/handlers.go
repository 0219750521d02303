// Package handlers provides API endpoint handling functionality.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	handlersErrors "github.com/danilovkiri/dk-go-coletabot/internal/api/rest/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1"
	storageErrors "github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/errors"
	"github.com/rs/zerolog"
)

type statusResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Handler defines attributes of a struct available to its methods.
type Handler struct {
	rankings publisher.Publisher
	log      *zerolog.Logger
}

// InitHandlers initializes a handler object.
func InitHandlers(rankings publisher.Publisher, log *zerolog.Logger) (*Handler, error) {
	if rankings == nil {
		return nil, &handlersErrors.HandlersFoundNilArgument{Msg: "nil publisher was passed to handlers initializer"}
	}
	return &Handler{rankings: rankings, log: log}, nil
}

// HandleStatus reports that the process is alive.
func (h *Handler) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, "HandleStatus", statusResponse{Status: "Bot está rodando!"})
	}
}

// HandlePing answers liveness probes.
func (h *Handler) HandlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, "HandlePing", messageResponse{Message: "pong"})
	}
}

// HandleGetRanking returns the current top collectors.
func (h *Handler) HandleGetRanking() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leaderboard, err := h.rankings.Leaderboard(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("HandleGetRanking failed")
			var contextTimeoutExceededError *storageErrors.ContextTimeoutExceededError
			var unavailableError *storageErrors.UnavailableError
			if errors.As(err, &contextTimeoutExceededError) {
				http.Error(w, err.Error(), http.StatusGatewayTimeout)
			} else if errors.As(err, &unavailableError) {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		entries := leaderboard.Entries
		if entries == nil {
			entries = []modeldto.RankingEntry{}
		}
		h.writeJSON(w, "HandleGetRanking", entries)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, name string, body interface{}) {
	resBody, err := json.Marshal(body)
	if err != nil {
		h.log.Error().Err(err).Msg(name + " failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(resBody); err != nil {
		h.log.Error().Err(err).Msg(name + " failed")
	}
}

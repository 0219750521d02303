package publisher

import (
	"fmt"
	"strings"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1"
)

const (
	// Title heads every leaderboard.
	Title = "🏆 RANKING DE COLETA 🏆"
	// EmptyPlaceholder replaces the ranking lines while nobody has collected anything.
	EmptyPlaceholder = "Nenhum dado registrado ainda."
)

// Rank numbers totals from 1 in the order they are given.
func Rank(totals []modeldto.CollectionTotal) []modeldto.RankingEntry {
	entries := make([]modeldto.RankingEntry, 0, len(totals))
	for i, t := range totals {
		entries = append(entries, modeldto.RankingEntry{
			Rank:        i + 1,
			UserID:      t.UserID,
			DisplayName: t.DisplayName,
			BoxCount:    t.BoxCount,
		})
	}
	return entries
}

// Render builds the leaderboard for totals already sorted by the store.
func Render(totals []modeldto.CollectionTotal) publisher.Leaderboard {
	entries := Rank(totals)
	if len(entries) == 0 {
		return publisher.Leaderboard{Title: Title, Description: EmptyPlaceholder, Entries: entries}
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("**%d. %s** (ID: %s) — %d caixas", e.Rank, e.DisplayName, e.UserID, e.BoxCount))
	}
	return publisher.Leaderboard{Title: Title, Description: strings.Join(lines, "\n"), Entries: entries}
}

// Package publisher defines the contract of the periodic leaderboard publisher.
package publisher

import (
	"context"
	"strings"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
)

// Leaderboard is a rendered ranking ready to be posted.
type Leaderboard struct {
	Title       string
	Description string
	Entries     []modeldto.RankingEntry
}

// Text returns the plain-text form of the leaderboard: the title, a blank line and the description.
func (l Leaderboard) Text() string {
	var b strings.Builder
	b.WriteString(l.Title)
	b.WriteString("\n\n")
	b.WriteString(l.Description)
	return b.String()
}

// Channel is the place where the leaderboard is shown.
type Channel interface {
	// LastMessageID returns the most recent message of the channel, found is false on an empty channel.
	LastMessageID(ctx context.Context) (id string, found bool, err error)
	EditMessage(ctx context.Context, id string, leaderboard Leaderboard) error
	SendMessage(ctx context.Context, leaderboard Leaderboard) (string, error)
}

// Publisher renders the top collectors and keeps them posted in a channel.
type Publisher interface {
	Leaderboard(ctx context.Context) (Leaderboard, error)
	PublishOnce(ctx context.Context) error
	Run(ctx context.Context)
}

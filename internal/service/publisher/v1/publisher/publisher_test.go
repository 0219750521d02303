package publisher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1"
	publisherErrors "github.com/danilovkiri/dk-go-coletabot/internal/service/publisher/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/infile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel keeps posted messages in memory, the last one being the most recent.
type fakeChannel struct {
	mu         sync.Mutex
	messages   []string
	contents   map[string]publisher.Leaderboard
	edits      []string
	resolveErr error
	editErr    error
	sendErr    error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{contents: map[string]publisher.Leaderboard{}}
}

func (c *fakeChannel) LastMessageID(context.Context) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolveErr != nil {
		return "", false, c.resolveErr
	}
	if len(c.messages) == 0 {
		return "", false, nil
	}
	return c.messages[len(c.messages)-1], true, nil
}

func (c *fakeChannel) EditMessage(_ context.Context, id string, leaderboard publisher.Leaderboard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editErr != nil {
		return c.editErr
	}
	if _, ok := c.contents[id]; !ok {
		return fmt.Errorf("unknown message %s", id)
	}
	c.edits = append(c.edits, id)
	c.contents[id] = leaderboard
	return nil
}

func (c *fakeChannel) SendMessage(_ context.Context, leaderboard publisher.Leaderboard) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return "", c.sendErr
	}
	id := fmt.Sprintf("m%d", len(c.messages)+1)
	c.messages = append(c.messages, id)
	c.contents[id] = leaderboard
	return id, nil
}

func (c *fakeChannel) counts() (sent, edited int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages), len(c.edits)
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) TopCollections(context.Context, int) ([]modeldto.CollectionTotal, error) {
	return nil, &storageErrors.UnavailableError{Err: errors.New("connection refused")}
}

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	log := zerolog.Nop()
	st, err := infile.InitStorage(filepath.Join(t.TempDir(), "ranking.json"), &log)
	require.NoError(t, err)
	return st
}

func newTestPublisher(t *testing.T, st storage.Storage, channel publisher.Channel, cfg *config.PublisherConfig) *Publisher {
	t.Helper()
	log := zerolog.Nop()
	p, err := InitPublisher(st, channel, cfg, 0, &log)
	require.NoError(t, err)
	return p
}

func TestInitPublisher_NilArguments(t *testing.T) {
	log := zerolog.Nop()
	_, err := InitPublisher(nil, newFakeChannel(), nil, 0, &log)
	assert.Error(t, err)
	_, err = InitPublisher(newTestStorage(t), nil, nil, 0, &log)
	assert.Error(t, err)
}

func TestInitPublisher_Defaults(t *testing.T) {
	p := newTestPublisher(t, newTestStorage(t), newFakeChannel(), nil)
	assert.Equal(t, 10, p.size)
	assert.Equal(t, 5*time.Minute, p.interval)
	assert.False(t, p.pinned)
}

func TestRender_Empty(t *testing.T) {
	leaderboard := Render(nil)
	assert.Equal(t, Title, leaderboard.Title)
	assert.Equal(t, EmptyPlaceholder, leaderboard.Description)
	assert.Empty(t, leaderboard.Entries)
	assert.Equal(t, "🏆 RANKING DE COLETA 🏆\n\nNenhum dado registrado ainda.", leaderboard.Text())
}

func TestRender_Lines(t *testing.T) {
	leaderboard := Render([]modeldto.CollectionTotal{
		{UserID: "2", DisplayName: "Bia", BoxCount: 7},
		{UserID: "1", DisplayName: "Ana", BoxCount: 5},
	})
	assert.Equal(t, "**1. Bia** (ID: 2) — 7 caixas\n**2. Ana** (ID: 1) — 5 caixas", leaderboard.Description)
	require.Len(t, leaderboard.Entries, 2)
	assert.Equal(t, 1, leaderboard.Entries[0].Rank)
	assert.Equal(t, 2, leaderboard.Entries[1].Rank)
}

func TestPublishOnce_EmptyChannelSends(t *testing.T) {
	channel := newFakeChannel()
	p := newTestPublisher(t, newTestStorage(t), channel, nil)

	require.NoError(t, p.PublishOnce(context.Background()))

	sent, edited := channel.counts()
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, edited)
	assert.Equal(t, EmptyPlaceholder, channel.contents["m1"].Description)
}

func TestPublishOnce_RerunEditsWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	channel := newFakeChannel()
	p := newTestPublisher(t, st, channel, nil)

	require.NoError(t, p.PublishOnce(ctx))
	_, err := st.UpsertCollection(ctx, "1", "Ana", 5)
	require.NoError(t, err)
	require.NoError(t, p.PublishOnce(ctx))
	require.NoError(t, p.PublishOnce(ctx))

	sent, edited := channel.counts()
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, edited)
	assert.Equal(t, "**1. Ana** (ID: 1) — 5 caixas", channel.contents["m1"].Description)
}

func TestPublishOnce_TopSizeAndOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	for i := 1; i <= 12; i++ {
		_, err := st.UpsertCollection(ctx, fmt.Sprint(i), fmt.Sprintf("user%d", i), int64(i))
		require.NoError(t, err)
	}
	channel := newFakeChannel()
	p := newTestPublisher(t, st, channel, &config.PublisherConfig{Size: 10})

	require.NoError(t, p.PublishOnce(ctx))

	entries := channel.contents["m1"].Entries
	require.Len(t, entries, 10)
	assert.Equal(t, "12", entries[0].UserID)
	assert.Equal(t, "3", entries[9].UserID)
}

func TestPublishOnce_EditFailureFallsBackToSend(t *testing.T) {
	channel := newFakeChannel()
	p := newTestPublisher(t, newTestStorage(t), channel, nil)
	require.NoError(t, p.PublishOnce(context.Background()))

	channel.editErr = errors.New("cannot edit a message authored by another user")
	require.NoError(t, p.PublishOnce(context.Background()))

	sent, edited := channel.counts()
	assert.Equal(t, 2, sent)
	assert.Equal(t, 0, edited)
}

func TestPublishOnce_UnresolvableChannelSkips(t *testing.T) {
	channel := newFakeChannel()
	channel.resolveErr = errors.New("unknown channel")
	p := newTestPublisher(t, newTestStorage(t), channel, nil)

	err := p.PublishOnce(context.Background())

	var publishError *publisherErrors.PublishError
	require.ErrorAs(t, err, &publishError)
	assert.Equal(t, "resolve", publishError.Stage)
	sent, _ := channel.counts()
	assert.Equal(t, 0, sent)
}

func TestPublishOnce_StoreErrorSkips(t *testing.T) {
	channel := newFakeChannel()
	p := newTestPublisher(t, failingStorage{}, channel, nil)

	err := p.PublishOnce(context.Background())

	var publishError *publisherErrors.PublishError
	require.ErrorAs(t, err, &publishError)
	assert.Equal(t, "read", publishError.Stage)
	assert.True(t, storageErrors.IsStoreError(err))
	sent, _ := channel.counts()
	assert.Equal(t, 0, sent)
}

func TestPublishOnce_SendFailure(t *testing.T) {
	channel := newFakeChannel()
	channel.sendErr = errors.New("missing permissions")
	p := newTestPublisher(t, newTestStorage(t), channel, nil)

	var publishError *publisherErrors.PublishError
	require.ErrorAs(t, p.PublishOnce(context.Background()), &publishError)
	assert.Equal(t, "send", publishError.Stage)
}

func TestPublishOnce_PinnedMode(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	channel := newFakeChannel()
	p := newTestPublisher(t, st, channel, &config.PublisherConfig{PinMessage: true})

	require.NoError(t, p.PublishOnce(ctx))
	id, err := st.GetSetting(ctx, MessageIDSetting)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)

	// someone else posts in the channel; the pinned message is still the one edited
	_, err = channel.SendMessage(ctx, publisher.Leaderboard{Title: "chatter"})
	require.NoError(t, err)
	require.NoError(t, p.PublishOnce(ctx))

	sent, edited := channel.counts()
	assert.Equal(t, 2, sent)
	assert.Equal(t, 1, edited)
	assert.Equal(t, []string{"m1"}, channel.edits)
	assert.Equal(t, "chatter", channel.contents["m2"].Title)
}

func TestPublishOnce_PinnedModeForgetsDeletedMessage(t *testing.T) {
	ctx := context.Background()
	st := newTestStorage(t)
	require.NoError(t, st.SetSetting(ctx, MessageIDSetting, "gone"))
	channel := newFakeChannel()
	p := newTestPublisher(t, st, channel, &config.PublisherConfig{PinMessage: true})

	require.NoError(t, p.PublishOnce(ctx))

	id, err := st.GetSetting(ctx, MessageIDSetting)
	require.NoError(t, err)
	assert.Equal(t, "m1", id)
}

func TestRun_PublishesImmediatelyAndStops(t *testing.T) {
	channel := newFakeChannel()
	p := newTestPublisher(t, newTestStorage(t), channel, &config.PublisherConfig{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, edited := channel.counts()
		return edited >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
	sent, _ := channel.counts()
	assert.Equal(t, 1, sent)
}

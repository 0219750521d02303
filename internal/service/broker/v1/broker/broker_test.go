package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modelqueue"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	name     string
	mu       sync.Mutex
	failures int
	attempts int
	received []modelqueue.Notification
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Deliver(_ context.Context, notification modelqueue.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failures > 0 {
		s.failures--
		return errors.New("channel not found")
	}
	s.received = append(s.received, notification)
	return nil
}

func (s *fakeSink) snapshot() (int, []modelqueue.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, append([]modelqueue.Notification(nil), s.received...)
}

func newTestBroker(ctx context.Context, wg *sync.WaitGroup, queueSize, retries int, sinks ...Sink) *Broker {
	log := zerolog.Nop()
	b := InitBroker(ctx, &log, wg, 2, queueSize, retries, sinks...)
	b.retryDelay = time.Millisecond
	return b
}

func TestBroker_DeliversToEverySinkAndDrainsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	admin := &fakeSink{name: "admin"}
	webhook := &fakeSink{name: "webhook"}
	b := newTestBroker(ctx, wg, 16, 0, admin, webhook)

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, b.Notify(context.Background(), modelqueue.Notification{SubmissionID: id, Kind: modelqueue.KindCollection}))
	}
	b.ListenAndProcess()
	cancel()
	wg.Wait()

	for _, sink := range []*fakeSink{admin, webhook} {
		_, received := sink.snapshot()
		assert.Len(t, received, 3, sink.name)
	}
	assert.ErrorIs(t, b.Notify(context.Background(), modelqueue.Notification{}), ErrBrokerClosed)
}

func TestBroker_RetriesFailedDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	flaky := &fakeSink{name: "flaky", failures: 2}
	b := newTestBroker(ctx, wg, 4, 2, flaky)

	require.NoError(t, b.Notify(context.Background(), modelqueue.Notification{SubmissionID: "s1"}))
	b.ListenAndProcess()
	cancel()
	wg.Wait()

	attempts, received := flaky.snapshot()
	assert.Equal(t, 3, attempts)
	require.Len(t, received, 1)
	assert.Equal(t, 2, received[0].RetryCount)
}

func TestBroker_AbandonsAfterRetryLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	broken := &fakeSink{name: "broken", failures: 100}
	healthy := &fakeSink{name: "healthy"}
	b := newTestBroker(ctx, wg, 4, 1, broken, healthy)

	require.NoError(t, b.Notify(context.Background(), modelqueue.Notification{SubmissionID: "s1"}))
	b.ListenAndProcess()
	cancel()
	wg.Wait()

	attempts, received := broken.snapshot()
	assert.Equal(t, 2, attempts)
	assert.Empty(t, received)
	_, received = healthy.snapshot()
	assert.Len(t, received, 1)
}

func TestBroker_QueueFull(t *testing.T) {
	wg := &sync.WaitGroup{}
	b := newTestBroker(context.Background(), wg, 1, 0, &fakeSink{name: "admin"})

	require.NoError(t, b.Notify(context.Background(), modelqueue.Notification{SubmissionID: "s1"}))
	assert.ErrorIs(t, b.Notify(context.Background(), modelqueue.Notification{SubmissionID: "s2"}), ErrQueueFull)
}

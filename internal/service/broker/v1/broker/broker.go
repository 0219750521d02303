// Package broker delivers admin notifications to their sinks from a bounded queue,
// so that slow or failing sinks never hold up a ledger mutation.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modelqueue"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/ledger/v1"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull is returned by Notify when the queue cannot take another notification.
var ErrQueueFull = errors.New("notification queue is full")

// ErrBrokerClosed is returned by Notify once the broker stopped accepting notifications.
var ErrBrokerClosed = errors.New("notification broker is closed")

var _ ledger.Notifier = (*Broker)(nil)

// Sink is a destination for admin notifications.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, notification modelqueue.Notification) error
}

// Broker defines attributes of a struct available to its methods.
type Broker struct {
	ctx          context.Context
	log          *zerolog.Logger
	queue        chan modelqueue.Notification
	wg           *sync.WaitGroup
	sinks        []Sink
	workerNumber int
	retryNumber  int
	retryDelay   time.Duration

	mu     sync.RWMutex
	closed bool
}

// NotificationWorker drains the queue and delivers to every sink.
type NotificationWorker struct {
	ID     int
	broker *Broker
}

// InitBroker initializes a broker; it accepts notifications right away and starts
// delivering them once ListenAndProcess is called.
func InitBroker(ctx context.Context, log *zerolog.Logger, wg *sync.WaitGroup, workerNumber, queueSize, retryNumber int, sinks ...Sink) *Broker {
	if workerNumber <= 0 {
		workerNumber = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if retryNumber < 0 {
		retryNumber = 0
	}
	return &Broker{
		ctx:          ctx,
		log:          log,
		queue:        make(chan modelqueue.Notification, queueSize),
		wg:           wg,
		sinks:        sinks,
		workerNumber: workerNumber,
		retryNumber:  retryNumber,
		retryDelay:   time.Second,
	}
}

// Notify enqueues a notification without blocking.
func (b *Broker) Notify(_ context.Context, notification modelqueue.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}
	select {
	case b.queue <- notification:
		return nil
	default:
		return ErrQueueFull
	}
}

// ListenAndProcess starts the workers. When the broker context is done the queue is
// closed and the workers deliver whatever is left before the WaitGroup is released.
func (b *Broker) ListenAndProcess() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.log.Info().Int("workers", b.workerNumber).Int("sinks", len(b.sinks)).Msg("started listening to notification queue")
		g := &errgroup.Group{}
		for i := 0; i < b.workerNumber; i++ {
			w := &NotificationWorker{ID: i, broker: b}
			g.Go(w.processAsync)
		}
		<-b.ctx.Done()
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()
		b.log.Info().Msg("closed notification queue")
		if err := g.Wait(); err != nil {
			b.log.Error().Err(err).Msg("closing errgroup failed")
		}
		b.log.Info().Msg("stopped listening to notification queue")
	}()
}

func (w *NotificationWorker) processAsync() error {
	for notification := range w.broker.queue {
		for _, sink := range w.broker.sinks {
			w.deliver(sink, notification)
		}
	}
	return nil
}

// deliver tries a sink up to retryNumber+1 times. Delivery continues after the broker
// context is done so that queued notifications are flushed on shutdown.
func (w *NotificationWorker) deliver(sink Sink, notification modelqueue.Notification) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := sink.Deliver(ctx, notification)
		cancel()
		if err == nil {
			w.broker.log.Debug().Msg(fmt.Sprintf("WID %v, submission %v — delivered to %s", w.ID, notification.SubmissionID, sink.Name()))
			return
		}
		if notification.RetryCount >= w.broker.retryNumber {
			w.broker.log.Warn().Err(err).Msg(fmt.Sprintf("WID %v, submission %v — abandoned for %s after %d retries", w.ID, notification.SubmissionID, sink.Name(), notification.RetryCount))
			return
		}
		notification.RetryCount++
		w.broker.log.Warn().Err(err).Msg(fmt.Sprintf("WID %v, submission %v — delivery to %s failed, retrying", w.ID, notification.SubmissionID, sink.Name()))
		time.Sleep(w.broker.retryDelay)
	}
}

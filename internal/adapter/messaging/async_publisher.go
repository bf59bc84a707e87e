package messaging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/port"
)

var ErrPublisherClosed = errors.New("publisher closed")

const deliveryTimeout = 5 * time.Second

// AsyncPublisher queues events and hands them to the next publisher from a worker pool.
// Delivery failures are logged, not returned to the caller.
type AsyncPublisher struct {
	log   *slog.Logger
	next  port.EventPublisher
	queue chan domain.UnitsRefunded

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncPublisher(log *slog.Logger, next port.EventPublisher, queueSize int) *AsyncPublisher {
	return &AsyncPublisher{
		log:   log,
		next:  next,
		queue: make(chan domain.UnitsRefunded, queueSize),
	}
}

func (p *AsyncPublisher) Start(workerCount int) {
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.workerLoop(id)
		}(i)
	}
	p.log.Info("publish workers started", "count", workerCount)
}

// Publish blocks while the queue is full, until ctx is done.
func (p *AsyncPublisher) Publish(ctx context.Context, event domain.UnitsRefunded) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for the queue to drain.
func (p *AsyncPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *AsyncPublisher) workerLoop(id int) {
	for event := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)

		if err := p.next.Publish(ctx, event); err != nil {
			p.log.Error("event delivery failed", "worker", id, "order_number", event.OrderNumber, "amount", event.Amount, "err", err)
		}

		cancel()
	}
}

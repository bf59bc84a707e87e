package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/rl1809/order-refund/internal/core/domain"
)

type Subscriber func(ctx context.Context, event domain.UnitsRefunded) error

// SyncBus delivers events to every subscriber on the publishing goroutine.
type SyncBus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewSyncBus() *SyncBus {
	return &SyncBus{}
}

func (b *SyncBus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

// Publish calls all subscribers even if some fail and returns their errors joined.
func (b *SyncBus) Publish(ctx context.Context, event domain.UnitsRefunded) error {
	b.mu.RLock()
	subscribers := make([]Subscriber, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	var errs []error
	for _, s := range subscribers {
		if err := s(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

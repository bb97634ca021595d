package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository in memory.
type OutboxRepository struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

// NewOutboxRepository creates an empty OutboxRepository.
func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

// Create stages an outbox event on tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	stored := *event
	return mtx.stage(func() (func(), error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, &stored)
		return func() { r.remove(&stored) }, nil
	})
}

// GetUnpublished returns up to limit unpublished events in creation order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*domain.OutboxEvent, 0, limit)
	for _, e := range r.events {
		if len(result) == limit {
			break
		}
		if !e.Published {
			c := *e
			result = append(result, &c)
		}
	}
	return result, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.ID == id {
			t := publishedAt
			e.Published = true
			e.PublishedAt = &t
			return nil
		}
	}
	return nil
}

// DeletePublished removes events published before the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	for _, e := range r.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return nil
}

// Len returns the number of stored events.
func (r *OutboxRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *OutboxRepository) remove(event *domain.OutboxEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.events {
		if e == event {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return
		}
	}
}

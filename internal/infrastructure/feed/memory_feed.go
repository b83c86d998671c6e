package feed

import (
	"context"
	"slices"
	"sync"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"
)

// MemoryFeedRepository keeps each owner's feed in process memory
type MemoryFeedRepository struct {
	mu    sync.Mutex
	feeds map[string][]domain.Order
}

// NewMemoryFeedRepository creates an empty in-memory feed store
func NewMemoryFeedRepository() ports.OrderFeedRepository {
	return &MemoryFeedRepository{feeds: make(map[string][]domain.Order)}
}

func (r *MemoryFeedRepository) Get(ctx context.Context, ownerID string) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.feeds[ownerID]), nil
}

// Merge applies domain.MergeOrders under the lock so concurrent syncs never lose orders
func (r *MemoryFeedRepository) Merge(ctx context.Context, ownerID string, incoming []domain.Order) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	merged := domain.MergeOrders(r.feeds[ownerID], incoming)
	r.feeds[ownerID] = merged
	return slices.Clone(merged), nil
}

func (r *MemoryFeedRepository) Clear(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.feeds, ownerID)
	return nil
}

package ports

import (
	"context"

	"store-order-hub/internal/domain"
)

// StoreRepository defines the interface for store persistence
type StoreRepository interface {
	// Create inserts a new store and sets its ID.
	// Returns domain.ErrDuplicateStore when (platform, storeUrl, owner) already exists.
	Create(ctx context.Context, store *domain.Store) error

	// FindByOwner lists an owner's stores, newest first
	FindByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error)

	// FindByIDAndOwner returns nil, nil when the store is missing or owned by someone else
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Store, error)

	// UpdateHealth writes status, connectionError and lastSyncAt in a single update
	UpdateHealth(ctx context.Context, store *domain.Store) error
}

// OrderFeedRepository holds the accumulated order set per owner
type OrderFeedRepository interface {
	Get(ctx context.Context, ownerID string) ([]domain.Order, error)

	// Merge folds incoming orders into the owner's feed with domain.MergeOrders
	// and returns the resulting set
	Merge(ctx context.Context, ownerID string, incoming []domain.Order) ([]domain.Order, error)

	Clear(ctx context.Context, ownerID string) error
}

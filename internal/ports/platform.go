package ports

import (
	"context"

	"store-order-hub/internal/domain"
)

// PlatformAdapter is the capability set of one e-commerce platform.
// Implementations are stateless and never mutate the store they are given.
type PlatformAdapter interface {
	Platform() domain.Platform

	// FetchRecentOrders returns the most recent orders mapped to the canonical shape,
	// or a *domain.UpstreamError. No partial list is returned on failure.
	FetchRecentOrders(ctx context.Context, store *domain.Store) ([]domain.Order, error)

	// Probe performs a lightweight authenticated read to check credentials
	Probe(ctx context.Context, storeURL string, creds domain.Credentials) error
}

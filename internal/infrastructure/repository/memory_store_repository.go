package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"

	"github.com/google/uuid"
)

type storeIdentity struct {
	platform domain.Platform
	storeURL string
	ownerID  string
}

// MemoryStoreRepository implements StoreRepository in process memory.
// Used for local development and tests when no MongoDB is configured.
type MemoryStoreRepository struct {
	mu     sync.RWMutex
	stores map[string]*domain.Store
	unique map[storeIdentity]string
}

// NewMemoryStoreRepository creates an empty in-memory store repository
func NewMemoryStoreRepository() ports.StoreRepository {
	return &MemoryStoreRepository{
		stores: make(map[string]*domain.Store),
		unique: make(map[storeIdentity]string),
	}
}

func (r *MemoryStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := storeIdentity{platform: store.Platform, storeURL: store.StoreURL, ownerID: store.OwnerID}
	if _, exists := r.unique[key]; exists {
		return domain.ErrDuplicateStore
	}

	now := time.Now().UTC()
	if store.CreatedAt.IsZero() {
		store.CreatedAt = now
	}
	store.UpdatedAt = now
	store.ID = uuid.NewString()

	r.stores[store.ID] = cloneStore(store)
	r.unique[key] = store.ID
	return nil
}

func (r *MemoryStoreRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stores := make([]*domain.Store, 0)
	for _, s := range r.stores {
		if s.OwnerID == ownerID {
			stores = append(stores, cloneStore(s))
		}
	}
	slices.SortStableFunc(stores, func(a, b *domain.Store) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return stores, nil
}

func (r *MemoryStoreRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	return cloneStore(s), nil
}

func (r *MemoryStoreRepository) UpdateHealth(ctx context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[store.ID]
	if !ok || s.OwnerID != store.OwnerID {
		return domain.ErrNotFound
	}

	store.UpdatedAt = time.Now().UTC()
	s.Status = store.Status
	s.ConnectionError = store.ConnectionError
	s.UpdatedAt = store.UpdatedAt
	if store.LastSyncAt != nil {
		at := *store.LastSyncAt
		s.LastSyncAt = &at
	}
	return nil
}

// cloneStore copies a store so callers never share memory with the repository
func cloneStore(s *domain.Store) *domain.Store {
	c := *s
	if s.LastSyncAt != nil {
		at := *s.LastSyncAt
		c.LastSyncAt = &at
	}
	if s.Credentials.Shopify != nil {
		creds := *s.Credentials.Shopify
		c.Credentials.Shopify = &creds
	}
	if s.Credentials.WooCommerce != nil {
		creds := *s.Credentials.WooCommerce
		c.Credentials.WooCommerce = &creds
	}
	return &c
}

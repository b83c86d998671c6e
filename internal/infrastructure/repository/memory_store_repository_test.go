package repository

import (
	"context"
	"testing"
	"time"

	"store-order-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(owner, url string, platform domain.Platform) *domain.Store {
	s := &domain.Store{
		OwnerID:  owner,
		Name:     "Store " + url,
		Platform: platform,
		StoreURL: url,
		Status:   domain.StatusConnected,
	}
	if platform == domain.PlatformShopify {
		s.Credentials.Shopify = &domain.ShopifyCredentials{AccessToken: "sealed"}
	} else {
		s.Credentials.WooCommerce = &domain.WooCommerceCredentials{ConsumerKey: "ck", ConsumerSecret: "cs"}
	}
	return s
}

func TestMemoryStoreRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStoreRepository()

	s := newStore("user-1", "https://a.example.com", domain.PlatformWooCommerce)
	require.NoError(t, repo.Create(ctx, s))
	require.NotEmpty(t, s.ID)
	assert.False(t, s.CreatedAt.IsZero())

	found, err := repo.FindByIDAndOwner(ctx, s.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ck", found.Credentials.WooCommerce.ConsumerKey)

	foreign, err := repo.FindByIDAndOwner(ctx, s.ID, "user-2")
	require.NoError(t, err)
	assert.Nil(t, foreign)

	missing, err := repo.FindByIDAndOwner(ctx, "nope", "user-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStoreRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStoreRepository()

	require.NoError(t, repo.Create(ctx, newStore("user-1", "https://a.example.com", domain.PlatformShopify)))
	err := repo.Create(ctx, newStore("user-1", "https://a.example.com", domain.PlatformShopify))
	assert.ErrorIs(t, err, domain.ErrDuplicateStore)

	// same URL for another owner or platform is a different store
	assert.NoError(t, repo.Create(ctx, newStore("user-2", "https://a.example.com", domain.PlatformShopify)))
	assert.NoError(t, repo.Create(ctx, newStore("user-1", "https://a.example.com", domain.PlatformWooCommerce)))
}

func TestMemoryStoreRepository_FindByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStoreRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, url := range []string{"https://old.example.com", "https://new.example.com", "https://mid.example.com"} {
		s := newStore("user-1", url, domain.PlatformShopify)
		s.CreatedAt = base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
		require.NoError(t, repo.Create(ctx, s))
	}
	require.NoError(t, repo.Create(ctx, newStore("user-2", "https://other.example.com", domain.PlatformShopify)))

	stores, err := repo.FindByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, "https://new.example.com", stores[0].StoreURL)
	assert.Equal(t, "https://mid.example.com", stores[1].StoreURL)
	assert.Equal(t, "https://old.example.com", stores[2].StoreURL)

	none, err := repo.FindByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreRepository_UpdateHealth(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStoreRepository()
	s := newStore("user-1", "https://a.example.com", domain.PlatformShopify)
	require.NoError(t, repo.Create(ctx, s))

	synced := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	s.MarkConnected()
	s.LastSyncAt = &synced
	require.NoError(t, repo.UpdateHealth(ctx, s))

	s.MarkFailed("401 Unauthorized")
	s.LastSyncAt = nil
	require.NoError(t, repo.UpdateHealth(ctx, s))

	found, err := repo.FindByIDAndOwner(ctx, s.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, found.Status)
	assert.Equal(t, "401 Unauthorized", found.ConnectionError)
	require.NotNil(t, found.LastSyncAt)
	assert.True(t, synced.Equal(*found.LastSyncAt))

	foreign := *s
	foreign.OwnerID = "user-2"
	assert.ErrorIs(t, repo.UpdateHealth(ctx, &foreign), domain.ErrNotFound)
}

func TestMemoryStoreRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStoreRepository()
	s := newStore("user-1", "https://a.example.com", domain.PlatformShopify)
	require.NoError(t, repo.Create(ctx, s))

	s.Name = "mutated"
	s.Credentials.Shopify.AccessToken = "mutated"

	found, err := repo.FindByIDAndOwner(ctx, s.ID, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", found.Name)
	assert.Equal(t, "sealed", found.Credentials.Shopify.AccessToken)
}

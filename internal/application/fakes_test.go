package application

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/infrastructure/encryption"
	"store-order-hub/internal/infrastructure/feed"
	"store-order-hub/internal/infrastructure/repository"
	"store-order-hub/internal/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	platform domain.Platform

	mu        sync.Mutex
	orders    []domain.Order
	fetchErr  error
	probeErr  error
	seenCreds []domain.Credentials
}

func (f *fakeAdapter) Platform() domain.Platform { return f.platform }

func (f *fakeAdapter) FetchRecentOrders(ctx context.Context, store *domain.Store) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seenCreds = append(f.seenCreds, store.Credentials)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		o.StoreID = store.ID
		o.Store = store.Name
		o.Platform = f.platform
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeAdapter) Probe(ctx context.Context, storeURL string, creds domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seenCreds = append(f.seenCreds, creds)
	return f.probeErr
}

func (f *fakeAdapter) set(orders []domain.Order, fetchErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
	f.fetchErr = fetchErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.SyncEvent
}

func (p *recordingPublisher) Publish(event *domain.SyncEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type recordingMetrics struct {
	mu     sync.Mutex
	syncs  map[string]int
	probes map[string]int
}

func (m *recordingMetrics) ObserveSync(platform domain.Platform, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs[string(platform)+"/"+outcome]++
}

func (m *recordingMetrics) ObserveProbe(platform domain.Platform, status domain.ConnectionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes[string(platform)+"/"+string(status)]++
}

// failingFeed wraps a feed store and fails every Merge
type failingFeed struct {
	ports.OrderFeedRepository
}

func (failingFeed) Merge(ctx context.Context, ownerID string, incoming []domain.Order) ([]domain.Order, error) {
	return nil, &domain.PersistenceError{Op: "merge order feed", Err: context.DeadlineExceeded}
}

type harness struct {
	stores   ports.StoreRepository
	feed     ports.OrderFeedRepository
	shopify  *fakeAdapter
	woo      *fakeAdapter
	events   *recordingPublisher
	metrics  *recordingMetrics
	storeSvc *StoreService
	syncSvc  *SyncService
	feedSvc  *FeedService
}

func newHarness(t *testing.T, policies map[domain.Platform]ProbePolicy) *harness {
	return newHarnessWithFeed(t, policies, feed.NewMemoryFeedRepository())
}

func newHarnessWithFeed(t *testing.T, policies map[domain.Platform]ProbePolicy, feedRepo ports.OrderFeedRepository) *harness {
	t.Helper()
	enc, err := encryption.NewService(base64.StdEncoding.EncodeToString(make([]byte, 32)))
	require.NoError(t, err)

	h := &harness{
		stores:  repository.NewMemoryStoreRepository(),
		feed:    feedRepo,
		shopify: &fakeAdapter{platform: domain.PlatformShopify},
		woo:     &fakeAdapter{platform: domain.PlatformWooCommerce},
		events:  &recordingPublisher{},
		metrics: &recordingMetrics{syncs: map[string]int{}, probes: map[string]int{}},
	}
	logger := zerolog.Nop()
	registry := NewAdapterRegistry(h.shopify, h.woo)
	creds := NewCredentialsService(enc)
	validator := NewConnectionValidator(registry, policies, h.metrics, logger)

	h.storeSvc = NewStoreService(h.stores, validator, creds, logger)
	h.syncSvc = NewSyncService(h.stores, registry, creds, h.events, h.metrics, logger)
	h.feedSvc = NewFeedService(h.syncSvc, h.stores, h.feed, 2, logger)
	return h
}

func shopifyInput(url string) CreateStoreInput {
	return CreateStoreInput{
		Platform:    "shopify",
		Name:        "EU Store",
		StoreURL:    url,
		Credentials: CredentialsInput{AccessToken: "shpat_secret", APIVersion: "2024-01"},
	}
}

func wooInput(url string) CreateStoreInput {
	return CreateStoreInput{
		Platform:    "woocommerce",
		Name:        "US Store",
		StoreURL:    url,
		Credentials: CredentialsInput{ConsumerKey: "ck_secret", ConsumerSecret: "cs_secret"},
	}
}

// mustCreate registers a store whose probe succeeds
func (h *harness) mustCreate(t *testing.T, owner string, input CreateStoreInput) *domain.Store {
	t.Helper()
	res, err := h.storeSvc.CreateStore(context.Background(), owner, input)
	require.NoError(t, err)
	return res.Store
}

func testOrder(id uint64, createdAt, status string) domain.Order {
	return domain.Order{
		ID:          domain.NumericID(id),
		OrderNumber: "#" + domain.NumericID(id).String(),
		Customer:    domain.GuestCustomer,
		Total:       "10.00",
		Status:      status,
		CreatedAt:   createdAt,
	}
}

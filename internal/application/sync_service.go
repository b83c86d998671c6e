package application

import (
	"context"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"

	"github.com/rs/zerolog"
)

// SyncService fetches a store's recent orders and records its connection health
type SyncService struct {
	storeRepo   ports.StoreRepository
	registry    *AdapterRegistry
	credentials *CredentialsService
	publisher   ports.SyncPublisher
	metrics     ports.SyncMetrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSyncService creates a new sync service. publisher and metrics may be nil.
func NewSyncService(
	storeRepo ports.StoreRepository,
	registry *AdapterRegistry,
	credentials *CredentialsService,
	publisher ports.SyncPublisher,
	metrics ports.SyncMetrics,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		storeRepo:   storeRepo,
		registry:    registry,
		credentials: credentials,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// SyncStore syncs one of the owner's stores. Missing and foreign stores are
// both domain.ErrNotFound.
func (s *SyncService) SyncStore(ctx context.Context, ownerID, storeID string) (*domain.SyncResult, error) {
	store, err := s.storeRepo.FindByIDAndOwner(ctx, storeID, ownerID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	return s.sync(ctx, store)
}

// sync runs the fetch for an already resolved store. Success writes
// CONNECTED and lastSyncAt together; failure writes FAILED and leaves
// lastSyncAt alone. Concurrent syncs of one store are last-write-wins.
func (s *SyncService) sync(ctx context.Context, store *domain.Store) (*domain.SyncResult, error) {
	adapter, err := s.registry.Get(store.Platform)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("storeId", store.ID).
			Msg("No adapter for store platform")
		return nil, err
	}

	creds, err := s.credentials.Open(store.Credentials)
	if err != nil {
		return nil, err
	}
	view := *store
	view.Credentials = creds

	start := time.Now()
	orders, fetchErr := adapter.FetchRecentOrders(ctx, &view)
	elapsed := time.Since(start)

	if fetchErr != nil {
		s.recordFailure(ctx, store, fetchErr, elapsed)
		return nil, fetchErr
	}

	syncedAt := s.now().UTC()
	store.MarkConnected()
	store.LastSyncAt = &syncedAt
	if err := s.storeRepo.UpdateHealth(ctx, store); err != nil {
		s.logger.Error().
			Err(err).
			Str("storeId", store.ID).
			Msg("Failed to record successful sync")
		return nil, err
	}

	if orders == nil {
		orders = []domain.Order{}
	}
	s.observe(store.Platform, ports.SyncOutcomeSuccess, elapsed)
	s.publish(store, len(orders), "", syncedAt)

	s.logger.Info().
		Str("ownerId", store.OwnerID).
		Str("storeId", store.ID).
		Str("platform", string(store.Platform)).
		Int("orders", len(orders)).
		Dur("elapsed", elapsed).
		Msg("Store synced")

	return &domain.SyncResult{
		StoreID:     store.ID,
		StoreName:   store.Name,
		TotalOrders: len(orders),
		Orders:      orders,
		SyncedAt:    syncedAt,
	}, nil
}

// recordFailure marks the store FAILED. A failed write is only logged so the
// caller still sees the upstream error.
func (s *SyncService) recordFailure(ctx context.Context, store *domain.Store, fetchErr error, elapsed time.Duration) {
	s.logger.Warn().
		Err(fetchErr).
		Str("ownerId", store.OwnerID).
		Str("storeId", store.ID).
		Str("platform", string(store.Platform)).
		Msg("Store sync failed")

	lastSyncAt := store.LastSyncAt
	store.MarkFailed(fetchErr.Error())
	store.LastSyncAt = nil
	if err := s.storeRepo.UpdateHealth(context.WithoutCancel(ctx), store); err != nil {
		s.logger.Error().
			Err(err).
			Str("storeId", store.ID).
			Msg("Failed to record sync failure")
	}
	store.LastSyncAt = lastSyncAt

	s.observe(store.Platform, ports.SyncOutcomeFailure, elapsed)
	s.publish(store, 0, fetchErr.Error(), s.now().UTC())
}

func (s *SyncService) observe(platform domain.Platform, outcome string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveSync(platform, outcome, elapsed)
	}
}

func (s *SyncService) publish(store *domain.Store, total int, reason string, at time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(&domain.SyncEvent{
		OwnerID:     store.OwnerID,
		StoreID:     store.ID,
		StoreName:   store.Name,
		Platform:    store.Platform,
		Status:      store.Status,
		TotalOrders: total,
		Error:       reason,
		OccurredAt:  at,
	})
}

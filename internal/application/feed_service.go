package application

import (
	"context"
	"sync"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultSyncConcurrency bounds parallel upstream calls in SyncAll
const DefaultSyncConcurrency = 4

// SyncAndMergeResult is one store sync plus the state of the owner's feed
type SyncAndMergeResult struct {
	*domain.SyncResult
	FeedSize int      `json:"feedSize"`
	Warnings []string `json:"warnings,omitempty"`
}

// Outcomes of a store within SyncAll
const (
	OutcomeSynced  = "synced"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// StoreSyncOutcome reports one store within SyncAll
type StoreSyncOutcome struct {
	StoreID     string `json:"storeId"`
	StoreName   string `json:"storeName"`
	Outcome     string `json:"outcome"`
	TotalOrders int    `json:"totalOrders"`
	Error       string `json:"error,omitempty"`
}

// SyncAllResult is returned by SyncAll
type SyncAllResult struct {
	Stores   []StoreSyncOutcome `json:"stores"`
	Orders   []domain.Order     `json:"orders"`
	FeedSize int                `json:"feedSize"`
	Warnings []string           `json:"warnings,omitempty"`
}

// FeedService keeps each owner's accumulated order feed
type FeedService struct {
	syncService *SyncService
	storeRepo   ports.StoreRepository
	feedRepo    ports.OrderFeedRepository
	concurrency int
	logger      zerolog.Logger
}

// NewFeedService creates a new feed service
func NewFeedService(
	syncService *SyncService,
	storeRepo ports.StoreRepository,
	feedRepo ports.OrderFeedRepository,
	concurrency int,
	logger zerolog.Logger,
) *FeedService {
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	return &FeedService{
		syncService: syncService,
		storeRepo:   storeRepo,
		feedRepo:    feedRepo,
		concurrency: concurrency,
		logger:      logger,
	}
}

// SyncAndMerge syncs one store and folds its orders into the owner's feed.
// A feed failure after a successful sync is reported as a warning.
func (s *FeedService) SyncAndMerge(ctx context.Context, ownerID, storeID string) (*SyncAndMergeResult, error) {
	result, err := s.syncService.SyncStore(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	out := &SyncAndMergeResult{SyncResult: result}
	merged, err := s.feedRepo.Merge(ctx, ownerID, result.Orders)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("ownerId", ownerID).
			Str("storeId", storeID).
			Msg("Failed to merge orders into feed")
		out.Warnings = append(out.Warnings, "order feed not updated: "+err.Error())
		return out, nil
	}

	out.FeedSize = len(merged)
	return out, nil
}

// SyncAll syncs every CONNECTED store of the owner concurrently. FAILED
// stores are skipped until re-tested or synced individually.
func (s *FeedService) SyncAll(ctx context.Context, ownerID string) (*SyncAllResult, error) {
	stores, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := &SyncAllResult{Stores: make([]StoreSyncOutcome, len(stores))}
	var mu sync.Mutex
	warn := func(msg string) {
		mu.Lock()
		result.Warnings = append(result.Warnings, msg)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, store := range stores {
		outcome := &result.Stores[i]
		outcome.StoreID = store.ID
		outcome.StoreName = store.Name

		if store.Status != domain.StatusConnected {
			outcome.Outcome = OutcomeSkipped
			outcome.Error = store.ConnectionError
			continue
		}

		g.Go(func() error {
			synced, err := s.syncService.sync(ctx, store)
			if err != nil {
				outcome.Outcome = OutcomeFailed
				outcome.Error = err.Error()
				return nil
			}
			outcome.Outcome = OutcomeSynced
			outcome.TotalOrders = synced.TotalOrders

			if _, err := s.feedRepo.Merge(ctx, ownerID, synced.Orders); err != nil {
				s.logger.Error().
					Err(err).
					Str("ownerId", ownerID).
					Str("storeId", store.ID).
					Msg("Failed to merge orders into feed")
				warn(store.Name + ": order feed not updated: " + err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()

	orders, err := s.feedRepo.Get(ctx, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("ownerId", ownerID).Msg("Failed to read order feed")
		result.Warnings = append(result.Warnings, "order feed unavailable: "+err.Error())
		orders = nil
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	result.Orders = orders
	result.FeedSize = len(orders)

	s.logger.Info().
		Str("ownerId", ownerID).
		Int("stores", len(stores)).
		Int("feedSize", result.FeedSize).
		Msg("Synced all stores")
	return result, nil
}

// Feed returns the owner's accumulated orders, newest first
func (s *FeedService) Feed(ctx context.Context, ownerID string) ([]domain.Order, error) {
	orders, err := s.feedRepo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// ClearFeed drops the owner's accumulated orders
func (s *FeedService) ClearFeed(ctx context.Context, ownerID string) error {
	return s.feedRepo.Clear(ctx, ownerID)
}

// Stats summarizes the owner's stores and feed as of now
func (s *FeedService) Stats(ctx context.Context, ownerID string, now time.Time) (*domain.FeedStats, error) {
	stores, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.feedRepo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &domain.FeedStats{
		TotalStores:  len(stores),
		TotalOrders:  len(orders),
		OrdersToday:  len(domain.OrdersToday(orders, now)),
		RevenueToday: domain.RevenueToday(orders, now),
	}
	for _, store := range stores {
		if store.Status == domain.StatusConnected {
			stats.ConnectedStores++
		}
		if store.LastSyncAt != nil && (stats.LastSyncAt == nil || store.LastSyncAt.After(*stats.LastSyncAt)) {
			at := *store.LastSyncAt
			stats.LastSyncAt = &at
		}
	}
	return stats, nil
}

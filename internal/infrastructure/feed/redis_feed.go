package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"store-order-hub/internal/domain"
	"store-order-hub/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// DefaultTTL bounds how long an idle owner's feed is kept
	DefaultTTL      = 24 * time.Hour
	keyPrefix       = "order_feed:"
	maxMergeRetries = 8
)

// RedisFeedRepository stores each owner's feed as one JSON value under order_feed:{owner}
type RedisFeedRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisFeedRepository creates a Redis backed feed store on an existing client
func NewRedisFeedRepository(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ports.OrderFeedRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisFeedRepository{client: client, ttl: ttl, logger: logger}
}

func feedKey(ownerID string) string {
	return keyPrefix + ownerID
}

func (r *RedisFeedRepository) Get(ctx context.Context, ownerID string) ([]domain.Order, error) {
	orders, err := read(ctx, r.client, feedKey(ownerID))
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read order feed", Err: err}
	}
	return orders, nil
}

// Merge runs read-merge-write inside WATCH/MULTI and retries when another
// writer touched the key in between.
func (r *RedisFeedRepository) Merge(ctx context.Context, ownerID string, incoming []domain.Order) ([]domain.Order, error) {
	key := feedKey(ownerID)
	var merged []domain.Order

	txf := func(tx *redis.Tx) error {
		existing, err := read(ctx, tx, key)
		if err != nil {
			return err
		}
		merged = domain.MergeOrders(existing, incoming)
		payload, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode order feed: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxMergeRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return merged, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, &domain.PersistenceError{Op: "merge order feed", Err: err}
		}
		r.logger.Debug().
			Str("ownerId", ownerID).
			Int("attempt", attempt).
			Msg("Order feed changed during merge, retrying")
	}

	return nil, &domain.PersistenceError{
		Op:  "merge order feed",
		Err: fmt.Errorf("gave up after %d conflicting writes", maxMergeRetries),
	}
}

func (r *RedisFeedRepository) Clear(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, feedKey(ownerID)).Err(); err != nil {
		return &domain.PersistenceError{Op: "clear order feed", Err: err}
	}
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func read(ctx context.Context, c getter, key string) ([]domain.Order, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, err
	}
	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode order feed: %w", err)
	}
	return orders, nil
}

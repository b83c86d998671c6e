package pubsub

import (
	"context"
	"testing"
	"time"

	"store-order-hub/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncPubSub_FiltersByOwnerAndStore(t *testing.T) {
	ps := NewSyncPubSub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := ps.Subscribe(ctx, &SyncEventFilter{OwnerID: "user-1"})
	oneStore := ps.Subscribe(ctx, &SyncEventFilter{OwnerID: "user-1", StoreID: "s2"})

	ps.Publish(&domain.SyncEvent{OwnerID: "user-2", StoreID: "s1"})
	ps.Publish(&domain.SyncEvent{OwnerID: "user-1", StoreID: "s1", Status: domain.StatusConnected})
	ps.Publish(&domain.SyncEvent{OwnerID: "user-1", StoreID: "s2", Status: domain.StatusFailed})

	require.Len(t, mine.Events, 2)
	assert.Equal(t, "s1", (<-mine.Events).StoreID)
	assert.Equal(t, "s2", (<-mine.Events).StoreID)

	require.Len(t, oneStore.Events, 1)
	assert.Equal(t, domain.StatusFailed, (<-oneStore.Events).Status)
}

func TestSyncPubSub_UnsubscribeOnContextDone(t *testing.T) {
	ps := NewSyncPubSub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch := ps.Subscribe(ctx, nil)
	assert.Equal(t, 1, ps.Subscribers())

	cancel()
	select {
	case <-ch.Done:
	case <-time.After(time.Second):
		t.Fatal("subscription was not removed")
	}
	assert.Equal(t, 0, ps.Subscribers())

	// publishing after removal must not panic
	ps.Publish(&domain.SyncEvent{OwnerID: "user-1"})
}

func TestSyncPubSub_SlowSubscriberDoesNotBlock(t *testing.T) {
	ps := NewSyncPubSub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := ps.Subscribe(ctx, nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(ch.Events)+5; i++ {
			ps.Publish(&domain.SyncEvent{OwnerID: "user-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch.Events, cap(ch.Events))
}

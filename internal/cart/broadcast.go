package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmarquezg/storefront-backend/pkg/redis"
)

// ChangeEvent is the payload published when a cart mutates.
type ChangeEvent struct {
	CartID    uuid.UUID `json:"cart_id"`
	StoreID   uuid.UUID `json:"store_id"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// RedisBroadcaster publishes cart changes on a per-session channel.
type RedisBroadcaster struct {
	client *redis.Client
}

// NewRedisBroadcaster builds a pub/sub backed broadcaster.
func NewRedisBroadcaster(client *redis.Client) (*RedisBroadcaster, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisBroadcaster{client: client}, nil
}

// CartChanged publishes the change event. Delivery is best-effort; a
// dropped message only delays badge refresh in other tabs.
func (b *RedisBroadcaster) CartChanged(ctx context.Context, sessionID string, storeID, cartID uuid.UUID) error {
	payload, err := json.Marshal(ChangeEvent{
		CartID:    cartID,
		StoreID:   storeID,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding cart event: %w", err)
	}
	channel := b.client.CartChannel(sessionID, storeID.String())
	return b.client.Publish(ctx, channel, string(payload))
}

// MemoryBroadcaster collects events in memory. Used in tests and as a
// fallback when redis is unavailable.
type MemoryBroadcaster struct {
	mu     sync.Mutex
	events []ChangeEvent
}

// NewMemoryBroadcaster builds an in-process broadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

// CartChanged records the event.
func (b *MemoryBroadcaster) CartChanged(_ context.Context, sessionID string, storeID, cartID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ChangeEvent{
		CartID:    cartID,
		StoreID:   storeID,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})
	return nil
}

// Events returns a copy of everything recorded so far.
func (b *MemoryBroadcaster) Events() []ChangeEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ChangeEvent, len(b.events))
	copy(out, b.events)
	return out
}

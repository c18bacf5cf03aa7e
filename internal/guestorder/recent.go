package guestorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oyhutmarket/storefront/internal/storage"
)

const (
	recentOrdersKey    = "guestOrders"
	DefaultRecentLimit = 10
)

// RecentOrders is the list of guest orders placed from this device, oldest
// first, capped at a fixed number of entries.
type RecentOrders struct {
	mu    sync.Mutex
	store storage.Store
	limit int
	now   func() time.Time
}

func NewRecentOrders(store storage.Store, limit int) *RecentOrders {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentOrders{store: store, limit: limit, now: time.Now}
}

// Save appends info and evicts the oldest entries beyond the limit.
func (r *RecentOrders) Save(ctx context.Context, info TrackingInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := r.list(ctx)
	orders = append(orders, SavedOrder{
		OrderNumber: info.OrderNumber,
		GuestToken:  info.GuestToken,
		Email:       info.Email,
		CreatedAt:   r.now().UTC(),
	})
	if len(orders) > r.limit {
		orders = orders[len(orders)-r.limit:]
	}

	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("recent orders: failed to encode: %w", err)
	}
	if err := r.store.Put(ctx, recentOrdersKey, raw); err != nil {
		return fmt.Errorf("recent orders: failed to save: %w", err)
	}
	return nil
}

// List returns the saved orders. Unreadable state yields an empty list.
func (r *RecentOrders) List(ctx context.Context) []SavedOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(ctx)
}

func (r *RecentOrders) list(ctx context.Context) []SavedOrder {
	raw, err := r.store.Get(ctx, recentOrdersKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("recent orders: failed to read saved orders")
		}
		return []SavedOrder{}
	}

	var orders []SavedOrder
	if err := json.Unmarshal(raw, &orders); err != nil {
		log.Warn().Err(err).Msg("recent orders: discarding unreadable saved orders")
		return []SavedOrder{}
	}
	if orders == nil {
		orders = []SavedOrder{}
	}
	return orders
}

func (r *RecentOrders) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(ctx, recentOrdersKey); err != nil {
		return fmt.Errorf("recent orders: failed to clear: %w", err)
	}
	return nil
}

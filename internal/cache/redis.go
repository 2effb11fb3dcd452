package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache Keys
const (
	MenuKeyFmt      = "menu:%s"      // full menu snapshot per restaurant
	InventoryKeyFmt = "inventory:%s" // stock list per restaurant
)

// MenuTTL is deliberately short: terminals poll the menu constantly but
// tolerate a few minutes of staleness after an out-of-band edit.
const MenuTTL = 5 * time.Minute

// InventoryTTL is shorter still: stock moves with every order.
const InventoryTTL = time.Minute

var client *redis.Client

// Init initializes the Redis connection. A failed connection leaves the
// cache disabled; every lookup degrades to a miss.
func Init(addr, password string) error {
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		client = nil
		return err
	}
	return nil
}

// MenuKey returns the cache key for a restaurant's menu snapshot.
func MenuKey(restaurantID uuid.UUID) string {
	return fmt.Sprintf(MenuKeyFmt, restaurantID)
}

// InventoryKey returns the cache key for a restaurant's stock list.
func InventoryKey(restaurantID uuid.UUID) string {
	return fmt.Sprintf(InventoryKeyFmt, restaurantID)
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidateMenu clears a restaurant's menu snapshot.
// Called when: menu item or category writes, bulk import.
func InvalidateMenu(ctx context.Context, restaurantID uuid.UUID) {
	InvalidateKeys(ctx, MenuKey(restaurantID))
}

// InvalidateInventory clears a restaurant's stock list.
// Called when: adjustments, order deductions, link resolution.
func InvalidateInventory(ctx context.Context, restaurantID uuid.UUID) {
	InvalidateKeys(ctx, InventoryKey(restaurantID))
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

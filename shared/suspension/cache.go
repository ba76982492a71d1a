package suspension

import (
	"context"
	"sync"
	"time"

	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/logger"
)

// CacheStorage defines the minimal database operations needed for cache updates.
// Admin operations (deactivate/reactivate) belong in backend-specific storage.
type CacheStorage interface {
	GetRecentlyDeactivatedUsers(since time.Time) ([]domain.UserId, error)
}

// Cache tracks recently deactivated accounts so access tokens issued before
// deactivation stop working without waiting for expiry.
type Cache struct {
	storage        CacheStorage
	cache          map[domain.UserId]bool
	mu             sync.RWMutex
	jwtTTL         time.Duration
	lastUpdateTime time.Time
}

func NewCache(storage CacheStorage, jwtTTL time.Duration) *Cache {
	return &Cache{
		storage: storage,
		cache:   make(map[domain.UserId]bool),
		jwtTTL:  jwtTTL,
	}
}

// Update fetches recently deactivated users from the database and updates the
// cache. It queries for users deactivated within (JWT TTL + 10% buffer) to
// handle clock skew.
func (c *Cache) Update() error {
	bufferMultiplier := 1.1
	since := time.Now().Add(-time.Duration(float64(c.jwtTTL) * bufferMultiplier))

	userIds, err := c.storage.GetRecentlyDeactivatedUsers(since)
	if err != nil {
		return err
	}

	newCache := make(map[domain.UserId]bool, len(userIds))
	for _, userId := range userIds {
		newCache[userId] = true
	}

	// Atomically replace the cache
	c.mu.Lock()
	c.cache = newCache
	c.lastUpdateTime = time.Now()
	c.mu.Unlock()

	logger.Log.Info("suspension cache updated",
		"component", "suspension_cache",
		"entries", len(newCache),
		"since", since.Format(time.RFC3339))
	return nil
}

func (c *Cache) IsSuspended(userId domain.UserId) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[userId]
}

// StartBackgroundUpdate starts a background goroutine that periodically
// refreshes the cache.
func (c *Cache) StartBackgroundUpdate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started suspension cache background updates",
		"component", "suspension_cache",
		"interval", interval,
		"jwt_ttl", c.jwtTTL)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.Update(); err != nil {
					logger.Log.Error("suspension cache update failed",
						"component", "suspension_cache",
						"error", err)
				}
			case <-ctx.Done():
				logger.Log.Info("suspension cache shutting down gracefully",
					"component", "suspension_cache")
				return
			}
		}
	}()
}

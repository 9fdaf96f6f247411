package verification

import (
	"time"

	"github.com/dgraph-io/ristretto"
	log "github.com/sirupsen/logrus"
)

const verifiedCacheTTL = 10 * time.Minute

// Cache memoizes verified payloads per (kind, value) across sessions and
// attempts, so re-verifying a value the provider already confirmed does not
// cost another provider call. It is best effort: the deterministic status
// lives on the session state, the cache only short-circuits provider traffic.
type Cache struct {
	cache *ristretto.Cache
}

func NewCache() *Cache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		log.Errorf("Failed to create verification cache: %v", err)
		return &Cache{}
	}

	return &Cache{cache: cache}
}

func cacheKey(kind Kind, value string) string {
	return string(kind) + ":" + value
}

func (c *Cache) Get(kind Kind, value string) (Payload, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}

	entry, found := c.cache.Get(cacheKey(kind, value))
	if !found {
		return nil, false
	}

	payload, ok := entry.(Payload)
	if !ok {
		return nil, false
	}
	return payload, true
}

func (c *Cache) Set(kind Kind, value string, payload Payload) {
	if c == nil || c.cache == nil {
		return
	}

	c.cache.SetWithTTL(cacheKey(kind, value), payload, 1, verifiedCacheTTL)
	c.cache.Wait()
}

func (c *Cache) Drop(kind Kind, value string) {
	if c == nil || c.cache == nil {
		return
	}

	c.cache.Del(cacheKey(kind, value))
}

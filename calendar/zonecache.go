package calendar

import (
	"context"
	"sync"
	"time"
)

// DefaultZoneTTL is how long a loaded time zone stays fresh.
const DefaultZoneTTL = 60 * time.Second

// ZoneLoader fetches the platform time zone, usually from settings storage.
type ZoneLoader func(ctx context.Context) (*time.Location, error)

// ZoneCache is a read-through cache of the platform time zone with a fixed
// freshness bound. The calling layer owns it and passes the resolved
// *time.Location to the engine.
type ZoneCache struct {
	Load ZoneLoader
	TTL  time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	mu        sync.Mutex
	loc       *time.Location
	fetchedAt time.Time
}

func NewZoneCache(load ZoneLoader, ttl time.Duration) *ZoneCache {
	if ttl <= 0 {
		ttl = DefaultZoneTTL
	}
	return &ZoneCache{Load: load, TTL: ttl}
}

// Get returns the cached zone, reloading it once the TTL has passed. A failed
// reload leaves the previous value in place and returns the error.
func (c *ZoneCache) Get(ctx context.Context) (*time.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.loc != nil && now.Sub(c.fetchedAt) < c.TTL {
		return c.loc, nil
	}
	loc, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.loc = loc
	c.fetchedAt = now
	return loc, nil
}

// Invalidate forces the next Get to reload.
func (c *ZoneCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loc = nil
	c.fetchedAt = time.Time{}
}

func (c *ZoneCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// FixedZone returns a loader that always resolves name via time.LoadLocation.
func FixedZone(name string) ZoneLoader {
	return func(context.Context) (*time.Location, error) {
		return time.LoadLocation(name)
	}
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/pricing"
)

// MemoryControlCache is an in-process pricing control cache with TTL
// expiry. State is per instance: in a multi-node deployment use the Redis
// cache instead, or controls edited on one node stay visible on another
// until the TTL lapses.
type MemoryControlCache struct {
	mu      sync.RWMutex
	entries map[controlKey]memoryEntry
	ttl     time.Duration
}

type controlKey struct {
	productID uuid.UUID
	branchID  uuid.UUID
}

type memoryEntry struct {
	control   *pricing.PricingControl
	expiresAt time.Time
}

// NewMemoryControlCache creates a new MemoryControlCache
func NewMemoryControlCache(ttl time.Duration) *MemoryControlCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryControlCache{
		entries: make(map[controlKey]memoryEntry),
		ttl:     ttl,
	}
}

var _ pos.ControlCache = (*MemoryControlCache)(nil)

// Get returns the cached resolution for a product at a branch
func (c *MemoryControlCache) Get(_ context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, bool) {
	c.mu.RLock()
	entry, ok := c.entries[controlKey{productID: productID, branchID: branchID}]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.control, true
}

// Set caches the resolved control. A nil control is cached too: "no control
// exists" is a valid resolution and skipping it would re-query every sale.
func (c *MemoryControlCache) Set(_ context.Context, productID, branchID uuid.UUID, control *pricing.PricingControl) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[controlKey{productID: productID, branchID: branchID}] = memoryEntry{
		control:   control,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops every cached resolution for a product. Branch and global
// entries both go: a global control edit changes the resolution at branches
// that have no specific control.
func (c *MemoryControlCache) Invalidate(_ context.Context, productID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.productID == productID {
			delete(c.entries, key)
		}
	}
}

package cache

import (
	"fmt"

	"github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewControlCache builds the pricing control cache named by the policy
// configuration. "none" returns nil, which the pricing service treats as
// cache-disabled.
func NewControlCache(cfg *config.Config, logger *zap.Logger) (pos.ControlCache, error) {
	switch cfg.Policy.PricingCache {
	case "none":
		return nil, nil
	case "memory":
		return NewMemoryControlCache(cfg.Policy.PricingCacheTTL), nil
	case "redis":
		cache, err := NewRedisControlCache(cfg.Redis,
			WithControlTTL(cfg.Policy.PricingCacheTTL),
			WithControlCacheLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis control cache: %w", err)
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown pricing cache backend %q", cfg.Policy.PricingCache)
	}
}

package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookster/catalog-server/internal/config"
	"github.com/bookster/catalog-server/internal/logger"
	"github.com/bookster/catalog-server/internal/ratelimit"
	"github.com/bookster/catalog-server/internal/service"
)

// ProvideCatalogService provides the catalog service over the store, the
// index and, when enabled, Open Library.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	olHandle := do.MustInvoke[*OpenLibraryClientHandle](i)

	// A nil *Client must not become a non-nil interface.
	var external service.ExternalSource
	if olHandle.Client != nil {
		external = olHandle.Client
	}

	return service.NewCatalogService(
		storeHandle.Store,
		indexHandle.SearchIndex,
		external,
		service.Options{
			PromoteAllExternal: cfg.Search.PromoteAllExternal,
			ReindexBatchSize:   cfg.Search.ReindexBatchSize,
		},
		log.Component("catalog"),
	), nil
}

// SearchLimiterHandle wraps the inbound per-IP search limiter.
type SearchLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *SearchLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideSearchLimiter provides the per-IP search rate limiter. A zero
// rate disables it.
func ProvideSearchLimiter(i do.Injector) (*SearchLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if cfg.Search.RateLimitRPS <= 0 {
		return &SearchLimiterHandle{}, nil
	}
	return &SearchLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Search.RateLimitRPS, cfg.Search.RateLimitBurst),
	}, nil
}

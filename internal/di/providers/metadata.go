package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookster/catalog-server/internal/config"
	"github.com/bookster/catalog-server/internal/logger"
	"github.com/bookster/catalog-server/internal/metadata/openlibrary"
)

// OpenLibraryCacheHandle wraps the badger response cache. Cache is nil
// when caching is disabled.
type OpenLibraryCacheHandle struct {
	*openlibrary.BadgerCache
}

// Shutdown implements do.Shutdownable.
func (h *OpenLibraryCacheHandle) Shutdown() error {
	if h.BadgerCache == nil {
		return nil
	}
	return h.Close()
}

// ProvideOpenLibraryCache opens the on-disk response cache.
func ProvideOpenLibraryCache(i do.Injector) (*OpenLibraryCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.OpenLibrary.Enabled || !cfg.OpenLibrary.CacheEnabled {
		return &OpenLibraryCacheHandle{}, nil
	}

	cache, err := openlibrary.OpenBadgerCache(cfg.Data.CachePath)
	if err != nil {
		return nil, err
	}

	log.Info("Open Library cache opened", "path", cfg.Data.CachePath, "ttl", cfg.OpenLibrary.CacheTTL)

	return &OpenLibraryCacheHandle{BadgerCache: cache}, nil
}

// OpenLibraryClientHandle wraps the Open Library client with shutdown
// capability. Client is nil when the external tier is disabled.
type OpenLibraryClientHandle struct {
	*openlibrary.Client
}

// Shutdown implements do.Shutdownable.
func (h *OpenLibraryClientHandle) Shutdown() error {
	if h.Client != nil {
		h.Client.Close()
	}
	return nil
}

// ProvideOpenLibraryClient provides the Open Library search client.
func ProvideOpenLibraryClient(i do.Injector) (*OpenLibraryClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*OpenLibraryCacheHandle](i)

	if !cfg.OpenLibrary.Enabled {
		log.Info("Open Library lookups disabled by configuration")
		return &OpenLibraryClientHandle{}, nil
	}

	olCfg := openlibrary.Config{
		BaseURL:           cfg.OpenLibrary.BaseURL,
		UserAgent:         cfg.OpenLibrary.UserAgent,
		Timeout:           cfg.OpenLibrary.Timeout,
		RequestsPerSecond: cfg.OpenLibrary.RequestsPerSecond,
		Burst:             cfg.OpenLibrary.Burst,
		CacheTTL:          cfg.OpenLibrary.CacheTTL,
		Logger:            log.Component("openlibrary"),
	}
	if cacheHandle.BadgerCache != nil {
		olCfg.Cache = cacheHandle.BadgerCache
	}

	client, err := openlibrary.NewClient(olCfg)
	if err != nil {
		return nil, err
	}

	log.Info("Open Library client initialized",
		"base_url", cfg.OpenLibrary.BaseURL,
		"rps", cfg.OpenLibrary.RequestsPerSecond,
		"cached", olCfg.Cache != nil,
	)

	return &OpenLibraryClientHandle{Client: client}, nil
}

// Package di wires the catalog server's components with samber/do.
package di

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/bookster/catalog-server/internal/auth"
	"github.com/bookster/catalog-server/internal/config"
	"github.com/bookster/catalog-server/internal/di/providers"
	"github.com/bookster/catalog-server/internal/logger"
	"github.com/bookster/catalog-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	registerServices(injector)
	return injector
}

// NewContainerWithConfig creates a container around an already loaded
// config and logger. bookctl uses it so its own flags pick the config.
func NewContainerWithConfig(cfg *config.Config, log *logger.Logger) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	registerServices(injector)
	return injector
}

func registerServices(injector do.Injector) {
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// External catalog
	do.Provide(injector, providers.ProvideOpenLibraryCache)
	do.Provide(injector, providers.ProvideOpenLibraryClient)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideSearchLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes the core services, prepares the search index and
// starts the HTTP server.
func Bootstrap(injector do.Injector) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return fmt.Errorf("create token service: %w", err)
	}
	catalog, err := do.Invoke[*service.CatalogService](injector)
	if err != nil {
		return fmt.Errorf("create catalog service: %w", err)
	}

	// A settings failure stays pending in the index; searches still work.
	if err := catalog.EnsureIndexSettings(context.Background()); err != nil {
		log.Warn("Search index settings not applied", "error", err)
	}
	providers.TriggerSearchReindexIfNeeded(injector)

	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	return nil
}

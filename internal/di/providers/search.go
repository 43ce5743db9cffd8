package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookster/catalog-server/internal/config"
	"github.com/bookster/catalog-server/internal/logger"
	"github.com/bookster/catalog-server/internal/search"
	"github.com/bookster/catalog-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.IndexPath,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when
// it is empty but the store holds books. Disabled by
// search.reindex_on_startup=false.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalog := do.MustInvoke[*service.CatalogService](i)

	if !cfg.Search.ReindexOnStartup {
		return
	}

	go func() {
		ran, err := catalog.ReindexIfEmpty(context.Background())
		switch {
		case err != nil:
			log.Error("Initial search reindex failed", "error", err)
		case ran:
			count, _ := catalog.IndexedDocuments()
			log.Info("Initial search reindex completed", "documents", count)
		}
	}()
}

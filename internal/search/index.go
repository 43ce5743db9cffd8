package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	domainerrors "github.com/bookster/catalog-server/internal/errors"
)

// SearchIndex wraps a bleve index of book documents.
//
// All public methods are safe for concurrent use. The mutex keeps searches
// and writes off the index while Rebuild swaps it.
type SearchIndex struct {
	index  bleve.Index
	path   string
	memory bool
	logger *slog.Logger
	mu     sync.RWMutex

	settings Settings
	// pending holds settings that could not be persisted yet; the next
	// successful document write applies them.
	pending *Settings
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	InMemory bool         // Keep the index in memory only (tests, CLI dry runs)
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is incremented whenever the index mapping changes.
// A mismatch with the on-disk version file triggers a rebuild on startup.
const mappingVersion = "catalog-1"

// NewSearchIndex creates or opens the book index.
// An existing index with a missing or outdated mapping version, or one that
// fails to open, is removed and recreated empty.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &SearchIndex{logger: logger, memory: opts.InMemory}

	if opts.InMemory {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		s.index = index
		return s, nil
	}

	s.path = filepath.Join(opts.DataPath, "books.bleve")
	versionPath := filepath.Join(opts.DataPath, "books.version")

	needsRebuild := false
	indexExists := false
	if _, err := os.Stat(s.path); err == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, err := os.ReadFile(versionPath) //#nosec G304 -- path derived from configured data dir
		switch {
		case err != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err := bleve.Open(s.path)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", s.path, "error", err)
			needsRebuild = true
		} else {
			s.index = index
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(s.path); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	if s.index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		index, err := bleve.New(s.path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		s.index = index
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", s.path, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", s.path)
	}

	s.loadSettings()

	return s, nil
}

// loadSettings restores persisted settings. Missing or unreadable settings
// leave the zero value in place until UpdateSettings runs.
func (s *SearchIndex) loadSettings() {
	raw, err := s.index.GetInternal(settingsKey)
	if err != nil || raw == nil {
		return
	}
	settings, err := decodeSettings(raw)
	if err != nil {
		s.logger.Warn("ignoring unreadable index settings", "error", err)
		return
	}
	s.settings = settings
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Settings returns the settings currently in effect.
func (s *SearchIndex) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings validates and persists settings.
// When persisting fails the settings stay pending and are applied by the
// next successful UpdateDocuments call.
func (s *SearchIndex) UpdateSettings(_ context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return domainerrors.InvalidArgument(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistSettings(settings); err != nil {
		s.pending = &settings
		return domainerrors.UpstreamUnavailable(err, "update index settings")
	}
	s.pending = nil
	return nil
}

// persistSettings must be called with mu held for writing.
func (s *SearchIndex) persistSettings(settings Settings) error {
	raw, err := settings.encode()
	if err != nil {
		return err
	}
	if err := s.index.SetInternal(settingsKey, raw); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}
	s.settings = settings
	return nil
}

// UpdateDocuments replaces documents by id. Large sets are committed in
// chunks to bound memory during full reindexes.
func (s *SearchIndex) UpdateDocuments(ctx context.Context, docs []*BookDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+batchSize, len(docs))
		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			fields, err := doc.ToMap()
			if err != nil {
				return err
			}
			if err := batch.Index(doc.ID, fields); err != nil {
				return domainerrors.UpstreamUnavailable(err, fmt.Sprintf("batch index %s", doc.ID))
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return domainerrors.UpstreamUnavailable(err, fmt.Sprintf("commit batch %d-%d", i, end))
		}
	}

	if s.pending != nil {
		if err := s.persistSettings(*s.pending); err != nil {
			s.logger.Warn("pending index settings still not applied", "error", err)
		} else {
			s.logger.Info("applied pending index settings")
			s.pending = nil
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and recreates the index with the current
// mapping, keeping the settings in effect.
//
// It blocks all other operations until it returns.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		index bleve.Index
		err   error
	)
	if s.memory {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		index, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	if s.settings.SearchableAttributes != nil || s.settings.FilterableAttributes != nil {
		if err := s.persistSettings(s.settings); err != nil {
			pending := s.settings
			s.pending = &pending
		}
	}

	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}

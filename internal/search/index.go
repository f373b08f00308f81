package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index of recipe documents.
//
// All methods are safe for concurrent use. The mutex guards the index handle,
// which Rebuild replaces.
type Index struct {
	index       bleve.Index
	path        string
	versionPath string
	logger      *slog.Logger
	mu          sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Uses slog.Default if nil
}

// mappingVersion is bumped whenever the index mapping changes, forcing a rebuild on startup.
const mappingVersion = "1"

// Open opens the index under opts.DataPath, creating it if needed. A corrupt index or one
// built with an older mapping is removed and recreated empty; callers reindex when
// DocumentCount is zero.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Index{
		path:        filepath.Join(opts.DataPath, "recipes.bleve"),
		versionPath: filepath.Join(opts.DataPath, "recipes.version"),
		logger:      logger,
	}

	if index, ok := s.openExisting(); ok {
		s.index = index
		logger.Info("opened existing search index", "path", s.path)
		return s, nil
	}

	index, err := s.create()
	if err != nil {
		return nil, err
	}
	s.index = index
	logger.Info("created new search index", "path", s.path, "mapping_version", mappingVersion)
	return s, nil
}

// openExisting opens the index on disk when its mapping version is current.
func (s *Index) openExisting() (bleve.Index, bool) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, false
	}

	version, err := os.ReadFile(s.versionPath)
	if err != nil || string(version) != mappingVersion {
		s.logger.Info("search index mapping changed, recreating",
			"old_version", string(version), "new_version", mappingVersion)
		return nil, false
	}

	index, err := bleve.Open(s.path)
	if err != nil {
		s.logger.Warn("search index unreadable, recreating", "path", s.path, "error", err)
		return nil, false
	}
	return index, true
}

// create removes whatever is at the index path and writes an empty index.
func (s *Index) create() (bleve.Index, error) {
	if err := os.RemoveAll(s.path); err != nil {
		return nil, fmt.Errorf("remove old index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	if err := os.WriteFile(s.versionPath, []byte(mappingVersion), 0o644); err != nil {
		s.logger.Warn("failed to write search version file", "error", err)
	}
	return index, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexRecipe adds or replaces a single document.
func (s *Index) IndexRecipe(doc *RecipeDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexRecipes indexes documents in batches of 500.
func (s *Index) IndexRecipes(docs []*RecipeDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteRecipe removes a document. Deleting an unknown ID is not an error.
func (s *Index) DeleteRecipe(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one. It blocks all other operations
// while it runs.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	index, err := s.create()
	if err != nil {
		return err
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}

package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/index"
	"github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/store"
)

// UpdateIndexSettings replaces the settings of an index and persists them.
// Changing the searchable fields or stop words re-indexes every document;
// slop limits take effect without touching the postings.
func (e *Engine) UpdateIndexSettings(name string, newSettings config.IndexSettings) error {
	if newSettings.Name != "" && newSettings.Name != name {
		return errors.NewValidationError("name", fmt.Sprintf("cannot change index name from '%s' to '%s' during settings update", name, newSettings.Name))
	}
	newSettings.Name = name
	newSettings.ApplyDefaults()
	if conflicts := newSettings.Validate(); len(conflicts) > 0 {
		return errors.NewValidationError("settings", strings.Join(conflicts, "; "))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old, exists := e.indexes[name]
	if !exists {
		return errors.NewIndexNotFoundError(name)
	}
	old.writeMu.Lock()
	defer old.writeMu.Unlock()

	reindex := requiresReindexing(*old.settings, newSettings)
	invIndex, docStore := old.InvertedIndex, old.DocumentStore
	if reindex {
		invIndex, docStore = index.NewInvertedIndex(&newSettings), store.NewDocumentStore()
	}

	instance, err := e.newIndexInstance(&newSettings, invIndex, docStore)
	if err != nil {
		return fmt.Errorf("failed to rebuild index '%s': %w", name, err)
	}
	if reindex {
		start := time.Now()
		docs := old.documents()
		if err := instance.bulkAdd(context.Background(), docs, nil); err != nil {
			return fmt.Errorf("failed to re-index '%s': %w", name, err)
		}
		e.logger.Info("index re-indexed for new settings", "index", name, "documents", len(docs), "took", time.Since(start))
	}
	if err := e.persistIndex(instance); err != nil {
		return fmt.Errorf("failed to save updated settings for index '%s': %w", name, err)
	}

	old.retired = true
	e.indexes[name] = instance
	e.logger.Info("index settings updated", "index", name, "reindexed", reindex)
	return nil
}

// requiresReindexing reports whether postings built under oldSettings are
// invalid under newSettings.
func requiresReindexing(oldSettings, newSettings config.IndexSettings) bool {
	return !slices.Equal(oldSettings.SearchableFields, newSettings.SearchableFields) ||
		!slices.Equal(oldSettings.StopWords, newSettings.StopWords)
}

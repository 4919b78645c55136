package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/index"
	"github.com/gcbaptista/go-phrase-engine/internal/persistence"
	"github.com/gcbaptista/go-phrase-engine/store"
)

const (
	dataDirPerm       = 0750
	settingsFile      = "settings.gob"
	invertedIndexFile = "inverted_index.gob"
	documentStoreFile = "document_store.gob"
)

// loadIndexesFromDisk loads all indexes from the data directory.
func (e *Engine) loadIndexesFromDisk() {
	e.logger.Info("loading indexes from disk", "data_dir", e.dataDir)

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.logger.Warn("failed to read data directory, no indexes loaded", "data_dir", e.dataDir, "error", err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		indexName := item.Name()
		instance, err := e.loadIndex(indexName)
		if err != nil {
			e.logger.Warn("skipping index", "index", indexName, "error", err)
			continue
		}
		e.indexes[indexName] = instance
		e.logger.Info("index loaded", "index", indexName, "documents", instance.DocumentCount())
	}
}

// loadIndex reads one index directory. Missing or corrupt data files leave
// that part empty; missing or mismatched settings skip the index.
func (e *Engine) loadIndex(indexName string) (*IndexInstance, error) {
	indexPath := filepath.Join(e.dataDir, indexName)
	logger := e.logger.With("index", indexName)

	var settings config.IndexSettings
	settingsPath := filepath.Join(indexPath, settingsFile)
	if err := persistence.LoadGob(settingsPath, &settings); err != nil {
		return nil, fmt.Errorf("failed to load settings from %s: %w", settingsPath, err)
	}
	if settings.Name != indexName {
		return nil, fmt.Errorf("index name in settings ('%s') does not match directory name ('%s')", settings.Name, indexName)
	}

	docStore := store.NewDocumentStore()
	dsPath := filepath.Join(indexPath, documentStoreFile)
	if err := persistence.LoadGob(dsPath, docStore); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to load document store, starting empty", "path", dsPath, "error", err)
		}
		docStore = store.NewDocumentStore()
	}

	invIndex := index.NewInvertedIndex(&settings)
	iiPath := filepath.Join(indexPath, invertedIndexFile)
	if err := persistence.LoadGob(iiPath, invIndex); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to load inverted index, starting empty", "path", iiPath, "error", err)
		}
		invIndex = index.NewInvertedIndex(&settings)
	}

	return e.newIndexInstance(&settings, invIndex, docStore)
}

// PersistIndexData saves the settings, inverted index and document store of an index.
func (e *Engine) PersistIndexData(indexName string) error {
	instance, err := e.getInstance(indexName)
	if err != nil {
		return err
	}
	return e.persistIndex(instance)
}

// persistIndex writes every file of instance. The gob encoders take the read
// locks of the index and the store.
func (e *Engine) persistIndex(instance *IndexInstance) error {
	start := time.Now()
	name := instance.settings.Name
	indexPath := filepath.Join(e.dataDir, name)
	if err := os.MkdirAll(indexPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for index %s: %w", name, err)
	}

	if err := persistence.SaveGob(filepath.Join(indexPath, settingsFile), *instance.settings, e.saveOpts...); err != nil {
		return fmt.Errorf("failed to save settings for index %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, invertedIndexFile), instance.InvertedIndex, e.saveOpts...); err != nil {
		return fmt.Errorf("failed to save inverted index for %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(indexPath, documentStoreFile), instance.DocumentStore, e.saveOpts...); err != nil {
		return fmt.Errorf("failed to save document store for %s: %w", name, err)
	}

	took := time.Since(start)
	e.metrics.ObservePersist(name, took)
	e.logger.Debug("index persisted", "index", name, "took", took)
	return nil
}

package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gcbaptista/go-phrase-engine/model"
)

// AddDocumentsAsync adds or replaces documents in a background job and
// persists the index once they are written. It returns the job ID.
func (e *Engine) AddDocumentsAsync(indexName string, docs []model.Document) (string, error) {
	if _, err := e.getInstance(indexName); err != nil {
		return "", err
	}

	metadata := map[string]string{
		"document_count": strconv.Itoa(len(docs)),
	}
	jobID, err := e.jobManager.Submit(model.JobTypeAddDocuments, indexName, metadata, func(ctx context.Context, jobID string) error {
		return e.withWriter(indexName, func(instance *IndexInstance) error {
			e.jobManager.UpdateJobProgress(jobID, 0, len(docs), "Indexing documents")
			err := instance.bulkAdd(ctx, docs, func(processed, total int, message string) {
				e.jobManager.UpdateJobProgress(jobID, processed, total, message)
			})
			if err != nil {
				return err
			}
			e.jobManager.UpdateJobProgress(jobID, len(docs), len(docs), "Persisting index")
			return e.persistIndex(instance)
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to start add documents job: %w", err)
	}
	return jobID, nil
}

// DeleteAllDocumentsAsync clears an index in a background job and persists
// the empty index. It returns the job ID.
func (e *Engine) DeleteAllDocumentsAsync(indexName string) (string, error) {
	if _, err := e.getInstance(indexName); err != nil {
		return "", err
	}

	jobID, err := e.jobManager.Submit(model.JobTypeDeleteAllDocs, indexName, nil, func(ctx context.Context, jobID string) error {
		return e.withWriter(indexName, func(instance *IndexInstance) error {
			if err := instance.indexer.DeleteAllDocuments(); err != nil {
				return err
			}
			return e.persistIndex(instance)
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to start delete all documents job: %w", err)
	}
	return jobID, nil
}

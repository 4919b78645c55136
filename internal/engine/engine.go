package engine

import (
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/internal/errors"
	"github.com/gcbaptista/go-phrase-engine/internal/indexing"
	"github.com/gcbaptista/go-phrase-engine/internal/jobs"
	"github.com/gcbaptista/go-phrase-engine/internal/logging"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
	"github.com/gcbaptista/go-phrase-engine/internal/persistence"
	"github.com/gcbaptista/go-phrase-engine/internal/search"
	"github.com/gcbaptista/go-phrase-engine/model"
	"github.com/gcbaptista/go-phrase-engine/services"
)

// Engine manages multiple phrase indexes.
// It implements the services.AsyncIndexManager interface.
type Engine struct {
	mu         sync.RWMutex
	indexes    map[string]*IndexInstance
	dataDir    string
	jobManager *jobs.Manager
	jobWorkers int
	metrics    *metrics.Metrics
	saveOpts   []persistence.SaveOption
	searchOpts []search.Option
	bulkConfig indexing.BulkIndexingConfig
	logger     *slog.Logger
}

var _ services.AsyncIndexManager = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics reports indexing, query, job and persistence metrics to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCompression zstd-compresses index snapshots at the given level.
func WithCompression(level int) Option {
	return func(e *Engine) {
		e.saveOpts = append(e.saveOpts, persistence.WithCompression(level))
	}
}

// WithSearchConfig sets query parallelism and the default page size of every index.
func WithSearchConfig(cfg config.SearchConfig) Option {
	return func(e *Engine) {
		e.searchOpts = append(e.searchOpts,
			search.WithWorkers(cfg.Workers, cfg.DocsPerWorker),
			search.WithDefaultPageSize(cfg.DefaultPageSize))
		if cfg.Workers > 0 {
			e.bulkConfig.WorkerCount = cfg.Workers
		}
	}
}

// WithJobWorkers limits how many background jobs run at once.
func WithJobWorkers(n int) Option {
	return func(e *Engine) {
		e.jobWorkers = n
	}
}

// NewEngine creates a new phrase engine orchestrator and loads the indexes
// persisted under dataDir. Call Close to stop background jobs.
func NewEngine(dataDir string, opts ...Option) *Engine {
	eng := &Engine{
		indexes:    make(map[string]*IndexInstance),
		dataDir:    dataDir,
		jobWorkers: 2,
		bulkConfig: indexing.DefaultBulkIndexingConfig(),
		logger:     logging.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(eng)
	}
	eng.jobManager = jobs.NewManager(eng.jobWorkers, eng.metrics)
	eng.jobManager.Start()

	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		eng.logger.Warn("could not create data directory, new indexes will not persist",
			"data_dir", dataDir, "error", err)
	}
	eng.loadIndexesFromDisk()
	return eng
}

// Close stops the job manager, cancelling jobs still running.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// GetIndex retrieves an index by its name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	return e.getInstance(name)
}

func (e *Engine) getInstance(name string) (*IndexInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings retrieves the settings for a specific index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	instance, err := e.getInstance(name)
	if err != nil {
		return config.IndexSettings{}, err
	}
	return instance.Settings(), nil
}

// ListIndexes returns the names of all loaded indexes, sorted.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJob retrieves a background job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns the jobs of an index, optionally filtered by status.
func (e *Engine) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(indexName, status)
}

// withWriter runs fn with exclusive write access to the current instance of
// an index. An instance replaced while fn waited is skipped for its successor.
func (e *Engine) withWriter(name string, fn func(*IndexInstance) error) error {
	for {
		instance, err := e.getInstance(name)
		if err != nil {
			return err
		}
		instance.writeMu.Lock()
		if instance.retired {
			instance.writeMu.Unlock()
			continue
		}
		err = fn(instance)
		instance.writeMu.Unlock()
		return err
	}
}

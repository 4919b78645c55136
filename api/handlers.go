package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-phrase-engine/internal/analytics"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
	"github.com/gcbaptista/go-phrase-engine/services"
)

// API holds dependencies for API handlers, primarily the phrase engine manager.
type API struct {
	engine    services.AsyncIndexManager
	analytics *analytics.Service
}

// NewAPI creates a new API handler structure. A nil analytics service is
// replaced by an in-memory one.
func NewAPI(engine services.AsyncIndexManager, analyticsService *analytics.Service) *API {
	if analyticsService == nil {
		analyticsService = analytics.NewService(engine, "")
	}
	return &API{engine: engine, analytics: analyticsService}
}

// RouterConfig controls the middleware and optional endpoints SetupRoutes installs.
type RouterConfig struct {
	MaxBodyBytes int64            // Request bodies above this size are rejected; 0 disables the limit
	Metrics      *metrics.Metrics // Serves MetricsPath and records HTTP metrics when set
	MetricsPath  string
	Analytics    *analytics.Service // Phrase query tracking; in-memory when nil
}

// SetupRoutes installs the middleware chain and defines all the API routes.
func SetupRoutes(router *gin.Engine, engine services.AsyncIndexManager, cfg RouterConfig) {
	apiHandler := NewAPI(engine, cfg.Analytics)

	router.Use(gin.Recovery(), RequestIDMiddleware(), RequestLoggingMiddleware(), CORSMiddleware())
	if cfg.Metrics != nil {
		router.Use(MetricsMiddleware(cfg.Metrics))
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.MaxBodyBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(cfg.MaxBodyBytes))
	}

	router.GET("/health", apiHandler.HealthCheckHandler)

	// Analytics route
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	// Job routes
	router.GET("/jobs/:jobId", apiHandler.GetJobHandler)

	// Index management routes
	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.POST("", apiHandler.CreateIndexHandler)                              // Create a new index
		indexRoutes.GET("", apiHandler.ListIndexesHandler)                               // List all indexes
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)                       // Settings and document count
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler)                 // Delete an index
		indexRoutes.PATCH("/:indexName/settings", apiHandler.UpdateIndexSettingsHandler) // Update index settings
		indexRoutes.GET("/:indexName/jobs", apiHandler.ListJobsHandler)                  // List jobs for an index

		// Document management routes per index
		docRoutes := indexRoutes.Group("/:indexName/documents")
		{
			docRoutes.PUT("", apiHandler.AddDocumentsHandler)                  // Add/Update documents
			docRoutes.DELETE("", apiHandler.DeleteAllDocumentsHandler)         // Delete all documents
			docRoutes.DELETE("/:documentId", apiHandler.DeleteDocumentHandler) // Delete specific document
		}

		// Phrase query routes per index
		indexRoutes.POST("/:indexName/_phrase", apiHandler.PhraseSearchHandler)
		indexRoutes.POST("/:indexName/_multi_phrase", apiHandler.MultiPhraseSearchHandler)
	}
}

// HealthCheckHandler reports that the server is up.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"indexes": len(api.engine.ListIndexes()),
	})
}

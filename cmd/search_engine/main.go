package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-phrase-engine/api"
	"github.com/gcbaptista/go-phrase-engine/config"
	"github.com/gcbaptista/go-phrase-engine/internal/analytics"
	"github.com/gcbaptista/go-phrase-engine/internal/engine"
	"github.com/gcbaptista/go-phrase-engine/internal/logging"
	"github.com/gcbaptista/go-phrase-engine/internal/metrics"
)

const version = "1.0.0"

func main() {
	// Define command-line flags
	var (
		help        = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("config", "", "Path to a YAML config file")
		port        = flag.Int("port", 0, "Port to run the server on (overrides the config file)")
		dataDir     = flag.String("data-dir", "", "Directory to store index data (overrides the config file)")
	)

	flag.Parse()

	if *help {
		fmt.Printf("Go Phrase Engine - positional phrase search with slop\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                              # Start server on default port 8080\n", os.Args[0])
		fmt.Printf("  %s --config phrase.yaml         # Load settings from a file\n", os.Args[0])
		fmt.Printf("  %s --port 9000 --data-dir /tmp  # Override port and data directory\n", os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Go Phrase Engine v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	opts := []engine.Option{
		engine.WithMetrics(m),
		engine.WithSearchConfig(cfg.Search),
	}
	if cfg.Storage.Compress {
		opts = append(opts, engine.WithCompression(cfg.Storage.CompressionLevel))
	}

	slog.Info("using data directory", "data_dir", cfg.Storage.DataDir)
	phraseEngine := engine.NewEngine(cfg.Storage.DataDir, opts...)
	defer phraseEngine.Close()

	analyticsService := analytics.NewService(phraseEngine, filepath.Join(cfg.Storage.DataDir, "analytics.gob"))

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.SetupRoutes(router, phraseEngine, api.RouterConfig{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Metrics:      m,
		MetricsPath:  cfg.Metrics.Path,
		Analytics:    analyticsService,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Snapshot every index once in-flight requests and jobs are done
	phraseEngine.Close()
	for _, name := range phraseEngine.ListIndexes() {
		if err := phraseEngine.PersistIndexData(name); err != nil {
			slog.Error("failed to persist index on shutdown", "index", name, "error", err)
		}
	}
	if err := analyticsService.Flush(); err != nil {
		slog.Error("failed to save analytics data", "error", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/gssha-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/gssha-etl/internal/adapter/kafka"
	"github.com/couchcryptid/gssha-etl/internal/adapter/watch"
	"github.com/couchcryptid/gssha-etl/internal/config"
	"github.com/couchcryptid/gssha-etl/internal/griddef"
	"github.com/couchcryptid/gssha-etl/internal/gssha"
	"github.com/couchcryptid/gssha-etl/internal/gssha/replacefile"
	"github.com/couchcryptid/gssha-etl/internal/observability"
	"github.com/couchcryptid/gssha-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Optional replacement parameter file (REPLACE_PARAM_FILE).
	var params *gssha.ReplaceParams
	if cfg.ReplaceParamFile != "" {
		params, err = loadParams(cfg.ReplaceParamFile)
		if err != nil {
			logger.Error("failed to load replacement parameters", "path", cfg.ReplaceParamFile, "error", err)
			os.Exit(1)
		}
		logger.Info("replacement parameters loaded", "path", cfg.ReplaceParamFile, "count", len(params.Targets))
	}

	// Optional grid definition (GRID_DEF_FILE). Without it, gridded dataset
	// files fail conversion and are skipped with an error metric.
	gridColumns := 0
	if cfg.GridDefFile != "" {
		grid, err := griddef.Load(cfg.GridDefFile)
		if err != nil {
			logger.Error("failed to load grid definition", "path", cfg.GridDefFile, "error", err)
			os.Exit(1)
		}
		gridColumns = grid.Columns
		logger.Info("grid definition loaded", "path", cfg.GridDefFile, "columns", grid.Columns, "rows", grid.Rows)
	} else {
		logger.Info("no grid definition configured, dataset files will be rejected")
	}

	extractor, err := watch.New(cfg.WatchDir, cfg.ProcessedDir, cfg.PollInterval, logger)
	if err != nil {
		logger.Error("failed to watch drop directory", "dir", cfg.WatchDir, "error", err)
		os.Exit(1)
	}
	writer := kafkaadapter.NewWriter(cfg, logger)
	converter := pipeline.NewConverter(params, gridColumns, logger, metrics)

	p := pipeline.New(extractor, converter, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := extractor.Close(); err != nil {
		logger.Error("drop directory watch close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func loadParams(path string) (*gssha.ReplaceParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return replacefile.Parse(f)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/textsql/textsql/internal/api"
	"github.com/textsql/textsql/internal/api/uistatic"
	"github.com/textsql/textsql/internal/config"
	"github.com/textsql/textsql/internal/dataset"
	"github.com/textsql/textsql/internal/migrations"
	"github.com/textsql/textsql/internal/nl2sql"
	"github.com/textsql/textsql/internal/observability"
	"github.com/textsql/textsql/internal/query/sqlite"
	s3store "github.com/textsql/textsql/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("textsql-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	if cfg.Dataset.ObjectKey != "" {
		if err := fetchDataset(cfg, logger); err != nil {
			logger.Error("failed to fetch dataset", slog.Any("error", err))
			os.Exit(1)
		}
	}

	var loader nl2sql.ModelLoader
	if cfg.Model.Enabled {
		loader = nl2sql.NewOpenAILoader(nl2sql.OpenAIConfig{
			BaseURL:     cfg.Model.BaseURL,
			APIKey:      cfg.Model.APIKey,
			Model:       cfg.Model.Name,
			Temperature: cfg.Model.Temperature,
			Timeout:     cfg.Model.Timeout,
		})
	}
	resolver := nl2sql.NewResolver(nl2sql.ResolverConfig{
		Loader: loader,
		Tables: cfg.Model.Tables,
		Logger: logger,
	})
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Model.Timeout)
	if err := resolver.Load(loadCtx); err != nil {
		logger.Warn("model unavailable, questions will use fallback rules", slog.Any("error", err))
	}
	cancelLoad()

	deps := api.Dependencies{
		Logger:            logger,
		Resolver:          resolver,
		Executor:          sqlite.NewExecutor(logger),
		Inspector:         sqlite.NewInspector(migrations.Table),
		UI:                uistatic.Handler(),
		Readiness:         api.CombineReadinessChecks(api.CheckDatabaseFiles(cfg)),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("default_database", cfg.Database.Default),
			slog.Bool("model_enabled", cfg.Model.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

// fetchDataset installs the published default database before serving.
func fetchDataset(cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:        cfg.ObjectStore.Endpoint,
		Region:          cfg.ObjectStore.Region,
		Bucket:          cfg.ObjectStore.Bucket,
		AccessKeyID:     cfg.ObjectStore.AccessKeyID,
		SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		UseSSL:          cfg.ObjectStore.UseSSL,
		Prefix:          cfg.ObjectStore.Prefix,
	})
	if err != nil {
		return err
	}
	path, _ := cfg.Database.Path("")
	info, err := dataset.Fetch(ctx, store, cfg.Dataset.ObjectKey, path)
	if err != nil {
		return err
	}
	logger.Info("dataset fetched",
		slog.String("key", cfg.Dataset.ObjectKey),
		slog.String("path", path),
		slog.Int64("bytes", info.Size),
	)
	return nil
}

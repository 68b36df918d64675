package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"github.com/textsql/textsql/internal/config"
	"github.com/textsql/textsql/internal/dataset"
	"github.com/textsql/textsql/internal/demo/seed"
	"github.com/textsql/textsql/internal/migrations"
	"github.com/textsql/textsql/internal/observability"
	"github.com/textsql/textsql/internal/storage"
	s3store "github.com/textsql/textsql/internal/storage/s3"
)

func main() {
	seedCfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv("textsql-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), seedCfg.Timeout)
	defer cancel()

	if err := run(ctx, cfg, seedCfg, logger); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, seedCfg seed.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(seedCfg.DatabasePath), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", seedCfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := migrations.NewRunner().Up(ctx, db, 0); err != nil {
		return err
	}
	customers := seed.NewGenerator(seedCfg.Seed).Customers(seedCfg.Count)
	if err := seed.Insert(ctx, db, customers, seedCfg.Reset); err != nil {
		return err
	}
	logger.Info("customers seeded",
		slog.String("path", seedCfg.DatabasePath),
		slog.String("count", humanize.Comma(int64(len(customers)))),
		slog.Int64("seed", seedCfg.Seed),
	)

	var export *seed.ParquetEncodeResult
	if seedCfg.ParquetPath != "" || seedCfg.Publish {
		all, err := seed.ReadAll(ctx, db)
		if err != nil {
			return err
		}
		if len(all) > 0 {
			encoded, err := seed.EncodeCustomersToParquet(all)
			if err != nil {
				return err
			}
			export = &encoded
		}
	}
	if seedCfg.ParquetPath != "" && export != nil {
		if err := os.WriteFile(seedCfg.ParquetPath, export.Data, 0o644); err != nil {
			return fmt.Errorf("write parquet export: %w", err)
		}
		logger.Info("parquet export written",
			slog.String("path", seedCfg.ParquetPath),
			slog.String("size", humanize.Bytes(uint64(len(export.Data)))),
		)
	}

	if !seedCfg.Publish {
		return nil
	}
	// Checkpoint so the uploaded file carries every committed row.
	if _, err := db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint database: %w", err)
	}
	return publish(ctx, cfg, seedCfg, export, logger)
}

func publish(ctx context.Context, cfg config.Config, seedCfg seed.Config, export *seed.ParquetEncodeResult, logger *slog.Logger) error {
	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: true,
	})
	if err != nil {
		return err
	}

	datasetKey, err := storage.DatasetKey(seedCfg.DatabaseName)
	if err != nil {
		return err
	}
	info, err := dataset.Publish(ctx, store, datasetKey, seedCfg.DatabasePath, storage.ContentTypeSQLite)
	if err != nil {
		return err
	}
	logger.Info("dataset published", slog.String("key", datasetKey), slog.String("size", humanize.Bytes(uint64(info.Size))))

	if export == nil {
		return nil
	}
	exportKey, err := storage.ExportKey(seedCfg.DatabaseName, "customers", time.Now())
	if err != nil {
		return err
	}
	if _, err := store.Put(ctx, exportKey, bytes.NewReader(export.Data), int64(len(export.Data)), storage.PutOptions{ContentType: storage.ContentTypeParquet}); err != nil {
		return err
	}
	logger.Info("parquet export published",
		slog.String("key", exportKey),
		slog.Int64("rows", export.RecordCount),
		slog.String("registered_from", export.MinRegistration),
		slog.String("registered_to", export.MaxRegistration),
	)
	return nil
}

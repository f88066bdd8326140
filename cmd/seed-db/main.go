// Command seed-db loads warehouses into PostgreSQL. Existing warehouses are
// updated by ID.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/rpstreef/screencloud-challenge/internal/domain/warehouse"
	"github.com/rpstreef/screencloud-challenge/internal/storage/postgres"
	"github.com/rpstreef/screencloud-challenge/internal/storage/seed"
)

type config struct {
	DatabaseURL string `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	File        string `usage:"Warehouse JSON file, optionally gzip-compressed (.gz); empty loads the embedded data set" flag:"file"`
}

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:        "FULFILLMENT",
		SkipFiles:        true,
		AllowUnknownEnvs: true,
	})
	if err := loader.Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url, FULFILLMENT_DATABASE_URL or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	ws, err := load(cfg.File)
	if err != nil {
		return err
	}
	lg.Info("Loaded warehouses",
		zap.String("source", sourceName(cfg.File)),
		zap.Int("count", len(ws)),
		zap.Int("stock", warehouse.TotalStock(ws)),
	)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	if err := postgres.NewWarehouseRepository(pool).Upsert(ctx, ws); err != nil {
		return errors.Wrap(err, "upsert warehouses")
	}
	return nil
}

func load(path string) ([]warehouse.Warehouse, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Open(path)
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

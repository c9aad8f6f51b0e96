package main

import (
	"context"
	"flag"
	"os"

	"github.com/dvloznov/family-finance/internal/config"
	"github.com/dvloznov/family-finance/internal/logger"
)

var (
	configPath    = flag.String("config", "", "Path to YAML config file")
	driver        = flag.String("driver", "", "Store driver to migrate: bigquery or postgres (defaults to config)")
	appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	migrationsDir = flag.String("migrations", "migrations", "Path to the migrations root directory")
	down          = flag.Bool("down", false, "Roll back one step (postgres only)")
)

func main() {
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	d := *driver
	if d == "" {
		d = cfg.Store.Driver
	}

	switch d {
	case config.DriverBigQuery:
		if cfg.Store.Project == "" {
			log.Fatal().Msg("store.project is required for bigquery migrations")
		}
		runner := &bigQueryRunner{
			projectID: cfg.Store.Project,
			datasetID: cfg.Store.Dataset,
			appliedBy: *appliedBy,
			dir:       resolveDir(*migrationsDir, "bigquery"),
			log:       log,
		}
		if err := runner.run(ctx); err != nil {
			log.Fatal().Err(err).Msg("BigQuery migration failed")
		}
	case config.DriverPostgres:
		if err := runPostgres(cfg.Store.DSN, resolveDir(*migrationsDir, "postgres"), *down, log); err != nil {
			log.Fatal().Err(err).Msg("Postgres migration failed")
		}
	default:
		log.Fatal().Str("driver", d).Msg("Nothing to migrate for this driver")
	}
}

// resolveDir locates the per-driver migrations directory relative to the
// working directory, falling back to the repo root when run from cmd/migrate.
func resolveDir(root, sub string) string {
	dir := root + "/" + sub
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "../../" + dir
	}
	return dir
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// pgxMigrateURL rewrites a postgres DSN to the scheme registered by the
// golang-migrate pgx/v5 driver.
func pgxMigrateURL(dsn string) (string, error) {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix), nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", fmt.Errorf("unsupported dsn scheme, expected postgres:// URL")
}

func runPostgres(dsn, dir string, down bool, log zerolog.Logger) error {
	url, err := pgxMigrateURL(dsn)
	if err != nil {
		return err
	}

	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg("No migrations applied")
	case err != nil:
		return fmt.Errorf("reading version: %w", err)
	case dirty:
		log.Warn().Uint("version", version).Msg("Current migration version is DIRTY")
	default:
		log.Info().Uint("version", version).Msg("Database migrations completed successfully")
	}
	return nil
}

package db

import (
	"embed"
	"strings"

	"campus-food/internal/xpkg/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// MigratePostgres applies every pending up migration.
func MigratePostgres(dbCfg config.Database) error {
	src, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return errors.Wrap(err, "load postgres migrations")
	}

	url := "pgx5://" + strings.TrimPrefix(dbCfg.DSN(), "postgres://")
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return errors.Wrap(err, "init postgres migrations")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply postgres migrations")
	}
	return nil
}

// MigrateSQLite applies the sqlite schema on the already opened database.
// The migrate instance is not closed since that would close s as well.
func MigrateSQLite(s *SQLite) error {
	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return errors.Wrap(err, "load sqlite migrations")
	}

	driver, err := sqlite3.WithInstance(s.db.DB, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "init sqlite migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return errors.Wrap(err, "init sqlite migrations")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply sqlite migrations")
	}
	return nil
}

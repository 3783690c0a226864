// Package ledger opens the configured order ledger backend and hands out its
// repositories.
package ledger

import (
	"context"

	database "campus-food/internal/order/adapter/db"
	"campus-food/internal/order/adapter/sqlitedb"
	"campus-food/internal/order/app/core"
	"campus-food/internal/xpkg/config"
	xdb "campus-food/internal/xpkg/db"
	"campus-food/internal/xpkg/logger"

	"github.com/pkg/errors"
)

type Ledger struct {
	DB     core.IDB
	Orders core.IOrderRepo
	Foods  core.IFoodRepo
}

// Open connects to postgres or sqlite depending on cfg.Driver. The sqlite
// schema is migrated on open; postgres is migrated with the migrate command.
func Open(ctx context.Context, cfg config.Database, mylog logger.Logger) (*Ledger, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := xdb.Start(ctx, cfg, mylog)
		if err != nil {
			return nil, errors.Wrap(core.ErrDBConn, err.Error())
		}
		return &Ledger{
			DB:     pg,
			Orders: database.NewOrderRepo(pg),
			Foods:  database.NewFoodRepo(pg),
		}, nil

	case "sqlite":
		lite, err := xdb.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, errors.Wrap(core.ErrDBConn, err.Error())
		}
		if err := xdb.MigrateSQLite(lite); err != nil {
			lite.Close()
			return nil, err
		}
		mylog.Action("db_connected").Info("Opened SQLite ledger", "path", cfg.SQLitePath)
		return &Ledger{
			DB:     lite,
			Orders: sqlitedb.NewOrderRepo(lite),
			Foods:  sqlitedb.NewFoodRepo(lite),
		}, nil
	}
	return nil, errors.Errorf("unknown database driver %q", cfg.Driver)
}

func (l *Ledger) Close() error {
	return l.DB.Close()
}

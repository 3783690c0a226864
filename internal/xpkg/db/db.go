package db

import (
	"context"
	"time"

	"campus-food/internal/xpkg/config"
	"campus-food/internal/xpkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const pingTimeout = 5 * time.Second

// DB owns the postgres connection pool shared by the repositories of one service.
type DB struct {
	pool  *pgxpool.Pool
	mylog logger.Logger
}

// Start opens a pool and verifies it with a ping.
func Start(ctx context.Context, dbCfg config.Database, mylog logger.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(dbCfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres config")
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = dbCfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	mylog.Action("db_connected").Info("Connected to PostgreSQL", "host", dbCfg.Host, "database", dbCfg.Database)
	return &DB{pool: pool, mylog: mylog}, nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// IsAlive pings the database.
func (db *DB) IsAlive(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.pool.Ping(ctx)
}

func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

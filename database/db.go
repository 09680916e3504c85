package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inboxhub/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database bundles the GORM handle with the pool underneath it.
type Database struct {
	Gorm   *gorm.DB
	SQL    *sql.DB
	pool   *pgxpool.Pool // nil for sqlite
	driver string
}

// Connect opens the configured database and verifies the connection.
func Connect(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger:         newGormLogger(logger, cfg.DBLogQueries),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true, // surfaces gorm.ErrDuplicatedKey for unique violations
	}

	db := &Database{driver: cfg.DBDriver}
	switch cfg.DBDriver {
	case DriverPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse database url: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.DBMaxConns)

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		db.pool = pool
		db.SQL = stdlib.OpenDBFromPool(pool)

		db.Gorm, err = gorm.Open(postgres.New(postgres.Config{Conn: db.SQL}), gormCfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	case DriverSQLite:
		var err error
		db.Gorm, err = gorm.Open(sqlite.Open(cfg.DatabaseURL), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if db.SQL, err = db.Gorm.DB(); err != nil {
			return nil, err
		}
		// one writer at a time; also keeps a :memory: database alive
		db.SQL.SetMaxOpenConns(1)
		if err := db.Gorm.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	// Verify the connection
	if err := db.Ping(ctx); err != nil {
		// close the handle if ping fails to avoid resource leak
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.WithField("driver", cfg.DBDriver).Info("database_connected")
	return db, nil
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Ping(ctx context.Context) error {
	return d.SQL.PingContext(ctx)
}

func (d *Database) Close() {
	if d.SQL != nil {
		_ = d.SQL.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// newGormLogger routes GORM's own logging through logrus. Slow queries and
// errors are always reported, every statement only when logQueries is set.
func newGormLogger(logger *logrus.Logger, logQueries bool) gormlogger.Interface {
	level := gormlogger.Warn
	if logQueries {
		level = gormlogger.Info
	}
	return gormlogger.New(logger, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

package db

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blog/internal/app"
)

// Open connects to Postgres when dsn is a postgres:// URL and to a SQLite
// file otherwise.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
	if isPostgres(dsn) {
		return openPostgres(dsn, cfg)
	}
	return openSQLite(dsn, cfg)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openPostgres(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}
	// Feed queries are few and repeated; cache their prepared statements.
	connCfg.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	connCfg.StatementCacheCapacity = 256

	sqlDB := stdlib.OpenDB(*connCfg)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	app.Log.WithField("host", connCfg.Host).Info("connected to postgres")
	return db, nil
}

func openSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// Readers must not block the writer, and cascades rely on foreign keys.
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=3000;`,
		`PRAGMA foreign_keys=ON;`,
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, errors.Wrapf(err, "sqlite %s", pragma)
		}
	}
	app.Log.WithField("file", dsn).Info("opened sqlite database")
	return db, nil
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains the database adapter: bootstrapping for
// the local SQLite variant (pure Go driver) and the hosted Postgres variant,
// pool lifecycle, raw statement execution, and schema migrations.
//
// Both variants expose the identical *gorm.DB contract; selection is a pure
// function of the hosted_db feature flag plus presence of the hosted DSN.
package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/unipath-labs/go-abroad-backend/internal/config"
	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

// Open selects and opens the database adapter: hosted Postgres when the
// hosted_db flag is enabled, local SQLite otherwise. It fails fast with a
// configuration error when the flag is set but the DSN is absent. When the
// observability flag is on, GORM query tracing is attached.
func Open(cfg config.Config, flags config.Flags) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if flags.IsEnabled(config.FeatureHostedDB) {
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, errors.New("hosted_db is enabled but DATABASE_URL is empty")
		}
		db, err = openPostgres(cfg.DatabaseURL)
	} else {
		db, err = OpenSQLite(cfg.SQLitePath)
	}
	if err != nil {
		return nil, err
	}

	if flags.IsEnabled(config.FeatureObservability) {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// sqlitePragmas are passed in the DSN so the driver applies them to every
// pooled connection. A plain `PRAGMA` statement would only affect the single
// connection it happens to run on; foreign_keys in particular must hold on
// all of them or the user-delete cascade silently stops firing.
const sqlitePragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)"

// OpenSQLite opens (or creates) a SQLite database with the standard PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path+sqlitePragmas), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// openPostgres opens the hosted database and applies pool settings sized for
// a small request-per-call service.
func openPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// ExecRaw executes a raw statement outside any caller-managed transaction and
// auto-commits. Used only for non-transactional maintenance queries.
func ExecRaw(ctx context.Context, db *gorm.DB, stmt string, args ...any) (int64, error) {
	res := db.WithContext(ctx).Exec(stmt, args...)
	return res.RowsAffected, res.Error
}

// Close disposes the underlying connection pool. It is idempotent and safe to
// call with a nil handle; it is called once at process shutdown.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates the schema for all domain models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Payment{},
		&domain.Report{},
		&domain.WebhookEvent{},
	)
}

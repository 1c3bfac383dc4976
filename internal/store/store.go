// Package store persists one row of history per completed dashabr
// session to a local sqlite file. Store.Recent reads rows back; no dashabr
// command displays them (`dashabr list` lists manifest representations).
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/peymanj-dashabr/dashabr/internal/config"
)

// Store wraps a GORM connection to the session-history database.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to the sqlite file named by cfg.DSN, creating it and its
// schema if needed. Pass an empty cfg.DSN to get an in-memory store,
// useful for tests.
func Open(cfg config.StoreConfig, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	dsn := cfg.DSN
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(slogWriter{log}, gormlogger.Config{
			LogLevel: gormlogger.Warn,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("opening session history database: %w", err)
	}

	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrating session history schema: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// Record inserts a completed SessionRecord.
func (s *Store) Record(ctx context.Context, rec *SessionRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("recording session: %w", err)
	}
	return nil
}

// Recent returns the most recent limit SessionRecords, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	var recs []SessionRecord
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return recs, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slogWriter adapts *slog.Logger to gorm/logger.Writer.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...any) {
	w.logger.Warn(fmt.Sprintf(format, args...))
}

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/utils"
)

var (
	ErrRoundNotFound = errors.New("matching round not found")
	ErrRoundExecuted = errors.New("matching round already executed")
)

//go:embed schema.sql
var schema string

// Config holds database connection configuration.
type Config struct {
	URL            string
	MaxOpenConns   int
	ConnectRetries int
	RetryDelay     time.Duration
}

// DefaultConfig returns sensible defaults for database configuration.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:   5,
		ConnectRetries: 3,
		RetryDelay:     2 * time.Second,
	}
}

// Store reads round data from and writes round results to Postgres.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to the database and pings it, retrying ConnectRetries times.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("database url is not configured")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	attempts := cfg.ConnectRetries + 1
	for attempt := 1; ; attempt++ {
		err = ping(ctx, db)
		if err == nil {
			break
		}
		if attempt >= attempts {
			db.Close()
			return nil, fmt.Errorf("ping database after %d attempts: %w", attempt, err)
		}

		logger.Warn("database is not reachable yet",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", cfg.RetryDelay),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, cfg.RetryDelay); err != nil {
			db.Close()
			return nil, err
		}
	}

	logger.Debug("database connection established")
	return &Store{db: db, logger: logger}, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// New wraps an already opened database handle.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates the tables the store works with when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

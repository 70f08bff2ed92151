package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Round is one row of matching_log.
type Round struct {
	ID       int64
	RunAt    time.Time
	Executed bool
}

// Label is the round id as used in logs and reports.
func (r *Round) Label() string {
	return strconv.FormatInt(r.ID, 10)
}

// Due reports whether the round's run time has passed and it has not been executed.
func (r *Round) Due(now time.Time) bool {
	return !r.Executed && !r.RunAt.IsZero() && !now.Before(r.RunAt)
}

const roundColumns = `id, matching_run, executed`

func (s *Store) LatestRound(ctx context.Context) (*Round, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM matching_log ORDER BY id DESC LIMIT 1`)
	return scanRound(row)
}

func (s *Store) Round(ctx context.Context, id int64) (*Round, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM matching_log WHERE id = $1`, id)
	return scanRound(row)
}

// CreateRound opens a new round that runs at runAt.
func (s *Store) CreateRound(ctx context.Context, runAt time.Time) (*Round, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO matching_log (matching_run, executed) VALUES ($1, FALSE) RETURNING `+roundColumns, runAt)
	return scanRound(row)
}

func scanRound(row *sql.Row) (*Round, error) {
	var (
		r     Round
		runAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &runAt, &r.Executed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}
	if runAt.Valid {
		r.RunAt = runAt.Time
	}
	return &r, nil
}

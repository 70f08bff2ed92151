package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/utils"
)

// LoadPool returns the applicants of a round who applied and did not cancel, in
// application order.
func (s *Store) LoadPool(ctx context.Context, roundID int64) (*applicant.Pool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, profile_snapshot, preference_snapshot
		FROM matching_applications
		WHERE period_id = $1 AND applied = TRUE AND cancelled = FALSE
		ORDER BY id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	pool := applicant.NewPool()
	for rows.Next() {
		var (
			userID              string
			profile, preference []byte
		)
		if err := rows.Scan(&userID, &profile, &preference); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}

		rec, err := s.decodeApplication(userID, profile, preference)
		if err != nil {
			return nil, fmt.Errorf("application of %q: %w", userID, err)
		}
		pool.Items = append(pool.Items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	s.logger.Debug("round pool loaded", zap.Int64("round_id", roundID), zap.Int("applicants", pool.Len()))
	return pool, nil
}

// decodeApplication merges the snapshots of one application. A broken profile
// snapshot is an error; a broken preference snapshot leaves the applicant without
// preferences.
func (s *Store) decodeApplication(userID string, profile, preference []byte) (*applicant.Record, error) {
	profileMap, err := applicant.SnapshotMap(profile)
	if err != nil {
		return nil, fmt.Errorf("profile snapshot: %w", err)
	}

	preferenceMap, err := applicant.SnapshotMap(preference)
	if err != nil {
		s.logger.Warn("ignoring unreadable preference snapshot",
			zap.String("user_id", userID),
			zap.String("snapshot", utils.TruncateForLog(string(preference), 120)),
			zap.Error(err),
		)
		preferenceMap = map[string]any{}
	}

	return applicant.FromSnapshot(userID, profileMap, preferenceMap)
}

// PreviousPairs lists the couples matched in rounds before the given one.
func (s *Store) PreviousPairs(ctx context.Context, beforeRound int64) ([][2]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT male_user_id, female_user_id
		FROM matching_history
		WHERE period_id < $1 AND matched = TRUE
		ORDER BY id`, beforeRound)
	if err != nil {
		return nil, fmt.Errorf("query matching history: %w", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var pair [2]string
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, fmt.Errorf("scan matching history: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// Companies returns the id to name directory of active companies.
func (s *Store) Companies(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id::text, name FROM companies WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	companies := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		if name != "" {
			companies[id] = name
		}
	}
	return companies, rows.Err()
}

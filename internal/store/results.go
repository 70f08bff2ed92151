package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/matching"
)

// SaveResult persists a round in one transaction: the history rows, the per
// application status of both sides of every pair, the unmatched applicants and the
// executed flag of the round. A round is saved at most once.
func (s *Store) SaveResult(ctx context.Context, roundID int64, result *matching.Result, matchedAt time.Time) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var executed bool
		err := tx.QueryRowContext(ctx, `SELECT executed FROM matching_log WHERE id = $1 FOR UPDATE`, roundID).Scan(&executed)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoundNotFound
		}
		if err != nil {
			return fmt.Errorf("lock round: %w", err)
		}
		if executed {
			return ErrRoundExecuted
		}

		matched := make([]string, 0, 2*len(result.Pairs))
		for _, pair := range result.Pairs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO matching_history (period_id, male_user_id, female_user_id, matched, matched_at)
				VALUES ($1, $2, $3, TRUE, $4)`,
				roundID, pair.MaleID, pair.FemaleID, matchedAt,
			); err != nil {
				return fmt.Errorf("insert history %s/%s: %w", pair.MaleID, pair.FemaleID, err)
			}

			for _, side := range [][2]string{{pair.MaleID, pair.FemaleID}, {pair.FemaleID, pair.MaleID}} {
				if _, err := tx.ExecContext(ctx, `
					UPDATE matching_applications
					SET matched = TRUE, matched_at = $3, partner_user_id = $4
					WHERE period_id = $1 AND user_id = $2`,
					roundID, side[0], matchedAt, side[1],
				); err != nil {
					return fmt.Errorf("update application of %s: %w", side[0], err)
				}
			}
			matched = append(matched, pair.MaleID, pair.FemaleID)
		}

		unmatched := result.UnmatchedIDs()
		if _, err := tx.ExecContext(ctx, `
			UPDATE matching_applications
			SET matched = FALSE, matched_at = $2, partner_user_id = NULL
			WHERE period_id = $1 AND user_id = ANY($3)`,
			roundID, matchedAt, pq.Array(unmatched),
		); err != nil {
			return fmt.Errorf("update unmatched applications: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE users SET is_matched = TRUE WHERE id = ANY($1)`, pq.Array(matched)); err != nil {
			return fmt.Errorf("mark matched users: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET is_matched = FALSE WHERE id = ANY($1)`, pq.Array(unmatched)); err != nil {
			return fmt.Errorf("mark unmatched users: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE matching_log SET executed = TRUE WHERE id = $1`, roundID); err != nil {
			return fmt.Errorf("mark round executed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("round result saved",
		zap.Int64("round_id", roundID),
		zap.Int("pairs", len(result.Pairs)),
		zap.Int("unmatched", result.Summary.Unmatched),
	)
	return nil
}

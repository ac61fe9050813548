package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/model"
	"github.com/HEAL-capstone/HEAL-server/internal/repository"
)

// compile-time check that *DB implements repository.InterestRepository
var _ repository.InterestRepository = (*DB)(nil)

// ListCategories returns every known category ordered by ID, so the list is
// stable across calls.
func (db *DB) ListCategories(ctx context.Context) ([]model.Interest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT interests_id, category FROM interests ORDER BY interests_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	return scanInterests(rows)
}

// ListForUser returns the categories associated with a user, ordered by
// category ID. No associations is an empty slice, not an error.
func (db *DB) ListForUser(ctx context.Context, userID int64) ([]model.Interest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.interests_id, i.category
		 FROM user_interests ui
		 JOIN interests i ON i.interests_id = ui.interests_id
		 WHERE ui.user_id = ?
		 ORDER BY i.interests_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing interests for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanInterests(rows)
}

// ReplaceForUser atomically swaps a user's association set.
//
// The whole operation is one transaction:
//
//  1. confirm the user exists
//  2. validate every supplied ID, in the caller's order — the first unknown
//     ID aborts with NotFound for exactly that ID
//  3. delete the old set, insert the new one
//
// A failure at any step rolls everything back, so a concurrent reader never
// observes a set that is neither fully old nor fully new, and an invalid
// batch leaves the previous associations untouched.
func (db *DB) ReplaceForUser(ctx context.Context, userID int64, interestIDs []int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user WHERE user_id = ?`, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking user %d: %w", userID, err)
	}
	if exists == 0 {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}

	for _, id := range interestIDs {
		var known int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM interests WHERE interests_id = ?`, id,
		).Scan(&known)
		if err != nil {
			return fmt.Errorf("sqlite: checking interest %d: %w", id, err)
		}
		if known == 0 {
			return apperror.NotFound("interest", strconv.FormatInt(id, 10))
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_interests WHERE user_id = ?`, userID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing interests for user %d: %w", userID, err)
	}

	for _, id := range interestIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_interests (user_id, interests_id) VALUES (?, ?)`,
			userID, id,
		); err != nil {
			return fmt.Errorf("sqlite: inserting interest %d for user %d: %w", id, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing interests for user %d: %w", userID, err)
	}
	return nil
}

// Remove deletes a single association. Returns apperror.ErrNotFound if the
// (user, interest) pair doesn't exist.
func (db *DB) Remove(ctx context.Context, userID, interestID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_interests WHERE user_id = ? AND interests_id = ?`,
		userID, interestID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing interest %d for user %d: %w", interestID, userID, err)
	}

	return requireRowAffected(res, "interest association", interestID)
}

func scanInterests(rows *sql.Rows) ([]model.Interest, error) {
	interests := []model.Interest{}
	for rows.Next() {
		var i model.Interest
		if err := rows.Scan(&i.ID, &i.Category); err != nil {
			return nil, fmt.Errorf("sqlite: scanning interest row: %w", err)
		}
		interests = append(interests, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating interest rows: %w", err)
	}
	return interests, nil
}

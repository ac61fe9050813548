package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/model"
	"github.com/HEAL-capstone/HEAL-server/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `user_id, username, password_hash, name, gender, birth_date, created_at, updated_at`

// Create inserts a new user and fills in ID, CreatedAt, and UpdatedAt.
//
// Username uniqueness is enforced by the UNIQUE constraint, not by a
// check-then-insert in Go. Two concurrent registrations of the same
// username both reach the INSERT; the database accepts exactly one and the
// loser comes back as apperror.ErrConflict. A partially-created user is
// never visible — the single INSERT either lands completely or not at all.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	ts := now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO user (username, password_hash, name, gender, birth_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.Name,
		string(user.Gender),
		user.BirthDate,
		ts,
		ts,
	)
	if err != nil {
		if isUniqueViolation(err, "user.username") {
			return apperror.Conflict("username", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}

	user.ID = id
	user.CreatedAt = ts
	user.UpdatedAt = ts
	return nil
}

// GetByID retrieves a user by ID. Returns apperror.ErrNotFound if absent.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM user WHERE user_id = ?`, id)
}

// GetByUsername retrieves a user by username. Returns apperror.ErrNotFound
// if absent.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx,
		`SELECT `+userColumns+` FROM user WHERE username = ?`, username)
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	var gender string

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Name,
		&gender,
		&u.BirthDate,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	u.Gender = model.Gender(gender)
	return &u, nil
}

// UpdateProfile applies a partial profile update. Only non-nil patch fields
// change; updated_at is always refreshed.
//
// The query is assembled from a fixed set of known column assignments —
// only the values are caller-supplied, and those go through placeholders.
func (db *DB) UpdateProfile(ctx context.Context, id int64, patch repository.ProfilePatch) error {
	assignments := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if patch.Name != nil {
		assignments = append(assignments, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Gender != nil {
		assignments = append(assignments, "gender = ?")
		args = append(args, string(*patch.Gender))
	}
	if patch.BirthDate != nil {
		assignments = append(assignments, "birth_date = ?")
		args = append(args, *patch.BirthDate)
	}

	assignments = append(assignments, "updated_at = ?")
	args = append(args, now(), id)

	query := "UPDATE user SET "
	for i, a := range assignments {
		if i > 0 {
			query += ", "
		}
		query += a
	}
	query += " WHERE user_id = ?"

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}

	return requireRowAffected(res, "user", id)
}

// UpdatePassword replaces the stored password hash and refreshes updated_at.
func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE user SET password_hash = ?, updated_at = ? WHERE user_id = ?`,
		passwordHash, now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %d: %w", id, err)
	}

	return requireRowAffected(res, "user", id)
}

// Delete removes a user and all of their interest associations in a single
// transaction. If anything fails partway, the rollback leaves both tables
// exactly as they were — no half-deleted account, no orphaned join rows.
func (db *DB) Delete(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	// Associations first: the foreign key from user_interests would block
	// deleting the user row while join rows still reference it.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_interests WHERE user_id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlite: deleting interests for user %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM user WHERE user_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}
	if err := requireRowAffected(res, "user", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of user %d: %w", id, err)
	}
	return nil
}

// requireRowAffected converts a zero-row UPDATE/DELETE into NotFound.
func requireRowAffected(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading affected rows: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}

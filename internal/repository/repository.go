// Package repository declares the storage interfaces consumed by the service
// layer.
//
// Services depend on these interfaces, never on the concrete SQLite types.
// That keeps the business logic testable with in-memory fakes and leaves the
// door open to a different relational store without touching the services.
package repository

import (
	"context"

	"github.com/HEAL-capstone/HEAL-server/internal/model"
)

// ProfilePatch is a partial update to a user's profile. Nil fields are left
// unchanged; any successful patch refreshes the user's updated_at.
// The username and password are deliberately absent — usernames are
// immutable, and password changes go through UpdatePassword so the
// current-password check can't be skipped.
type ProfilePatch struct {
	Name      *string
	Gender    *model.Gender
	BirthDate *string
}

// UserRepository persists user accounts. It is the sole owner of user rows.
type UserRepository interface {
	// Create inserts a new user and fills in ID, CreatedAt, and UpdatedAt.
	// Returns apperror.ErrConflict if the username is already taken; the
	// check and the insert are a single atomic step, so two concurrent
	// registrations of the same username can never both succeed.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the user with the given ID, or apperror.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.User, error)

	// GetByUsername returns the user with the given username, or
	// apperror.ErrNotFound. Used by login.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// UpdateProfile applies a partial profile update and refreshes
	// updated_at. Returns apperror.ErrNotFound if the user doesn't exist.
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) error

	// UpdatePassword replaces the stored password hash and refreshes
	// updated_at. The hash is opaque to the repository.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete removes the user and, in the same transaction, every interest
	// association the user holds. No orphaned join rows survive a delete.
	Delete(ctx context.Context, id int64) error
}

// InterestRepository maintains the user–interest associations. It owns the
// join rows and references users and categories by ID only.
type InterestRepository interface {
	// ListCategories returns every known category in stable (ID) order.
	ListCategories(ctx context.Context) ([]model.Interest, error)

	// ListForUser returns the categories associated with a user, in stable
	// order. A user with no associations gets an empty slice, not an error.
	ListForUser(ctx context.Context, userID int64) ([]model.Interest, error)

	// ReplaceForUser atomically swaps the user's entire association set for
	// the given category IDs. Every ID is validated in the order supplied;
	// the first unknown ID aborts with apperror.ErrNotFound and the old set
	// is left untouched. Either the whole new set is written or nothing is.
	ReplaceForUser(ctx context.Context, userID int64, interestIDs []int64) error

	// Remove deletes a single association. Returns apperror.ErrNotFound if
	// the pair does not exist.
	Remove(ctx context.Context, userID, interestID int64) error
}

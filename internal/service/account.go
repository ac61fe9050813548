// Package service contains the business logic layer.
//
// Handlers parse HTTP and write responses; services validate input, enforce
// the domain rules, and orchestrate the repositories and auth primitives.
// Services accept plain Go values and return domain errors from the
// apperror package — they have zero knowledge of HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/auth"
	"github.com/HEAL-capstone/HEAL-server/internal/model"
	"github.com/HEAL-capstone/HEAL-server/internal/repository"
)

// Validation constants for account fields. The name limit comes from the
// reference schema (VARCHAR(20)); the username shares it for symmetry.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 20
	MinPasswordLength = 6
	MaxNameLength     = 20

	birthDateLayout = "2006-01-02"
)

// dummyHash is a bcrypt hash of a random throwaway string. When login hits
// an unknown username we verify the supplied password against this hash
// anyway, so the unknown-username and wrong-password paths cost roughly the
// same and response timing doesn't reveal which usernames exist.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AccountService implements registration, login, and profile management on
// top of the credential store.
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService with all dependencies
// injected. Wired once in server.New.
func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username  string
	Password  string
	Name      string
	Gender    string
	BirthDate string
}

// Register validates the input, hashes the password, and creates the user.
//
// The duplicate-username check is NOT done here with a lookup — the
// repository's unique constraint decides atomically at insert time, so two
// concurrent registrations of the same username resolve to exactly one
// success and one Conflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	gender := model.Gender(in.Gender)
	if !gender.Valid() {
		return nil, apperror.ValidationFailed("gender", "gender must be 'male' or 'female'")
	}

	birthDate, err := validateBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password is not usable")
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Gender:       gender,
		BirthDate:    birthDate,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// AuthResult bundles the authenticated user with the issued session token so
// the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Authenticate verifies a username/password pair and, on success, issues a
// session token.
//
// Failure modes stay distinguishable for callers and logs — unknown
// username is NotFound, wrong password is Unauthenticated — but the login
// handler presents both identically, and the dummy verify below keeps their
// timing close.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Burn a bcrypt comparison so this path costs about the same
			// as a real password check.
			_ = s.passwords.Verify(dummyHash, password)
			s.logger.Info("login failed: unknown username",
				slog.String("username", username))
			return nil, err
		}
		return nil, fmt.Errorf("authenticating %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed: bad credential",
				slog.Int64("user_id", user.ID))
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		return nil, fmt.Errorf("authenticating %q: %w", username, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// GetByID returns the user with the given ID.
func (s *AccountService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfileInput is a partial profile update — nil fields are left
// unchanged.
type UpdateProfileInput struct {
	Name      *string
	Gender    *string
	BirthDate *string
}

// UpdateProfile validates the supplied fields, applies the patch, and
// returns the refreshed user. updated_at always moves forward.
func (s *AccountService) UpdateProfile(ctx context.Context, id int64, in UpdateProfileInput) (*model.User, error) {
	patch := repository.ProfilePatch{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		if len(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		patch.Name = &name
	}
	if in.Gender != nil {
		gender := model.Gender(*in.Gender)
		if !gender.Valid() {
			return nil, apperror.ValidationFailed("gender", "gender must be 'male' or 'female'")
		}
		patch.Gender = &gender
	}
	if in.BirthDate != nil {
		birthDate, err := validateBirthDate(*in.BirthDate)
		if err != nil {
			return nil, err
		}
		patch.BirthDate = &birthDate
	}

	if patch.Name == nil && patch.Gender == nil && patch.BirthDate == nil {
		return nil, apperror.ValidationFailed("profile", "no fields to update")
	}

	if err := s.users.UpdateProfile(ctx, id, patch); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.Int64("user_id", id))

	return s.users.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing a hash of the
// new one. A wrong current password is Unauthenticated, same as a failed
// login.
func (s *AccountService) ChangePassword(ctx context.Context, id int64, current, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return apperror.ValidationFailed("new_password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("password change failed: bad credential",
				slog.Int64("user_id", id))
			return apperror.Unauthenticated("current password is incorrect")
		}
		return fmt.Errorf("verifying current password for user %d: %w", id, err)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("new_password", "password is not usable")
	}

	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("updating password for user %d: %w", id, err)
	}

	s.logger.Info("password changed", slog.Int64("user_id", id))
	return nil
}

// Delete removes the account. The repository cascades the user's interest
// associations in the same transaction, so no orphaned rows survive.
func (s *AccountService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.Int64("user_id", id))
	return nil
}

func validateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength))
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '.' || c == '-':
		default:
			return apperror.ValidationFailed("username",
				"username may only contain lowercase letters, digits, '_', '.', and '-'")
		}
	}
	return nil
}

// validateBirthDate checks the YYYY-MM-DD format and returns the canonical
// string form. A birth date in the future is rejected.
func validateBirthDate(s string) (string, error) {
	t, err := time.Parse(birthDateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", apperror.ValidationFailed("birth_date", "birth_date must be a valid date in YYYY-MM-DD format")
	}
	if t.After(time.Now()) {
		return "", apperror.ValidationFailed("birth_date", "birth_date must not be in the future")
	}
	return t.Format(birthDateLayout), nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/auth"
	"github.com/HEAL-capstone/HEAL-server/internal/model"
	"github.com/HEAL-capstone/HEAL-server/internal/repository"
)

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written
// fake keeps the tests readable — everything it does is on this page.
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to simulate a storage failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return apperror.Conflict("username", user.Username)
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	result := *u
	return &result, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id int64, patch repository.ProfilePatch) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Gender != nil {
		u.Gender = *patch.Gender
	}
	if patch.BirthDate != nil {
		u.BirthDate = *patch.BirthDate
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	delete(f.users, id)
	return nil
}

func newTestAccountService(t *testing.T, repo *fakeUserRepo) *AccountService {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewAccountService(repo, tokens, passwords, logger)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Password:  "secret-password",
		Name:      "Alice",
		Gender:    "female",
		BirthDate: "1990-01-01",
	}
}

func TestRegister_Success(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Register() did not assign a user ID")
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret-password" {
		t.Error("Register() must store a hash, never the plaintext")
	}
	if user.Gender != model.GenderFemale {
		t.Errorf("Gender = %q, want female", user.Gender)
	}
}

// Seven characters is enough: the canonical signup flow uses "secret1".
func TestRegister_SevenCharPassword(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	in := validRegisterInput()
	in.Password = "secret1"

	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), "alice", "secret1"); err != nil {
		t.Errorf("Authenticate() after register error = %v", err)
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"short username", func(in *RegisterInput) { in.Username = "ab" }},
		{"uppercase username", func(in *RegisterInput) { in.Username = "Alice" }},
		{"username with spaces", func(in *RegisterInput) { in.Username = "a lice" }},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }},
		{"empty name", func(in *RegisterInput) { in.Name = "   " }},
		{"bad gender", func(in *RegisterInput) { in.Gender = "other" }},
		{"bad birth date", func(in *RegisterInput) { in.BirthDate = "01/01/1990" }},
		{"future birth date", func(in *RegisterInput) { in.BirthDate = "2999-01-01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegisterInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAccountService(t, repo)

	registered, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Authenticate(context.Background(), "alice", "secret-password")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if result.User.ID != registered.ID {
		t.Errorf("Authenticate() user ID = %d, want %d", result.User.ID, registered.ID)
	}
	if result.Token == "" {
		t.Error("Authenticate() returned no token")
	}
}

func TestAuthenticate_UnknownUsername(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever-pass")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Authenticate() error = %v, want ErrNotFound", err)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Authenticate(context.Background(), "alice", "wrong-password")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Authenticate() error = %v, want ErrUnauthenticated", err)
	}
}

func TestUpdateProfile_PartialFields(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())

	registered, _ := svc.Register(context.Background(), validRegisterInput())

	name := "Alice B."
	updated, err := svc.UpdateProfile(context.Background(), registered.ID, UpdateProfileInput{
		Name: &name,
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if updated.Name != "Alice B." {
		t.Errorf("Name = %q, want %q", updated.Name, "Alice B.")
	}
	if updated.Gender != registered.Gender {
		t.Error("Gender changed without being patched")
	}
}

func TestUpdateProfile_NoFields(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	_, err := svc.UpdateProfile(context.Background(), registered.ID, UpdateProfileInput{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("UpdateProfile() error = %v, want ErrValidation", err)
	}
}

func TestUpdateProfile_InvalidGender(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	gender := "unknown"
	_, err := svc.UpdateProfile(context.Background(), registered.ID, UpdateProfileInput{
		Gender: &gender,
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("UpdateProfile() error = %v, want ErrValidation", err)
	}
}

func TestChangePassword_Success(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	err := svc.ChangePassword(context.Background(), registered.ID, "secret-password", "brand-new-pass")
	if err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	// Old password no longer works, new one does.
	if _, err := svc.Authenticate(context.Background(), "alice", "secret-password"); err == nil {
		t.Error("old password still authenticates after change")
	}
	if _, err := svc.Authenticate(context.Background(), "alice", "brand-new-pass"); err != nil {
		t.Errorf("new password failed to authenticate: %v", err)
	}
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	err := svc.ChangePassword(context.Background(), registered.ID, "not-my-password", "brand-new-pass")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("ChangePassword() error = %v, want ErrUnauthenticated", err)
	}
}

func TestDelete_ThenAuthenticateFails(t *testing.T) {
	svc := newTestAccountService(t, newFakeUserRepo())
	registered, _ := svc.Register(context.Background(), validRegisterInput())

	if err := svc.Delete(context.Background(), registered.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := svc.Authenticate(context.Background(), "alice", "secret-password")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Authenticate() after delete error = %v, want ErrNotFound", err)
	}
}

func TestRegister_StorageFailureIsWrapped(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("disk on fire")
	svc := newTestAccountService(t, repo)

	_, err := svc.Register(context.Background(), validRegisterInput())
	if err == nil {
		t.Fatal("Register() should surface storage failures")
	}
	if errors.Is(err, apperror.ErrValidation) || errors.Is(err, apperror.ErrConflict) {
		t.Errorf("storage failure misclassified as domain error: %v", err)
	}
}

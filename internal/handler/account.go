package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/HEAL-capstone/HEAL-server/internal/apperror"
	"github.com/HEAL-capstone/HEAL-server/internal/auth"
	"github.com/HEAL-capstone/HEAL-server/internal/service"
)

// AccountHandler exposes registration, login, and profile management over
// HTTP. All "me" routes run behind auth.RequireAuth, which resolves the
// acting user into the request context.
type AccountHandler struct {
	accounts *service.AccountService
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler. tokenTTL controls the
// session cookie's MaxAge and should match the TokenService TTL.
func NewAccountHandler(accounts *service.AccountService, tokenTTL time.Duration, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birth_date"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /users
// Body: {"username","password","name","gender","birth_date"}
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Name:      req.Name,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates a user and starts a session.
//
// HTTP: POST /auth/login
//
// On success the session token goes into an HttpOnly cookie with the same
// lifetime as the token itself. Unknown username and wrong password are
// deliberately collapsed into one 401 response here: the service reports
// them as distinct errors (and logs them distinctly), but the API must not
// reveal which usernames exist.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrUnauthenticated) {
			writeError(w, apperror.Unauthenticated("invalid username or password"))
			return
		}
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout ends the session by clearing the token cookie.
//
// HTTP: DELETE /auth/logout
//
// Logout is client-side only: sessions are stateless, so the token itself
// stays valid until its natural expiry. A stolen token survives logout —
// a documented limitation of the design, bounded by the short TTL.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /users/me (auth required)
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name      *string `json:"name"`
	Gender    *string `json:"gender"`
	BirthDate *string `json:"birth_date"`
}

// HandleUpdateMe applies a partial profile update. Absent fields are left
// unchanged.
//
// HTTP: PUT /users/me (auth required)
func (h *AccountHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), user.ID, service.UpdateProfileInput{
		Name:      req.Name,
		Gender:    req.Gender,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword replaces the account password after verifying the
// current one.
//
// HTTP: PUT /users/me/password (auth required)
func (h *AccountHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteMe deletes the account and all of its interest associations,
// then clears the session cookie.
//
// HTTP: DELETE /users/me (auth required)
func (h *AccountHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	if err := h.accounts.Delete(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	clearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

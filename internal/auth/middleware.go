package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/HEAL-capstone/HEAL-server/internal/model"
)

// TokenCookie is the cookie that carries the session token. Login sets it,
// logout clears it, and RequireAuth reads it. It is HttpOnly so page scripts
// can never touch the token.
const TokenCookie = "token"

// contextKey is an unexported type for this package's context keys.
// Using a private type means no other package can read or shadow the
// resolved user in the request context.
type contextKey int

const userKey contextKey = iota

// UserResolver looks up a user by ID. Satisfied by repository.UserRepository;
// declared here so the middleware depends only on the one method it needs.
type UserResolver interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth gates protected routes.
//
// For each request it reads the token cookie, validates the signature and
// expiry, and resolves the user record from the store. On success the
// resolved *model.User is attached to the request context, so downstream
// handlers never do their own identity lookup. On any failure the request
// stops here with a 401.
//
// Every rejection looks identical to the client ("valid authentication
// required") — whether the cookie was missing, the token expired, the
// signature was garbage, or the account was deleted after the token was
// minted. The distinction only shows up in the logs.
//
// The resolved user lives in the per-request context, never in the
// middleware itself, so concurrent requests cannot see each other's
// identity.
func RequireAuth(tokens *TokenService, users UserResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookie)
			if err != nil {
				// http.ErrNoCookie: the client is simply not logged in.
				reject(w, logger, r, "missing token cookie")
				return
			}

			userID, err := tokens.Validate(cookie.Value)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired):
					reject(w, logger, r, "token expired")
				default:
					reject(w, logger, r, "token malformed")
				}
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				// Covers accounts deleted after the token was issued; a
				// store failure also lands here rather than letting an
				// unauthenticated request through.
				reject(w, logger, r, "token user not resolvable")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUser retrieves the authenticated user resolved by RequireAuth.
//
// Returns (nil, false) if the request did not pass through RequireAuth —
// which on a protected route means a wiring bug, not an anonymous user.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func reject(w http.ResponseWriter, logger *slog.Logger, r *http.Request, reason string) {
	logger.Debug("request rejected",
		slog.String("path", r.URL.Path),
		slog.String("reason", reason),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}`))
}

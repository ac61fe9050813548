package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// DefaultTokenTTL is how long a session token stays valid after login.
//
// Sessions are stateless: there is no server-side revocation list, so a
// token remains usable until this expiry even after logout (logout only
// deletes the client's cookie). Keep the TTL short enough that a leaked
// token has a bounded lifetime.
const DefaultTokenTTL = time.Hour

// issuer pins tokens to this application. A token minted by another service
// that happens to share the secret still fails validation.
const issuer = "heal-server"

// Validation failures collapse into exactly two categories so that callers
// cannot leak anything more specific to a client:
//
//   - ErrTokenExpired:   the token parsed and verified, but exp has passed
//   - ErrTokenMalformed: everything else — garbage input, bad signature,
//     wrong algorithm, missing subject
//
// A token signed with the wrong secret is indistinguishable from a random
// string on purpose.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
)

// TokenService issues and validates signed session tokens.
//
// Tokens are HS256 JWTs: the payload carries the user ID, issue time, and
// expiry, and the HMAC signature proves the server minted it. Verification
// needs only the secret — no database lookup, no shared mutable state, so
// it is safe to call from any number of concurrent requests.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService signing with the given secret.
// The secret should be at least 32 bytes of random data in production
// (e.g. JWT_SECRET=$(openssl rand -hex 32)); anything under 16 characters
// is rejected outright.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. jwt.RegisteredClaims provides the standard
// fields; we store the user ID as the decimal string Subject ("sub") and a
// unique token ID ("jti") for correlating a session across log lines.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given user.
// The expiry is now + the service TTL.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom lifetime. Used by tests
// to mint already-expired tokens; production code goes through Generate.
func (s *TokenService) GenerateWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
			ID:        xid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the user ID it
// encodes.
//
// Checks performed:
//   - signature verifies against our secret
//   - algorithm is HS256 (jwt.WithValidMethods blocks algorithm-confusion
//     tricks like alg=none)
//   - issuer matches
//   - exp is present and in the future
//
// Any failure other than expiry comes back as ErrTokenMalformed.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenMalformed
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, ErrTokenMalformed
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrTokenMalformed
	}

	return userID, nil
}

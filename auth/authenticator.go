package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/webutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

const (
	// DefaultTokenTTL matches the lifetime of tokens issued at login.
	DefaultTokenTTL = 7 * 24 * time.Hour

	userCacheTTL     = 5 * time.Minute
	userCacheCleanup = 10 * time.Minute
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("token user does not exist")
)

// User-facing 401 messages.
const (
	msgAuthRequired = "Authentication required. Please log in to access this resource."
	msgExpired      = "Your session has expired. Please log in again."
	msgInvalid      = "Invalid authentication token. Please log in again."
	msgUnknownUser  = "User account not found. Please log in again."
	msgAuthFailed   = "Authentication failed. Please log in again."
)

// UserStore looks up users by ID. A missing user must be reported as an error wrapping sql.ErrNoRows.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type tokenClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and resolves the user they name.
type Authenticator struct {
	secret    []byte
	users     UserStore
	userCache *cache.Cache
	tokenTTL  time.Duration
}

func NewAuthenticator(secret string, users UserStore) *Authenticator {
	return &Authenticator{
		secret:    []byte(secret),
		users:     users,
		userCache: cache.New(userCacheTTL, userCacheCleanup),
		tokenTTL:  DefaultTokenTTL,
	}
}

// IssueToken signs a token carrying the user's ID.
func (a *Authenticator) IssueToken(userID string) (string, error) {
	if len(a.secret) == 0 {
		return "", fmt.Errorf("cannot issue token: signing secret is empty")
	}
	now := time.Now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authenticate resolves the user named by an Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	if !strings.HasPrefix(header, webutil.BearerPrefix) {
		return nil, ErrMissingToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, webutil.BearerPrefix))
	if raw == "" {
		return nil, ErrMissingToken
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: no id claim", ErrInvalidToken)
	}

	if cached, ok := a.userCache.Get(claims.UserID); ok {
		return cached.(*models.User), nil
	}
	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, claims.UserID)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", claims.UserID, err)
	}
	a.userCache.Set(claims.UserID, user, cache.DefaultExpiration)
	return user, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r.Context(), r.Header.Get(webutil.HeaderAuthorization))
		if err != nil {
			message := msgAuthFailed
			switch {
			case errors.Is(err, ErrMissingToken):
				message = msgAuthRequired
			case errors.Is(err, ErrTokenExpired):
				message = msgExpired
			case errors.Is(err, ErrInvalidToken):
				message = msgInvalid
			case errors.Is(err, ErrUnknownUser):
				message = msgUnknownUser
			default:
				log.Printf("ERROR (Authenticator): %v", err)
			}
			webutil.RespondWithError(w, http.StatusUnauthorized, message, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

type contextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(contextKey{}).(*models.User)
	return user, ok && user != nil
}

// RequesterID returns the authenticated user's ID, or "" for anonymous requests.
func RequesterID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}

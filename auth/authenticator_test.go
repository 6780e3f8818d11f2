package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreybb/bookforge/models"
	"github.com/coreybb/bookforge/webutil"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "test-secret"
	testUserID = "8d0e5b0e-4a4e-4d43-9d5d-0b7c2f1c9a11"
)

type countingStore struct {
	users map[string]*models.User
	calls int
}

func (s *countingStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.calls++
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found: %w", sql.ErrNoRows)
}

func newTestAuthenticator() (*Authenticator, *countingStore) {
	store := &countingStore{users: map[string]*models.User{
		testUserID: {ID: testUserID, Name: "Ada", Email: "ada@example.com"},
	}}
	return NewAuthenticator(testSecret, store), store
}

func signed(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAuthenticate(t *testing.T) {
	a, _ := newTestAuthenticator()
	good, err := a.IssueToken(testUserID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expired := signed(t, testSecret, tokenClaims{
		UserID:           testUserID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	forged := signed(t, "other-secret", tokenClaims{UserID: testUserID})
	ghost, _ := a.IssueToken("11111111-2222-3333-4444-555555555555")
	noID := signed(t, testSecret, tokenClaims{})

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", "Bearer " + good, nil},
		{"missing", "", ErrMissingToken},
		{"wrong scheme", "Basic abc", ErrMissingToken},
		{"empty bearer", "Bearer ", ErrMissingToken},
		{"expired", "Bearer " + expired, ErrTokenExpired},
		{"forged", "Bearer " + forged, ErrInvalidToken},
		{"garbage", "Bearer not.a.jwt", ErrInvalidToken},
		{"no id claim", "Bearer " + noID, ErrInvalidToken},
		{"unknown user", "Bearer " + ghost, ErrUnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := a.Authenticate(context.Background(), tt.header)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate: %v", err)
			}
			if user.ID != testUserID {
				t.Errorf("user = %+v", user)
			}
		})
	}
}

func TestAuthenticateCachesUsers(t *testing.T) {
	a, store := newTestAuthenticator()
	token, _ := a.IssueToken(testUserID)
	for i := 0; i < 3; i++ {
		if _, err := a.Authenticate(context.Background(), "Bearer "+token); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
	}
	if store.calls != 1 {
		t.Errorf("store calls = %d, want 1", store.calls)
	}
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	if _, err := NewAuthenticator("", &countingStore{}).IssueToken(testUserID); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestMiddleware(t *testing.T) {
	a, _ := newTestAuthenticator()
	token, _ := a.IssueToken(testUserID)

	var seen string
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequesterID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(webutil.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || seen != testUserID {
		t.Errorf("code = %d, requester = %q", rec.Code, seen)
	}

	tests := []struct {
		header      string
		wantMessage string
	}{
		{"", msgAuthRequired},
		{"Bearer nope", msgInvalid},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set(webutil.HeaderAuthorization, tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: code = %d, want 401", tt.header, rec.Code)
		}
		var body webutil.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Success || body.Message != tt.wantMessage {
			t.Errorf("header %q: body = %+v", tt.header, body)
		}
	}
}

func TestRequesterIDAnonymous(t *testing.T) {
	if id := RequesterID(context.Background()); id != "" {
		t.Errorf("RequesterID = %q, want empty", id)
	}
}

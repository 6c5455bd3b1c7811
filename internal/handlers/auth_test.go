package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gymdesk/backend/internal/middleware"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

type mockAuthStore struct {
	user          *models.User
	authErr       error
	deletedTokens []string
}

func (m *mockAuthStore) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if m.authErr != nil {
		return nil, m.authErr
	}
	return m.user, nil
}

func (m *mockAuthStore) CreateSession(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*models.Session, error) {
	return &models.Session{Token: "token-123", UserID: userID, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (m *mockAuthStore) DeleteSession(ctx context.Context, token string) error {
	m.deletedTokens = append(m.deletedTokens, token)
	return nil
}

func loginRequest(username, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	return httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
}

func TestLoginSetsSessionCookie(t *testing.T) {
	auth := &mockAuthStore{user: &models.User{ID: uuid.New(), Username: "reception", Role: models.RoleStaff}}
	limiter := rate.NewLimiter(rate.Inf, 1)

	rr := httptest.NewRecorder()
	Login(auth, 12*time.Hour, limiter).ServeHTTP(rr, loginRequest("reception", "swordfish"))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value != "token-123" {
		t.Fatalf("expected session cookie, got %+v", rr.Result().Cookies())
	}
	if !sessionCookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	auth := &mockAuthStore{authErr: store.ErrInvalidCredentials}
	limiter := rate.NewLimiter(rate.Inf, 1)

	rr := httptest.NewRecorder()
	Login(auth, 12*time.Hour, limiter).ServeHTTP(rr, loginRequest("reception", "wrong"))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	auth := &mockAuthStore{user: &models.User{ID: uuid.New(), Username: "reception"}}
	limiter := rate.NewLimiter(rate.Limit(0), 0)

	rr := httptest.NewRecorder()
	Login(auth, 12*time.Hour, limiter).ServeHTTP(rr, loginRequest("reception", "swordfish"))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	auth := &mockAuthStore{}
	limiter := rate.NewLimiter(rate.Inf, 1)

	rr := httptest.NewRecorder()
	Login(auth, 12*time.Hour, limiter).ServeHTTP(rr, loginRequest("", ""))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	auth := &mockAuthStore{}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "token-123"})
	rr := httptest.NewRecorder()

	Logout(auth).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if len(auth.deletedTokens) != 1 || auth.deletedTokens[0] != "token-123" {
		t.Fatalf("expected session deletion, got %+v", auth.deletedTokens)
	}
}

func TestMeRequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rr := httptest.NewRecorder()

	Me().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

type stubSessions struct {
	user *models.User
	err  error
}

func (s *stubSessions) UserBySessionToken(ctx context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuthRejectsMissingToken(t *testing.T) {
	handler := SessionAuth(&stubSessions{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSessionAuthAcceptsCookie(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "reception", Role: models.RoleStaff}

	var seen *models.User
	handler := SessionAuth(&stubSessions{user: user})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token-1"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen == nil || seen.Username != "reception" {
		t.Fatalf("expected user in context, got %+v", seen)
	}
}

func TestSessionAuthAcceptsBearerToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "reception"}
	handler := SessionAuth(&stubSessions{user: user})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireRoleForbidsStaff(t *testing.T) {
	staff := &models.User{ID: uuid.New(), Username: "reception", Role: models.RoleStaff}
	handler := RequireRole(models.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodDelete, "/api/members/x", nil)
	req = req.WithContext(WithUser(req.Context(), staff))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Username: "boss", Role: models.RoleAdmin}
	handler := RequireRole(models.RoleAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodDelete, "/api/members/x", nil)
	req = req.WithContext(WithUser(req.Context(), admin))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

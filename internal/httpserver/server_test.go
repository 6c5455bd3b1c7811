package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gymdesk/backend/internal/billing"
	"github.com/gymdesk/backend/internal/config"
	"github.com/gymdesk/backend/internal/store"
)

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	s, err := store.New(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	members, _ := store.NewMemberStore(db)
	txns, _ := store.NewTransactionStore(db)
	expenses, _ := store.NewExpenseStore(db)
	jobs, _ := store.NewJobStore(db)

	cfg := config.Config{ServerAddress: ":0"}
	server := New(cfg, Deps{
		DB:         db,
		Store:      s,
		Members:    members,
		Txns:       txns,
		Expenses:   expenses,
		Jobs:       jobs,
		Calculator: billing.NewCalculator(billing.DefaultCatalog()),
	})
	return server, mock
}

func TestHealthRoute(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	server, _ := newTestServer(t)

	paths := []string{"/api/members", "/api/transactions", "/api/expenses", "/api/dashboard", "/api/plans"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()

		server.Handler().ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, rr.Code)
		}
	}
}

func TestPlansRouteWithSession(t *testing.T) {
	server, mock := newTestServer(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "name", "role", "created_at", "updated_at"}).
		AddRow("6a8bbf4e-3c9f-4f6e-95d4-1f0a2b3c4d5e", "reception", "Front Desk", "staff", now, now)
	mock.ExpectQuery(`FROM sessions se`).WithArgs("token-1").WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
}

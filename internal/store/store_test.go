package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return &Store{db: db}, mock
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error when db is nil")
	}
	if _, err := NewMemberStore(nil); err == nil {
		t.Fatal("expected error when db is nil")
	}
	if _, err := NewTransactionStore(nil); err == nil {
		t.Fatal("expected error when db is nil")
	}
	if _, err := NewExpenseStore(nil); err == nil {
		t.Fatal("expected error when db is nil")
	}
	if _, err := NewJobStore(nil); err == nil {
		t.Fatal("expected error when db is nil")
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "reception", "Front Desk", models.RoleStaff, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	user, err := s.CreateUser(context.Background(), "reception", "Front Desk", "swordfish", models.RoleStaff)
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Fatal("expected a generated user id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	s, mock := newMockStore(t)

	hash, salt, err := hashPassword("swordfish")
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "name", "role", "password_hash", "salt", "created_at", "updated_at"}).
		AddRow(id, "reception", "Front Desk", "staff", hash, salt, now, now)
	mock.ExpectQuery(`SELECT id, username, name, role, password_hash, salt`).
		WithArgs("reception").
		WillReturnRows(rows)

	user, err := s.Authenticate(context.Background(), "reception", "swordfish")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.ID != id {
		t.Fatalf("unexpected user id: %s", user.ID)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	s, mock := newMockStore(t)

	hash, salt, err := hashPassword("swordfish")
	if err != nil {
		t.Fatalf("hashPassword returned error: %v", err)
	}

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "name", "role", "password_hash", "salt", "created_at", "updated_at"}).
		AddRow(uuid.New(), "reception", "Front Desk", "staff", hash, salt, now, now)
	mock.ExpectQuery(`SELECT id, username, name, role, password_hash, salt`).
		WithArgs("reception").
		WillReturnRows(rows)

	if _, err := s.Authenticate(context.Background(), "reception", "guess"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, username, name, role, password_hash, salt`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "role", "password_hash", "salt", "created_at", "updated_at"}))

	if _, err := s.Authenticate(context.Background(), "ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserBySessionTokenExpired(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM sessions se`).
		WithArgs("stale-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "role", "created_at", "updated_at"}))

	if _, err := s.UserBySessionToken(context.Background(), "stale-token"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteSessionUnknownTokenIsNoError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM sessions`).
		WithArgs("unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.DeleteSession(context.Background(), "unknown"); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
}

func TestRevenueExpenseTotals(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	monthStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	nextMonth := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"total_revenue", "monthly_revenue", "total_expenses", "monthly_expenses"}).
		AddRow(125000, 9500, 40000, 12000)
	mock.ExpectQuery(`COALESCE`).
		WithArgs(monthStart, nextMonth).
		WillReturnRows(rows)

	metrics, err := s.RevenueExpenseTotals(context.Background(), now)
	if err != nil {
		t.Fatalf("RevenueExpenseTotals returned error: %v", err)
	}
	if metrics.TotalRevenue != 125000 {
		t.Fatalf("unexpected total revenue: %d", metrics.TotalRevenue)
	}
	if metrics.MonthlyExpenses != 12000 {
		t.Fatalf("unexpected monthly expenses: %d", metrics.MonthlyExpenses)
	}
}

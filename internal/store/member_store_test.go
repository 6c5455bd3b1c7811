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

func newMockMemberStore(t *testing.T) (*MemberStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return &MemberStore{db: db}, mock
}

func TestMemberCreateAssignsID(t *testing.T) {
	s, mock := newMockMemberStore(t)

	joined := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	expiry := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO members`).
		WithArgs(sqlmock.AnyArg(), "Asha Rai", "9800000001", "", "", "cardio", "quarterly", &joined, &expiry, int64(9500)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	m := &models.Member{
		Name:        "Asha Rai",
		Phone:       "9800000001",
		PlanSlug:    "cardio",
		PeriodSlug:  "quarterly",
		JoiningDate: &joined,
		ExpiryDate:  &expiry,
		Fee:         9500,
	}
	if err := s.Create(context.Background(), m); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if m.ID == uuid.Nil {
		t.Fatal("expected a generated member id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemberGetByIDNotFound(t *testing.T) {
	s, mock := newMockMemberStore(t)

	id := uuid.New()
	mock.ExpectQuery(`FROM members`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(memberColumnNames()))

	if _, err := s.GetByID(context.Background(), id); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestMemberListCoercesNullFields(t *testing.T) {
	s, mock := newMockMemberStore(t)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(memberColumnNames()).
		AddRow(id, "Walk In", nil, nil, nil, "daily-pass", "daily", nil, nil, nil, now, now)
	mock.ExpectQuery(`FROM members`).WillReturnRows(rows)

	members, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}

	m := members[0]
	if m.Phone != "" || m.NationalID != "" || m.Address != "" {
		t.Fatalf("expected empty contact fields, got %+v", m)
	}
	if m.JoiningDate != nil || m.ExpiryDate != nil {
		t.Fatal("expected nil dates for NULL columns")
	}
	if m.Fee != 0 {
		t.Fatalf("expected zero fee, got %d", m.Fee)
	}
}

func TestMemberUpdateNotFound(t *testing.T) {
	s, mock := newMockMemberStore(t)

	m := &models.Member{ID: uuid.New(), Name: "Gone", PlanSlug: "cardio", PeriodSlug: "monthly"}
	mock.ExpectExec(`UPDATE members`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := s.Update(context.Background(), m); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestMemberDelete(t *testing.T) {
	s, mock := newMockMemberStore(t)

	id := uuid.New()
	mock.ExpectExec(`DELETE FROM members`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}

func memberColumnNames() []string {
	return []string{
		"id", "name", "phone", "national_id", "address", "plan_slug", "period_slug",
		"joining_date", "expiry_date", "fee", "created_at", "updated_at",
	}
}

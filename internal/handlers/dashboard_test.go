package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

type mockDashboardStore struct {
	metrics models.DashboardMetrics
}

func (m *mockDashboardStore) RevenueExpenseTotals(ctx context.Context, now time.Time) (*models.DashboardMetrics, error) {
	copy := m.metrics
	return &copy, nil
}

func TestDashboardCountsByLiveStatus(t *testing.T) {
	members := newMockMemberStore()

	now := time.Now().UTC()
	past := now.AddDate(-1, 0, 0)
	lapsed := now.AddDate(0, -6, 0)
	future := now.AddDate(0, 1, 0)

	for _, m := range []models.Member{
		{ID: uuid.New(), Name: "Active", JoiningDate: &past, ExpiryDate: &future},
		{ID: uuid.New(), Name: "Lapsed", JoiningDate: &past, ExpiryDate: &lapsed},
		{ID: uuid.New(), Name: "Pending"},
	} {
		members.members[m.ID] = m
	}

	metrics := &mockDashboardStore{metrics: models.DashboardMetrics{
		TotalRevenue:    125000,
		MonthlyRevenue:  9500,
		TotalExpenses:   40000,
		MonthlyExpenses: 12000,
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rr := httptest.NewRecorder()

	Dashboard(metrics, members).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var got models.DashboardMetrics
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if got.TotalMembers != 3 {
		t.Fatalf("expected 3 members, got %d", got.TotalMembers)
	}
	if got.ActiveMembers != 1 || got.ExpiredMembers != 1 || got.PendingMembers != 1 {
		t.Fatalf("unexpected status counts: %+v", got)
	}
	if got.MonthlyRevenue != 9500 || got.TotalExpenses != 40000 {
		t.Fatalf("unexpected money totals: %+v", got)
	}
}

func TestListPlansReturnsCatalog(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
	rr := httptest.NewRecorder()

	ListPlans(testCalculator().Catalog()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var got struct {
		Plans []struct {
			Slug    string `json:"slug"`
			BaseFee int64  `json:"base_fee"`
		} `json:"plans"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Plans) != 5 {
		t.Fatalf("expected 5 plans, got %d", len(got.Plans))
	}
	if got.Plans[1].Slug != "cardio" || got.Plans[1].BaseFee != 2500 {
		t.Fatalf("unexpected catalog order: %+v", got.Plans)
	}
}

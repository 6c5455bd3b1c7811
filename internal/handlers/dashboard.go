package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gymdesk/backend/internal/billing"
	"github.com/gymdesk/backend/internal/models"
)

// DashboardStore defines the behaviour required from the storage client
// used by the dashboard handler.
type DashboardStore interface {
	RevenueExpenseTotals(ctx context.Context, now time.Time) (*models.DashboardMetrics, error)
}

// Dashboard returns the console landing-page metrics. Member counts are
// derived from live status resolution so a membership that lapsed overnight
// is counted as expired without any batch job touching the rows.
func Dashboard(metrics DashboardStore, members MemberStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()

		m, err := metrics.RevenueExpenseTotals(r.Context(), now)
		if err != nil {
			log.Printf("Dashboard: failed to load totals: %v", err)
			http.Error(w, "failed to load dashboard metrics", http.StatusInternalServerError)
			return
		}

		list, err := members.List(r.Context())
		if err != nil {
			log.Printf("Dashboard: failed to list members: %v", err)
			http.Error(w, "failed to load dashboard metrics", http.StatusInternalServerError)
			return
		}

		m.TotalMembers = len(list)
		for i := range list {
			switch billing.ResolveStatus(now, list[i].JoiningDate, list[i].ExpiryDate) {
			case models.MemberStatusActive:
				m.ActiveMembers++
			case models.MemberStatusExpired:
				m.ExpiredMembers++
			case models.MemberStatusPending:
				m.PendingMembers++
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m)
	}
}

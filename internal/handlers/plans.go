package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gymdesk/backend/internal/billing"
)

// ListPlans returns the fixed membership plan catalog.
func ListPlans(catalog billing.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"plans": catalog.Plans()})
	}
}

// ListFeePeriods returns the fixed fee period catalog.
func ListFeePeriods(catalog billing.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"fee_periods": catalog.Periods()})
	}
}

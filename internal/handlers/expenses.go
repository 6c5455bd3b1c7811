package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/billing"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

// ExpenseStore defines the behaviour required from the storage client used
// by the expense handlers.
type ExpenseStore interface {
	Create(ctx context.Context, e *models.Expense) error
	List(ctx context.Context) ([]models.Expense, error)
	Update(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type expensePayload struct {
	Label   string `json:"label"`
	Amount  string `json:"amount"`
	SpentAt string `json:"spent_at"`
	Notes   string `json:"notes"`
}

// CreateExpense records an operating expense.
func CreateExpense(expenses ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload expensePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("CreateExpense: invalid JSON payload: %v", err)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		label := strings.TrimSpace(payload.Label)
		amount := billing.ParseAmount(payload.Amount)
		if label == "" || amount == 0 {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}

		spentAt := time.Now().UTC()
		if parsed, ok := billing.ParseDate(payload.SpentAt); ok {
			spentAt = parsed
		}

		expense := &models.Expense{
			Label:   label,
			Amount:  amount,
			SpentAt: spentAt,
			Notes:   strings.TrimSpace(payload.Notes),
		}
		if err := expenses.Create(r.Context(), expense); err != nil {
			log.Printf("CreateExpense: failed to persist %q: %v", label, err)
			http.Error(w, "failed to record expense", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(expense)
	}
}

// ListExpenses returns all expenses, newest first.
func ListExpenses(expenses ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := expenses.List(r.Context())
		if err != nil {
			log.Printf("ListExpenses: %v", err)
			http.Error(w, "failed to list expenses", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"expenses": list})
	}
}

// UpdateExpense edits an expense entry.
func UpdateExpense(expenses ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid expense id", http.StatusBadRequest)
			return
		}

		var payload expensePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		label := strings.TrimSpace(payload.Label)
		amount := billing.ParseAmount(payload.Amount)
		if label == "" || amount == 0 {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}

		spentAt := time.Now().UTC()
		if parsed, ok := billing.ParseDate(payload.SpentAt); ok {
			spentAt = parsed
		}

		expense := &models.Expense{
			ID:      id,
			Label:   label,
			Amount:  amount,
			SpentAt: spentAt,
			Notes:   strings.TrimSpace(payload.Notes),
		}
		if err := expenses.Update(r.Context(), expense); err != nil {
			if errors.Is(err, store.ErrExpenseNotFound) {
				http.Error(w, "expense not found", http.StatusNotFound)
				return
			}
			log.Printf("UpdateExpense: failed to persist %s: %v", id, err)
			http.Error(w, "failed to update expense", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expense)
	}
}

// DeleteExpense removes an expense entry. The route is admin-gated.
func DeleteExpense(expenses ExpenseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid expense id", http.StatusBadRequest)
			return
		}

		if err := expenses.Delete(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrExpenseNotFound) {
				http.Error(w, "expense not found", http.StatusNotFound)
				return
			}
			log.Printf("DeleteExpense: %v", err)
			http.Error(w, "failed to delete expense", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

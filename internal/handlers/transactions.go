package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/billing"
	"github.com/gymdesk/backend/internal/middleware"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

// TransactionStore defines the behaviour required from the storage client
// used by the transaction handlers.
type TransactionStore interface {
	Create(ctx context.Context, t *models.Transaction) error
	List(ctx context.Context, limit int) ([]models.Transaction, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type transactionPayload struct {
	MemberID    string `json:"member_id"`
	MemberName  string `json:"member_name"`
	PlanLabel   string `json:"plan_label"`
	PeriodLabel string `json:"period_label"`
	Amount      string `json:"amount"`
	PaidAt      string `json:"paid_at"`
}

// CreateTransaction records a manual payment entry, for payments taken
// outside the registration/renewal flow.
func CreateTransaction(txns TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload transactionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("CreateTransaction: invalid JSON payload: %v", err)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		memberName := strings.TrimSpace(payload.MemberName)
		amount := billing.ParseAmount(payload.Amount)
		if memberName == "" || amount == 0 {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}

		paidAt := time.Now().UTC()
		if parsed, ok := billing.ParseDate(payload.PaidAt); ok {
			paidAt = parsed
		}

		recordedBy := "system"
		if user, ok := middleware.UserFromContext(r.Context()); ok {
			recordedBy = user.Username
		}

		txn := &models.Transaction{
			MemberName:  memberName,
			PlanLabel:   payload.PlanLabel,
			PeriodLabel: payload.PeriodLabel,
			Amount:      amount,
			PaidAt:      paidAt,
			RecordedBy:  recordedBy,
		}
		if payload.MemberID != "" {
			if id, err := uuid.Parse(payload.MemberID); err == nil {
				txn.MemberID = &id
			}
		}

		if err := txns.Create(r.Context(), txn); err != nil {
			log.Printf("CreateTransaction: failed to persist payment for %q: %v", memberName, err)
			http.Error(w, "failed to record transaction", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(txn)
	}
}

// ListTransactions returns the payment log, newest first. An optional
// member_id query parameter filters to one member's history.
func ListTransactions(txns TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("member_id"); raw != "" {
			memberID, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid member id", http.StatusBadRequest)
				return
			}
			list, err := txns.ListByMember(r.Context(), memberID)
			if err != nil {
				log.Printf("ListTransactions: %v", err)
				http.Error(w, "failed to list transactions", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"transactions": list})
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		list, err := txns.List(r.Context(), limit)
		if err != nil {
			log.Printf("ListTransactions: %v", err)
			http.Error(w, "failed to list transactions", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"transactions": list})
	}
}

// DeleteTransaction removes a payment entry. The route is admin-gated.
func DeleteTransaction(txns TransactionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		if err := txns.Delete(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrTransactionNotFound) {
				http.Error(w, "transaction not found", http.StatusNotFound)
				return
			}
			log.Printf("DeleteTransaction: %v", err)
			http.Error(w, "failed to delete transaction", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

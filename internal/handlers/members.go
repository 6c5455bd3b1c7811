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
	"github.com/gymdesk/backend/internal/metrics"
	"github.com/gymdesk/backend/internal/middleware"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

// MemberStore defines the behaviour required from the storage client used
// by the member handlers.
type MemberStore interface {
	Create(ctx context.Context, m *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Update(ctx context.Context, m *models.Member) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRecorder records payment transactions generated by member
// registration and renewal.
type TransactionRecorder interface {
	Create(ctx context.Context, t *models.Transaction) error
}

// ReceiptEnqueuer queues outbound receipt notifications. May be nil when
// notifications are disabled.
type ReceiptEnqueuer interface {
	Enqueue(ctx context.Context, job *models.Job) error
}

type memberPayload struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	NationalID   string `json:"national_id"`
	Address      string `json:"address"`
	PlanSlug     string `json:"plan_slug"`
	PeriodSlug   string `json:"period_slug"`
	StartDate    string `json:"start_date"`
	AdmissionFee string `json:"admission_fee"`
}

type renewPayload struct {
	PeriodSlug string `json:"period_slug"`
	StartDate  string `json:"start_date"`
}

// CreateMember registers a new member: the billing calculator derives the
// expiry date and total fee, the payment is recorded and a receipt
// notification is queued.
func CreateMember(members MemberStore, txns TransactionRecorder, jobs ReceiptEnqueuer, calc *billing.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload memberPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("CreateMember: invalid JSON payload: %v", err)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		name := strings.TrimSpace(payload.Name)
		if name == "" || payload.PlanSlug == "" || payload.PeriodSlug == "" {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}

		start, ok := billing.ParseDate(payload.StartDate)
		if !ok {
			start = time.Now().UTC()
		}
		admissionFee := billing.ParseAmount(payload.AdmissionFee)

		member := models.Member{
			Name:       name,
			Phone:      strings.TrimSpace(payload.Phone),
			NationalID: strings.TrimSpace(payload.NationalID),
			Address:    strings.TrimSpace(payload.Address),
			PlanSlug:   payload.PlanSlug,
			PeriodSlug: payload.PeriodSlug,
		}

		member, err := calc.Register(member, start, admissionFee)
		if err != nil {
			if errors.Is(err, billing.ErrUnknownCatalogEntry) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Printf("CreateMember: billing failed for %q: %v", name, err)
			http.Error(w, "failed to compute membership fee", http.StatusInternalServerError)
			return
		}

		if err := members.Create(r.Context(), &member); err != nil {
			log.Printf("CreateMember: failed to persist %q: %v", name, err)
			http.Error(w, "failed to create member", http.StatusInternalServerError)
			return
		}

		recordPayment(r.Context(), txns, jobs, calc, &member, member.Fee)
		metrics.MembersRegistered.Inc()

		log.Printf("CreateMember: registered %q on %s/%s, fee %d", member.Name, member.PlanSlug, member.PeriodSlug, member.Fee)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(member)
	}
}

// ListMembers returns all members with their status resolved against the
// current date.
func ListMembers(members MemberStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := members.List(r.Context())
		if err != nil {
			log.Printf("ListMembers: %v", err)
			http.Error(w, "failed to list members", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		for i := range list {
			list[i].Status = billing.ResolveStatus(now, list[i].JoiningDate, list[i].ExpiryDate)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"members": list})
	}
}

// GetMember returns a single member with a freshly resolved status.
func GetMember(members MemberStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := memberID(w, r)
		if !ok {
			return
		}

		member, err := members.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrMemberNotFound) {
				http.Error(w, "member not found", http.StatusNotFound)
				return
			}
			log.Printf("GetMember: %v", err)
			http.Error(w, "failed to get member", http.StatusInternalServerError)
			return
		}

		member.Status = billing.ResolveStatus(time.Now(), member.JoiningDate, member.ExpiryDate)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(member)
	}
}

// UpdateMember edits a member. Contact fields are replaced in place; a new
// plan or fee period re-prices the membership through the calculator so the
// fee and expiry date never drift from the catalog.
func UpdateMember(members MemberStore, calc *billing.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := memberID(w, r)
		if !ok {
			return
		}

		var payload memberPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		member, err := members.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrMemberNotFound) {
				http.Error(w, "member not found", http.StatusNotFound)
				return
			}
			log.Printf("UpdateMember: %v", err)
			http.Error(w, "failed to get member", http.StatusInternalServerError)
			return
		}

		if name := strings.TrimSpace(payload.Name); name != "" {
			member.Name = name
		}
		if payload.Phone != "" {
			member.Phone = strings.TrimSpace(payload.Phone)
		}
		if payload.NationalID != "" {
			member.NationalID = strings.TrimSpace(payload.NationalID)
		}
		if payload.Address != "" {
			member.Address = strings.TrimSpace(payload.Address)
		}

		planSlug := payload.PlanSlug
		if planSlug == "" {
			planSlug = member.PlanSlug
		}
		periodSlug := payload.PeriodSlug
		if periodSlug == "" {
			periodSlug = member.PeriodSlug
		}
		if planSlug != member.PlanSlug || periodSlug != member.PeriodSlug {
			changed, err := calc.ChangePlan(*member, planSlug, periodSlug)
			if err != nil {
				if errors.Is(err, billing.ErrUnknownCatalogEntry) {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				log.Printf("UpdateMember: billing failed for %s: %v", id, err)
				http.Error(w, "failed to recompute membership fee", http.StatusInternalServerError)
				return
			}
			*member = changed
		}

		if err := members.Update(r.Context(), member); err != nil {
			log.Printf("UpdateMember: failed to persist %s: %v", id, err)
			http.Error(w, "failed to update member", http.StatusInternalServerError)
			return
		}

		member.Status = billing.ResolveStatus(time.Now(), member.JoiningDate, member.ExpiryDate)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(member)
	}
}

// DeleteMember removes a member record. The route is admin-gated.
func DeleteMember(members MemberStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := memberID(w, r)
		if !ok {
			return
		}

		if err := members.Delete(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrMemberNotFound) {
				http.Error(w, "member not found", http.StatusNotFound)
				return
			}
			log.Printf("DeleteMember: %v", err)
			http.Error(w, "failed to delete member", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// RenewMember extends a membership from the supplied start date. The
// admission fee is never charged again; renewing an already-active member
// still resets the cycle from the supplied date.
func RenewMember(members MemberStore, txns TransactionRecorder, jobs ReceiptEnqueuer, calc *billing.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := memberID(w, r)
		if !ok {
			return
		}

		var payload renewPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		member, err := members.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrMemberNotFound) {
				http.Error(w, "member not found", http.StatusNotFound)
				return
			}
			log.Printf("RenewMember: %v", err)
			http.Error(w, "failed to get member", http.StatusInternalServerError)
			return
		}

		start, ok := billing.ParseDate(payload.StartDate)
		if !ok {
			start = time.Now().UTC()
		}
		periodSlug := payload.PeriodSlug
		if periodSlug == "" {
			periodSlug = member.PeriodSlug
		}

		renewed, err := calc.Renew(*member, start, periodSlug)
		if err != nil {
			if errors.Is(err, billing.ErrUnknownCatalogEntry) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Printf("RenewMember: billing failed for %s: %v", id, err)
			http.Error(w, "failed to compute renewal fee", http.StatusInternalServerError)
			return
		}

		if err := members.Update(r.Context(), &renewed); err != nil {
			log.Printf("RenewMember: failed to persist %s: %v", id, err)
			http.Error(w, "failed to renew member", http.StatusInternalServerError)
			return
		}

		recordPayment(r.Context(), txns, jobs, calc, &renewed, renewed.Fee)
		metrics.MembershipsRenewed.Inc()

		renewed.Status = billing.ResolveStatus(time.Now(), renewed.JoiningDate, renewed.ExpiryDate)

		log.Printf("RenewMember: renewed %q on %s until %s, fee %d",
			renewed.Name, renewed.PeriodSlug, billing.FormatDate(*renewed.ExpiryDate), renewed.Fee)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(renewed)
	}
}

// recordPayment writes the transaction row and queues the receipt. Both are
// best effort: a failure here never rolls back the membership change.
func recordPayment(ctx context.Context, txns TransactionRecorder, jobs ReceiptEnqueuer, calc *billing.Calculator, member *models.Member, amount int64) {
	planLabel := member.PlanSlug
	if plan, err := calc.Catalog().Plan(member.PlanSlug); err == nil {
		planLabel = plan.Label
	}
	periodLabel := member.PeriodSlug
	if period, err := calc.Catalog().Period(member.PeriodSlug); err == nil {
		periodLabel = period.Label
	}

	recordedBy := "system"
	if user, ok := middleware.UserFromContext(ctx); ok {
		recordedBy = user.Username
	}

	memberID := member.ID
	txn := &models.Transaction{
		MemberID:    &memberID,
		MemberName:  member.Name,
		PlanLabel:   planLabel,
		PeriodLabel: periodLabel,
		Amount:      amount,
		PaidAt:      time.Now().UTC(),
		RecordedBy:  recordedBy,
	}
	if err := txns.Create(ctx, txn); err != nil {
		log.Printf("recordPayment: failed to record transaction for %s: %v", member.ID, err)
	}

	if jobs == nil || member.Phone == "" {
		return
	}

	expiryLabel := ""
	if member.ExpiryDate != nil {
		expiryLabel = billing.FormatDate(*member.ExpiryDate)
	}
	job := &models.Job{
		JobType:     models.JobTypeSendReceipt,
		Payload:     models.ReceiptPayload(member.Name, member.Phone, planLabel, amount, expiryLabel),
		Priority:    models.JobPriorityNormal,
		MaxAttempts: 3,
	}
	if err := jobs.Enqueue(ctx, job); err != nil {
		log.Printf("recordPayment: failed to queue receipt for %s: %v", member.ID, err)
	}
}

func memberID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid member id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

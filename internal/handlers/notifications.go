package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

// NotificationStore defines the interface for notification queue inspection.
type NotificationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Job, error)
	CancelJob(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (*models.JobStats, error)
	ListProcessingJobs(ctx context.Context) ([]*models.Job, error)
}

// GetNotification retrieves a queued notification by ID.
func GetNotification(jobs NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid notification ID", http.StatusBadRequest)
			return
		}

		job, err := jobs.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrJobNotFound) {
				http.Error(w, "notification not found", http.StatusNotFound)
				return
			}
			log.Printf("GetNotification: failed to get job %d: %v", id, err)
			http.Error(w, "failed to retrieve notification", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(job)
	}
}

// CancelNotification cancels a pending or failed notification.
func CancelNotification(jobs NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid notification ID", http.StatusBadRequest)
			return
		}

		if err := jobs.CancelJob(r.Context(), id); err != nil {
			log.Printf("CancelNotification: failed to cancel job %d: %v", id, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": id, "ok": true})
	}
}

// NotificationStats returns queue depth counts per status.
func NotificationStats(jobs NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := jobs.GetStats(r.Context())
		if err != nil {
			log.Printf("NotificationStats: failed to get stats: %v", err)
			http.Error(w, "failed to retrieve notification statistics", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

// ListProcessingNotifications returns notifications currently being sent.
func ListProcessingNotifications(jobs NotificationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := jobs.ListProcessingJobs(r.Context())
		if err != nil {
			log.Printf("ListProcessingNotifications: failed to list jobs: %v", err)
			http.Error(w, "failed to retrieve notifications", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"notifications": list,
			"count":         len(list),
		})
	}
}

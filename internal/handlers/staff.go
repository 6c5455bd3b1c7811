package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gymdesk/backend/internal/models"
)

// StaffStore defines the behaviour required from the storage client backing
// the staff management handlers.
type StaffStore interface {
	CreateUser(ctx context.Context, username, name, password string, role models.Role) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type staffPayload struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateStaff creates a staff account. The route is admin-gated.
func CreateStaff(staff StaffStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload staffPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("CreateStaff: invalid JSON payload: %v", err)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		username := strings.ToLower(strings.TrimSpace(payload.Username))
		if username == "" || payload.Password == "" {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}

		role := models.RoleStaff
		if payload.Role == string(models.RoleAdmin) {
			role = models.RoleAdmin
		}

		user, err := staff.CreateUser(r.Context(), username, strings.TrimSpace(payload.Name), payload.Password, role)
		if err != nil {
			log.Printf("CreateStaff: failed to create %q: %v", username, err)
			http.Error(w, "failed to create staff user", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(user)
	}
}

// ListStaff returns all staff accounts. The route is admin-gated.
func ListStaff(staff StaffStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := staff.ListUsers(r.Context())
		if err != nil {
			log.Printf("ListStaff: %v", err)
			http.Error(w, "failed to list staff users", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"users": users})
	}
}

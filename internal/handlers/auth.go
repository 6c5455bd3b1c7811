package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/gymdesk/backend/internal/middleware"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

// AuthStore defines the behaviour required from the storage client used by
// the auth handlers.
type AuthStore interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	CreateSession(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a staff user and issues a session cookie. Attempts
// are rate limited to slow down credential guessing.
func Login(auth AuthStore, ttl time.Duration, limiter *rate.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "too many login attempts", http.StatusTooManyRequests)
			return
		}

		var payload loginPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Printf("Login: invalid JSON payload: %v", err)
			http.Error(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}

		username := strings.TrimSpace(payload.Username)
		if username == "" || payload.Password == "" {
			http.Error(w, "missing required fields", http.StatusBadRequest)
			return
		}

		user, err := auth.Authenticate(r.Context(), username, payload.Password)
		if err != nil {
			if errors.Is(err, store.ErrInvalidCredentials) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			log.Printf("Login: authentication failed for %q: %v", username, err)
			http.Error(w, "failed to authenticate", http.StatusInternalServerError)
			return
		}

		session, err := auth.CreateSession(r.Context(), user.ID, ttl)
		if err != nil {
			log.Printf("Login: failed to create session for %q: %v", username, err)
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		log.Printf("Login: user %q (%s) signed in", user.Username, user.Role)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"user":       user,
			"expires_at": session.ExpiresAt,
		})
	}
}

// Logout revokes the current session and clears the cookie.
func Logout(auth AuthStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(middleware.SessionCookieName); err == nil && c.Value != "" {
			if err := auth.DeleteSession(r.Context(), c.Value); err != nil {
				log.Printf("Logout: failed to delete session: %v", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// Me returns the authenticated user attached to the session.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"user": user})
	}
}

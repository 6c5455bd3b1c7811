package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

// ErrInvalidCredentials is returned when a login attempt fails. The reason
// (unknown user vs wrong password) is deliberately not distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrSessionNotFound is returned when a session token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store provides database-backed accessors for staff users, sessions and the
// audit trail.
type Store struct {
	db *sql.DB
}

// New creates a Store using the provided sql.DB connection.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &Store{db: db}, nil
}

// CreateUser inserts a staff user with the given password. The password is
// hashed with argon2id before it touches the database.
func (s *Store) CreateUser(ctx context.Context, username, name, password string, role models.Role) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db cannot be nil")
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("store: hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Username: username,
		Name:     name,
		Role:     role,
	}

	err = s.db.QueryRowContext(
		ctx,
		`INSERT INTO users (id, username, name, role, password_hash, salt)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		user.ID, user.Username, user.Name, user.Role, passwordHash, salt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies a username/password pair and returns the user on
// success. Failures collapse into ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db cannot be nil")
	}

	var (
		user         models.User
		passwordHash string
		salt         string
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, username, name, role, password_hash, salt, created_at, updated_at
		 FROM users
		 WHERE LOWER(username) = LOWER($1)`,
		username,
	).Scan(&user.ID, &user.Username, &user.Name, &user.Role, &passwordHash, &salt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("store: lookup user by username: %w", err)
	}

	ok, err := verifyPassword(password, salt, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("store: verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// ListUsers returns all staff users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db cannot be nil")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, username, name, role, created_at, updated_at
		 FROM users
		 ORDER BY username ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// CreateSession issues a new random session token for the user with the
// given lifetime.
func (s *Store) CreateSession(ctx context.Context, userID uuid.UUID, ttl time.Duration) (*models.Session, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db cannot be nil")
	}

	token, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("store: generate session token: %w", err)
	}

	session := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
	}

	err = s.db.QueryRowContext(
		ctx,
		`INSERT INTO sessions (token, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		session.Token, session.UserID, session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: create session: %w", err)
	}

	return session, nil
}

// UserBySessionToken resolves a session token to its user, rejecting expired
// sessions.
func (s *Store) UserBySessionToken(ctx context.Context, token string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db cannot be nil")
	}

	var user models.User
	err := s.db.QueryRowContext(
		ctx,
		`SELECT u.id, u.username, u.name, u.role, u.created_at, u.updated_at
		 FROM sessions se
		 JOIN users u ON u.id = se.user_id
		 WHERE se.token = $1 AND se.expires_at > NOW()`,
		token,
	).Scan(&user.ID, &user.Username, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("store: lookup session: %w", err)
	}

	return &user, nil
}

// DeleteSession revokes a session token. Deleting an unknown token is not an
// error.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if s == nil || s.db == nil {
		return errors.New("store: db cannot be nil")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("store: delete session: %w", err)
	}
	return nil
}

// CreateAuditEntry records who did what for the audit trail. Inserts are
// best effort; the middleware runs them asynchronously.
func (s *Store) CreateAuditEntry(ctx context.Context, actor, method, endpoint string, statusCode int) error {
	if s == nil || s.db == nil {
		return errors.New("store: db cannot be nil")
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO audit_requests (actor, method, endpoint, status_code)
		 VALUES ($1, $2, $3, $4)`,
		actor, method, endpoint, statusCode,
	)
	if err != nil {
		return fmt.Errorf("store: create audit entry: %w", err)
	}
	return nil
}

// RevenueExpenseTotals returns the all-time and current-month revenue and
// expense sums for the dashboard. Member counts are derived separately so
// status is always resolved against "now" rather than read from storage.
func (s *Store) RevenueExpenseTotals(ctx context.Context, now time.Time) (*models.DashboardMetrics, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: db cannot be nil")
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	query := `
	SELECT
		COALESCE((SELECT SUM(amount) FROM transactions), 0) AS total_revenue,
		COALESCE((SELECT SUM(amount) FROM transactions WHERE paid_at >= $1 AND paid_at < $2), 0) AS monthly_revenue,
		COALESCE((SELECT SUM(amount) FROM expenses), 0) AS total_expenses,
		COALESCE((SELECT SUM(amount) FROM expenses WHERE spent_at >= $1 AND spent_at < $2), 0) AS monthly_expenses
	`

	metrics := &models.DashboardMetrics{}
	err := s.db.QueryRowContext(ctx, query, monthStart, nextMonth).Scan(
		&metrics.TotalRevenue,
		&metrics.MonthlyRevenue,
		&metrics.TotalExpenses,
		&metrics.MonthlyExpenses,
	)
	if err != nil {
		return nil, fmt.Errorf("store: revenue/expense totals: %w", err)
	}

	return metrics, nil
}

func randomHex(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

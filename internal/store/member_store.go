package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

// ErrMemberNotFound is returned when a member is not found.
var ErrMemberNotFound = errors.New("member not found")

const memberColumns = `id, name, phone, national_id, address, plan_slug, period_slug,
	joining_date, expiry_date, fee, created_at, updated_at`

// MemberStore provides database operations for gym members.
type MemberStore struct {
	db *sql.DB
}

// NewMemberStore creates a new MemberStore instance.
func NewMemberStore(db *sql.DB) (*MemberStore, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &MemberStore{db: db}, nil
}

// Create inserts a member record. The ID is assigned here; billing fields
// must already be derived by the calculator.
func (s *MemberStore) Create(ctx context.Context, m *models.Member) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	query := `
		INSERT INTO members (id, name, phone, national_id, address, plan_slug, period_slug,
			joining_date, expiry_date, fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Phone, m.NationalID, m.Address, m.PlanSlug, m.PeriodSlug,
		m.JoiningDate, m.ExpiryDate, m.Fee,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// GetByID returns a member by ID. Status is not read from storage; callers
// resolve it against "now".
func (s *MemberStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	m, err := scanMember(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by id: %w", err)
	}
	return m, nil
}

// List returns all members ordered by creation time descending.
func (s *MemberStore) List(ctx context.Context) ([]models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}

	return members, rows.Err()
}

// Update persists the mutable fields of a member, including re-derived
// billing fields after a plan change or renewal.
func (s *MemberStore) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members
		SET name = $2, phone = $3, national_id = $4, address = $5,
			plan_slug = $6, period_slug = $7,
			joining_date = $8, expiry_date = $9, fee = $10,
			updated_at = now()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		m.ID, m.Name, m.Phone, m.NationalID, m.Address,
		m.PlanSlug, m.PeriodSlug, m.JoiningDate, m.ExpiryDate, m.Fee,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Delete removes a member record.
func (s *MemberStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMember is the single normalization boundary between the loosely-typed
// backing rows and the core Member structure: NULL dates stay nil (status
// resolves to pending), a NULL or missing fee coerces to 0.
func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m        models.Member
		joining  sql.NullTime
		expiry   sql.NullTime
		fee      sql.NullInt64
		phone    sql.NullString
		natID    sql.NullString
		address  sql.NullString
	)

	err := row.Scan(
		&m.ID, &m.Name, &phone, &natID, &address, &m.PlanSlug, &m.PeriodSlug,
		&joining, &expiry, &fee, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Phone = phone.String
	m.NationalID = natID.String
	m.Address = address.String
	if joining.Valid {
		t := joining.Time
		m.JoiningDate = &t
	}
	if expiry.Valid {
		t := expiry.Time
		m.ExpiryDate = &t
	}
	if fee.Valid && fee.Int64 > 0 {
		m.Fee = fee.Int64
	}

	return &m, nil
}

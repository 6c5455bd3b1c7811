package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

// ErrTransactionNotFound is returned when a transaction is not found.
var ErrTransactionNotFound = errors.New("transaction not found")

const defaultTransactionPageSize = 200

// TransactionStore provides database operations for payment transactions.
type TransactionStore struct {
	db *sql.DB
}

// NewTransactionStore creates a new TransactionStore instance.
func NewTransactionStore(db *sql.DB) (*TransactionStore, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &TransactionStore{db: db}, nil
}

// Create inserts a payment transaction.
func (s *TransactionStore) Create(ctx context.Context, t *models.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, member_id, member_name, plan_label, period_label, amount, paid_at, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		t.ID, t.MemberID, t.MemberName, t.PlanLabel, t.PeriodLabel, t.Amount, t.PaidAt, t.RecordedBy,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// List returns up to limit transactions, newest first.
func (s *TransactionStore) List(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > defaultTransactionPageSize {
		limit = defaultTransactionPageSize
	}

	query := `
		SELECT id, member_id, member_name, plan_label, period_label, amount, paid_at, recorded_by, created_at
		FROM transactions
		ORDER BY paid_at DESC, created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var (
			t        models.Transaction
			memberID uuid.NullUUID
		)
		if err := rows.Scan(
			&t.ID, &memberID, &t.MemberName, &t.PlanLabel, &t.PeriodLabel,
			&t.Amount, &t.PaidAt, &t.RecordedBy, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if memberID.Valid {
			id := memberID.UUID
			t.MemberID = &id
		}
		txns = append(txns, t)
	}

	return txns, rows.Err()
}

// ListByMember returns all transactions recorded against a member, newest
// first.
func (s *TransactionStore) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Transaction, error) {
	query := `
		SELECT id, member_id, member_name, plan_label, period_label, amount, paid_at, recorded_by, created_at
		FROM transactions
		WHERE member_id = $1
		ORDER BY paid_at DESC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by member: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var mid uuid.NullUUID
		if err := rows.Scan(
			&t.ID, &mid, &t.MemberName, &t.PlanLabel, &t.PeriodLabel,
			&t.Amount, &t.PaidAt, &t.RecordedBy, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if mid.Valid {
			id := mid.UUID
			t.MemberID = &id
		}
		txns = append(txns, t)
	}

	return txns, rows.Err()
}

// Delete removes a transaction record.
func (s *TransactionStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gymdesk/backend/internal/models"
)

// ErrExpenseNotFound is returned when an expense is not found.
var ErrExpenseNotFound = errors.New("expense not found")

// ExpenseStore provides database operations for operating expenses.
type ExpenseStore struct {
	db *sql.DB
}

// NewExpenseStore creates a new ExpenseStore instance.
func NewExpenseStore(db *sql.DB) (*ExpenseStore, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &ExpenseStore{db: db}, nil
}

// Create inserts an expense record.
func (s *ExpenseStore) Create(ctx context.Context, e *models.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `
		INSERT INTO expenses (id, label, amount, spent_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		e.ID, e.Label, e.Amount, e.SpentAt, e.Notes,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// List returns all expenses, newest first.
func (s *ExpenseStore) List(ctx context.Context) ([]models.Expense, error) {
	query := `
		SELECT id, label, amount, spent_at, notes, created_at, updated_at
		FROM expenses
		ORDER BY spent_at DESC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var (
			e     models.Expense
			notes sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Label, &e.Amount, &e.SpentAt, &notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Notes = notes.String
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// Update persists changes to an expense record.
func (s *ExpenseStore) Update(ctx context.Context, e *models.Expense) error {
	query := `
		UPDATE expenses
		SET label = $2, amount = $3, spent_at = $4, notes = $5, updated_at = now()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, e.ID, e.Label, e.Amount, e.SpentAt, e.Notes)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// Delete removes an expense record.
func (s *ExpenseStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

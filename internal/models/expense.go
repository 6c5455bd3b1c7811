package models

import (
	"time"

	"github.com/google/uuid"
)

// Expense is an operating cost entry (rent, equipment, salaries, ...).
type Expense struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Amount    int64     `json:"amount"`
	SpentAt   time.Time `json:"spent_at"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

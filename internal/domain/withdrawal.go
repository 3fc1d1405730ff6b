// internal/domain/withdrawal.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal records one accepted balance decrement.
type Withdrawal struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Amount       int64     `db:"amount" json:"amount"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// NewWithdrawal creates a new Withdrawal with a fresh random ID.
func NewWithdrawal(userID string, amount, balanceAfter int64, now time.Time) *Withdrawal {
	return &Withdrawal{
		ID:           uuid.New(),
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    now.UTC(),
	}
}

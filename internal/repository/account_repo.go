// internal/repository/account_repo.go
package repository

import (
	"context"

	"clicker-ledger/internal/domain"
)

// AccountRepository is the store owning every Account. Each mutating method is
// a single atomic read-modify-write on one account: concurrent calls for the
// same user never lose an update, while different users proceed in parallel.
type AccountRepository interface {
	// GetOrCreate stores account unless one already exists for account.UserID.
	// It returns the stored record and whether this call created it.
	GetOrCreate(ctx context.Context, account *domain.Account) (*domain.Account, bool, error)
	// GetByID returns a snapshot of the account or util.ErrNotFound.
	GetByID(ctx context.Context, userID string) (*domain.Account, error)
	// ApplyClick adds one click and reward coins to the account.
	ApplyClick(ctx context.Context, userID string, reward int64) (*domain.Account, error)
	// Withdraw takes amount coins from the account and journals the withdrawal.
	// It fails with util.ErrInsufficientFunds, leaving the balance untouched,
	// when the balance is lower than amount.
	Withdraw(ctx context.Context, userID string, amount int64) (*domain.Account, *domain.Withdrawal, error)
	// TopByBalance returns up to limit accounts by balance descending; equal
	// balances keep creation order.
	TopByBalance(ctx context.Context, limit int) ([]domain.Account, error)
	// ListWithdrawals returns up to limit withdrawals of one user, newest first.
	ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error)
	// Count returns the number of accounts.
	Count(ctx context.Context) (int64, error)
}

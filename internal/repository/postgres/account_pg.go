// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/repository"
	"clicker-ledger/internal/util"
	"clicker-ledger/pkg/db"
)

const accountColumns = `user_id, first_name, username, balance, clicks, created_at, seq`

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    seq        BIGSERIAL UNIQUE,
    user_id    TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    username   TEXT NOT NULL,
    balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    clicks     BIGINT NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS withdrawals (
    id            UUID PRIMARY KEY,
    user_id       TEXT NOT NULL REFERENCES accounts (user_id),
    amount        BIGINT NOT NULL CHECK (amount > 0),
    balance_after BIGINT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_user_created ON withdrawals (user_id, created_at DESC);
`

// AccountRepository implements repository.AccountRepository for PostgreSQL.
// Every mutation is one conditional UPDATE, so row locking in the database
// provides the per-account atomicity.
type AccountRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: conn, now: time.Now}
}

// EnsureSchema creates the tables used by the repository if they are missing.
func (r *AccountRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// GetOrCreate inserts the account unless the user already exists.
func (r *AccountRepository) GetOrCreate(ctx context.Context, account *domain.Account) (*domain.Account, bool, error) {
	var stored domain.Account
	query := `INSERT INTO accounts (user_id, first_name, username, balance, clicks, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (user_id) DO NOTHING
              RETURNING ` + accountColumns
	err := r.db.GetContext(ctx, &stored, query,
		account.UserID,
		account.FirstName,
		account.Username,
		account.Balance,
		account.Clicks,
		account.CreatedAt,
	)
	if err == nil {
		return &stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create account %s: %w", account.UserID, err)
	}

	existing, err := r.GetByID(ctx, account.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID retrieves an account by user ID.
func (r *AccountRepository) GetByID(ctx context.Context, userID string) (*domain.Account, error) {
	return getAccount(ctx, r.db, userID)
}

func getAccount(ctx context.Context, q repository.DBExecutor, userID string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	if err := q.GetContext(ctx, &account, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", userID, err)
	}
	return &account, nil
}

// ApplyClick adds one click and reward coins to the account.
func (r *AccountRepository) ApplyClick(ctx context.Context, userID string, reward int64) (*domain.Account, error) {
	var account domain.Account
	query := `UPDATE accounts SET clicks = clicks + 1, balance = balance + $1
              WHERE user_id = $2
              RETURNING ` + accountColumns
	if err := r.db.GetContext(ctx, &account, query, reward, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to apply click for %s: %w", userID, err)
	}
	return &account, nil
}

// Withdraw decrements the balance only if it covers amount, and records the
// withdrawal in the same transaction.
func (r *AccountRepository) Withdraw(ctx context.Context, userID string, amount int64) (*domain.Account, *domain.Withdrawal, error) {
	var (
		account    domain.Account
		withdrawal *domain.Withdrawal
	)
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `UPDATE accounts SET balance = balance - $1
                  WHERE user_id = $2 AND balance >= $1
                  RETURNING ` + accountColumns
		if err := tx.GetContext(ctx, &account, query, amount, userID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to update balance for %s: %w", userID, err)
			}
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1)`, userID); err != nil {
				return fmt.Errorf("failed to check account %s: %w", userID, err)
			}
			if !exists {
				return util.ErrNotFound
			}
			return util.ErrInsufficientFunds
		}

		withdrawal = domain.NewWithdrawal(userID, amount, account.Balance, r.now())
		insert := `INSERT INTO withdrawals (id, user_id, amount, balance_after, created_at)
                   VALUES ($1, $2, $3, $4, $5)`
		if _, err := tx.ExecContext(ctx, insert,
			withdrawal.ID,
			withdrawal.UserID,
			withdrawal.Amount,
			withdrawal.BalanceAfter,
			withdrawal.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to record withdrawal for %s: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &account, withdrawal, nil
}

// TopByBalance returns the richest accounts, oldest first among equals.
func (r *AccountRepository) TopByBalance(ctx context.Context, limit int) ([]domain.Account, error) {
	accounts := []domain.Account{}
	if limit <= 0 {
		return accounts, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY balance DESC, seq ASC LIMIT $1`
	if err := r.db.SelectContext(ctx, &accounts, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	return accounts, nil
}

// ListWithdrawals returns the user's withdrawals, newest first.
func (r *AccountRepository) ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	if _, err := r.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	var lim interface{} // NULL means no limit
	if limit > 0 {
		lim = limit
	}
	withdrawals := []domain.Withdrawal{}
	query := `SELECT id, user_id, amount, balance_after, created_at
              FROM withdrawals WHERE user_id = $1
              ORDER BY created_at DESC, id
              LIMIT $2`
	if err := r.db.SelectContext(ctx, &withdrawals, query, userID, lim); err != nil {
		return nil, fmt.Errorf("failed to fetch withdrawals for %s: %w", userID, err)
	}
	return withdrawals, nil
}

// Count returns the number of accounts.
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

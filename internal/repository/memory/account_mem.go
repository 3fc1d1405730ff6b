// internal/repository/memory/account_mem.go
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/repository"
	"clicker-ledger/internal/util"
)

// record is the value held per user. It is replaced wholesale on every
// mutation, so a loaded record is an immutable snapshot.
type record struct {
	account     domain.Account
	withdrawals []domain.Withdrawal
}

// AccountRepository implements repository.AccountRepository in process memory.
// Mutations run inside xsync.Map.Compute, which holds the key's bucket lock
// for the duration of the callback.
type AccountRepository struct {
	records *xsync.Map[string, record]
	seq     atomic.Int64
	now     func() time.Time
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository creates an empty in-memory store.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		records: xsync.NewMap[string, record](),
		now:     time.Now,
	}
}

// GetOrCreate stores account unless the user already has one.
func (r *AccountRepository) GetOrCreate(_ context.Context, account *domain.Account) (*domain.Account, bool, error) {
	var (
		stored  domain.Account
		created bool
	)
	r.records.Compute(account.UserID, func(old record, loaded bool) (record, xsync.ComputeOp) {
		if loaded {
			stored = old.account
			return old, xsync.CancelOp
		}
		stored = *account
		stored.Seq = r.seq.Add(1)
		created = true
		return record{account: stored}, xsync.UpdateOp
	})
	return &stored, created, nil
}

// GetByID returns a snapshot of the user's account.
func (r *AccountRepository) GetByID(_ context.Context, userID string) (*domain.Account, error) {
	rec, ok := r.records.Load(userID)
	if !ok {
		return nil, util.ErrNotFound
	}
	acc := rec.account
	return &acc, nil
}

// ApplyClick adds one click and reward coins in a single step.
func (r *AccountRepository) ApplyClick(_ context.Context, userID string, reward int64) (*domain.Account, error) {
	var (
		updated domain.Account
		found   bool
	)
	r.records.Compute(userID, func(old record, loaded bool) (record, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}
		found = true
		old.account.Clicks++
		old.account.Balance += reward
		updated = old.account
		return old, xsync.UpdateOp
	})
	if !found {
		return nil, util.ErrNotFound
	}
	return &updated, nil
}

// Withdraw takes amount coins and appends the withdrawal to the user's journal.
func (r *AccountRepository) Withdraw(_ context.Context, userID string, amount int64) (*domain.Account, *domain.Withdrawal, error) {
	var (
		updated    domain.Account
		withdrawal *domain.Withdrawal
		err        error
	)
	r.records.Compute(userID, func(old record, loaded bool) (record, xsync.ComputeOp) {
		if !loaded {
			err = util.ErrNotFound
			return old, xsync.CancelOp
		}
		if !old.account.CanWithdraw(amount) {
			err = util.ErrInsufficientFunds
			return old, xsync.CancelOp
		}
		old.account.Balance -= amount
		withdrawal = domain.NewWithdrawal(userID, amount, old.account.Balance, r.now())
		// Clip forces append to copy, leaving earlier snapshots untouched.
		old.withdrawals = append(slices.Clip(old.withdrawals), *withdrawal)
		updated = old.account
		return old, xsync.UpdateOp
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, withdrawal, nil
}

// TopByBalance ranks accounts by balance descending, then by creation order.
func (r *AccountRepository) TopByBalance(_ context.Context, limit int) ([]domain.Account, error) {
	if limit <= 0 {
		return []domain.Account{}, nil
	}

	accounts := make([]domain.Account, 0, r.records.Size())
	r.records.Range(func(_ string, rec record) bool {
		accounts = append(accounts, rec.account)
		return true
	})

	slices.SortFunc(accounts, func(a, b domain.Account) int {
		if c := cmp.Compare(b.Balance, a.Balance); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	if len(accounts) > limit {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// ListWithdrawals returns the user's most recent withdrawals first.
func (r *AccountRepository) ListWithdrawals(_ context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	rec, ok := r.records.Load(userID)
	if !ok {
		return nil, util.ErrNotFound
	}

	n := len(rec.withdrawals)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Withdrawal, 0, n)
	for i := len(rec.withdrawals) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, rec.withdrawals[i])
	}
	return out, nil
}

// Count returns the number of accounts.
func (r *AccountRepository) Count(_ context.Context) (int64, error) {
	return int64(r.records.Size()), nil
}

// internal/repository/memory/account_mem_test.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/util"
)

func newAccount(id string) *domain.Account {
	return domain.NewAccount(id, domain.Profile{}, time.Now())
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	first, created, err := repo.GetOrCreate(ctx, domain.NewAccount("u1", domain.Profile{FirstName: "Ann"}, time.Now()))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Ann", first.FirstName)

	second, created, err := repo.GetOrCreate(ctx, domain.NewAccount("u1", domain.Profile{FirstName: "Bob"}, time.Now()))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Ann", second.FirstName, "profile fields are write-once")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, first.Seq, second.Seq)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetByIDReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	_, _, err := repo.GetOrCreate(ctx, newAccount("u1"))
	require.NoError(t, err)

	snap, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	snap.Balance = 999

	fresh, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, fresh.Balance)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestApplyClick(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	_, err := repo.ApplyClick(ctx, "missing", domain.ClickReward)
	assert.ErrorIs(t, err, util.ErrNotFound)
	count, _ := repo.Count(ctx)
	assert.Zero(t, count, "clicking an unknown user must not create it")

	_, _, err = repo.GetOrCreate(ctx, newAccount("u1"))
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		acc, err := repo.ApplyClick(ctx, "u1", domain.ClickReward)
		require.NoError(t, err)
		assert.Equal(t, int64(i), acc.Clicks)
		assert.Equal(t, int64(i)*domain.ClickReward, acc.Balance)
	}
}

func TestConcurrentClicksAreNotLost(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	_, _, err := repo.GetOrCreate(ctx, newAccount("u1"))
	require.NoError(t, err)
	_, _, err = repo.GetOrCreate(ctx, newAccount("u2"))
	require.NoError(t, err)

	const workers = 500
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = repo.ApplyClick(ctx, "u1", domain.ClickReward)
		}()
		go func() {
			defer wg.Done()
			_, _ = repo.ApplyClick(ctx, "u2", domain.ClickReward)
		}()
	}
	wg.Wait()

	for _, id := range []string{"u1", "u2"} {
		acc, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), acc.Clicks)
		assert.Equal(t, int64(workers)*domain.ClickReward, acc.Balance)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	_, _, err := repo.GetOrCreate(ctx, newAccount("u1"))
	require.NoError(t, err)
	for i := 0; i < 50; i++ { // balance 500
		_, err := repo.ApplyClick(ctx, "u1", domain.ClickReward)
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := repo.Withdraw(ctx, "u1", 100); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	acc, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, succeeded)
	assert.Zero(t, acc.Balance)

	history, err := repo.ListWithdrawals(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	_, _, err := repo.Withdraw(ctx, "missing", 100)
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, _, err = repo.GetOrCreate(ctx, newAccount("u1"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := repo.ApplyClick(ctx, "u1", domain.ClickReward)
		require.NoError(t, err)
	}

	t.Run("InsufficientFunds", func(t *testing.T) {
		acc, w, err := repo.Withdraw(ctx, "u1", 100)
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		assert.Nil(t, acc)
		assert.Nil(t, w)

		current, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(30), current.Balance)
	})

	t.Run("ExactBalance", func(t *testing.T) {
		acc, w, err := repo.Withdraw(ctx, "u1", 30)
		require.NoError(t, err)
		assert.Zero(t, acc.Balance)
		assert.Equal(t, int64(30), w.Amount)
		assert.Zero(t, w.BalanceAfter)
		assert.Equal(t, "u1", w.UserID)
	})
}

func TestListWithdrawalsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	_, _, err := repo.GetOrCreate(ctx, newAccount("u1"))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := repo.ApplyClick(ctx, "u1", domain.ClickReward)
		require.NoError(t, err)
	}

	early, err := repo.ListWithdrawals(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, early)

	for _, amount := range []int64{10, 20, 30} {
		_, _, err := repo.Withdraw(ctx, "u1", amount)
		require.NoError(t, err)
	}

	all, err := repo.ListWithdrawals(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{30, 20, 10}, []int64{all[0].Amount, all[1].Amount, all[2].Amount})

	limited, err := repo.ListWithdrawals(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, int64(30), limited[0].Amount)

	_, err = repo.ListWithdrawals(ctx, "missing", 0)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestTopByBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		repo := NewAccountRepository()
		top, err := repo.TopByBalance(ctx, 10)
		require.NoError(t, err)
		assert.NotNil(t, top)
		assert.Empty(t, top)
	})

	t.Run("OrderedDescending", func(t *testing.T) {
		repo := NewAccountRepository()
		for id, clicks := range map[string]int{"a": 5, "b": 20, "c": 1} {
			_, _, err := repo.GetOrCreate(ctx, newAccount(id))
			require.NoError(t, err)
			for i := 0; i < clicks; i++ {
				_, err := repo.ApplyClick(ctx, id, domain.ClickReward)
				require.NoError(t, err)
			}
		}

		top, err := repo.TopByBalance(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 3)
		assert.Equal(t, []int64{200, 50, 10}, []int64{top[0].Balance, top[1].Balance, top[2].Balance})
	})

	t.Run("TiesKeepCreationOrderAndLimit", func(t *testing.T) {
		repo := NewAccountRepository()
		for i := 0; i < 15; i++ {
			_, _, err := repo.GetOrCreate(ctx, newAccount(fmt.Sprintf("user-%02d", i)))
			require.NoError(t, err)
		}

		top, err := repo.TopByBalance(ctx, 10)
		require.NoError(t, err)
		require.Len(t, top, 10)
		for i, acc := range top {
			assert.Equal(t, fmt.Sprintf("user-%02d", i), acc.UserID)
		}

		again, err := repo.TopByBalance(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, top, again)
	})
}

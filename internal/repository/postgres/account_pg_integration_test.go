//go:build integration

// internal/repository/postgres/account_pg_integration_test.go
package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/util"
	"clicker-ledger/pkg/db"
)

type AccountRepositorySuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	conn      *sqlx.DB
	repo      *AccountRepository
}

func (s *AccountRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("clickerdb"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("password"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.conn, err = db.Open(ctx, dsn)
	s.Require().NoError(err)

	s.repo = NewAccountRepository(s.conn)
	s.Require().NoError(s.repo.EnsureSchema(ctx))
}

func (s *AccountRepositorySuite) TearDownSuite() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *AccountRepositorySuite) SetupTest() {
	_, err := s.conn.Exec(`TRUNCATE withdrawals, accounts RESTART IDENTITY`)
	s.Require().NoError(err)
}

func (s *AccountRepositorySuite) create(userID string) {
	_, created, err := s.repo.GetOrCreate(context.Background(), domain.NewAccount(userID, domain.Profile{}, time.Now()))
	s.Require().NoError(err)
	s.Require().True(created)
}

func (s *AccountRepositorySuite) TestScenario() {
	ctx := context.Background()
	s.create("u1")

	_, created, err := s.repo.GetOrCreate(ctx, domain.NewAccount("u1", domain.Profile{FirstName: "Other"}, time.Now()))
	s.Require().NoError(err)
	s.False(created)

	for i := 0; i < 3; i++ {
		_, err := s.repo.ApplyClick(ctx, "u1", domain.ClickReward)
		s.Require().NoError(err)
	}
	_, _, err = s.repo.Withdraw(ctx, "u1", 100)
	s.True(util.IsError(err, util.ErrInsufficientFunds))

	for i := 0; i < 7; i++ {
		_, err := s.repo.ApplyClick(ctx, "u1", domain.ClickReward)
		s.Require().NoError(err)
	}
	account, withdrawal, err := s.repo.Withdraw(ctx, "u1", 100)
	s.Require().NoError(err)
	s.Equal(int64(0), account.Balance)
	s.Equal(int64(10), account.Clicks)
	s.Equal("User", account.FirstName)
	s.Equal(int64(0), withdrawal.BalanceAfter)

	list, err := s.repo.ListWithdrawals(ctx, "u1", 10)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.repo.ApplyClick(ctx, "ghost", domain.ClickReward)
	s.True(util.IsError(err, util.ErrNotFound))
}

func (s *AccountRepositorySuite) TestConcurrentClicksAndWithdrawals() {
	ctx := context.Background()
	s.create("c1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.repo.ApplyClick(ctx, "c1", domain.ClickReward)
			s.NoError(err)
		}()
	}
	wg.Wait()

	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := s.repo.Withdraw(ctx, "c1", 100); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	account, err := s.repo.GetByID(ctx, "c1")
	s.Require().NoError(err)
	s.Equal(int64(50), account.Clicks)
	s.Equal(5, succeeded)
	s.Equal(int64(0), account.Balance)
}

func (s *AccountRepositorySuite) TestTopByBalance() {
	ctx := context.Background()
	for id, clicks := range map[string]int{"ten": 1, "two-hundred": 20, "fifty": 5} {
		s.create(id)
		for i := 0; i < clicks; i++ {
			_, err := s.repo.ApplyClick(ctx, id, domain.ClickReward)
			s.Require().NoError(err)
		}
	}

	top, err := s.repo.TopByBalance(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal([]int64{200, 50, 10}, []int64{top[0].Balance, top[1].Balance, top[2].Balance})

	count, err := s.repo.Count(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), count)
}

func TestAccountRepositorySuite(t *testing.T) {
	suite.Run(t, new(AccountRepositorySuite))
}

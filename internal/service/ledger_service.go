// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/metrics"
	"clicker-ledger/internal/repository"
	"clicker-ledger/internal/util"
)

// LedgerService defines the balance ledger's operations. It is the only path
// through which adapters read or mutate accounts.
type LedgerService interface {
	FetchOrCreate(ctx context.Context, userID string, profile domain.Profile) (*domain.Account, error)
	RecordClick(ctx context.Context, userID string) (*ClickResult, error)
	Withdraw(ctx context.Context, userID string, amount int64) (*WithdrawResult, error)
	GetStats(ctx context.Context, userID string) (*domain.Account, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.Account, error)
	Withdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error)
}

// ClickResult is the account state right after an accepted click.
type ClickResult struct {
	Clicks  int64
	Balance int64
}

// WithdrawResult describes an accepted withdrawal.
type WithdrawResult struct {
	Amount       int64
	Balance      int64
	WithdrawalID uuid.UUID
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	accounts repository.AccountRepository
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(accounts repository.AccountRepository, m *metrics.Metrics, logger *slog.Logger) LedgerService {
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerService{
		accounts: accounts,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// FetchOrCreate returns the user's account, creating it on first reference.
// Profile fields are only used when the account is created.
func (s *ledgerService) FetchOrCreate(ctx context.Context, userID string, profile domain.Profile) (*domain.Account, error) {
	const op = "fetch_or_create"
	if err := validateUserID(userID); err != nil {
		s.metrics.Observe(op, metrics.ResultInvalidInput)
		return nil, fmt.Errorf("fetch or create: %w", err)
	}

	account, created, err := s.accounts.GetOrCreate(ctx, domain.NewAccount(userID, profile, s.now()))
	if err != nil {
		s.metrics.Observe(op, resultOf(err))
		return nil, fmt.Errorf("fetch or create: failed to load account %s: %w", userID, err)
	}
	if created {
		s.metrics.Accounts.Inc()
		s.logger.Info("Account created", "user_id", userID, "first_name", account.FirstName)
	}
	s.metrics.Observe(op, metrics.ResultOK)
	return account, nil
}

// RecordClick awards the click reward and counts the click.
func (s *ledgerService) RecordClick(ctx context.Context, userID string) (*ClickResult, error) {
	const op = "click"
	if err := validateUserID(userID); err != nil {
		s.metrics.Observe(op, metrics.ResultInvalidInput)
		return nil, fmt.Errorf("record click: %w", err)
	}

	account, err := s.accounts.ApplyClick(ctx, userID, domain.ClickReward)
	if err != nil {
		s.metrics.Observe(op, resultOf(err))
		return nil, fmt.Errorf("record click: user %s: %w", userID, err)
	}

	s.metrics.Observe(op, metrics.ResultOK)
	s.metrics.CoinsAwarded.Add(float64(domain.ClickReward))
	s.logger.Debug("Click recorded", "user_id", userID, "clicks", account.Clicks, "balance", account.Balance)
	return &ClickResult{Clicks: account.Clicks, Balance: account.Balance}, nil
}

// Withdraw takes amount coins from the user's balance. A zero amount means
// domain.DefaultWithdrawAmount. The withdrawal is rejected in full when the
// balance does not cover it.
func (s *ledgerService) Withdraw(ctx context.Context, userID string, amount int64) (*WithdrawResult, error) {
	const op = "withdraw"
	if err := validateUserID(userID); err != nil {
		s.metrics.Observe(op, metrics.ResultInvalidInput)
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	if amount == 0 {
		amount = domain.DefaultWithdrawAmount
	}
	if amount < 0 {
		s.metrics.Observe(op, metrics.ResultInvalidInput)
		return nil, fmt.Errorf("withdraw: %w", util.InvalidInput("amount must be a positive whole number"))
	}

	account, withdrawal, err := s.accounts.Withdraw(ctx, userID, amount)
	if err != nil {
		s.metrics.Observe(op, resultOf(err))
		if util.IsError(err, util.ErrInsufficientFunds) {
			s.logger.Info("Withdrawal rejected", "user_id", userID, "amount", amount, "reason", err)
		}
		return nil, fmt.Errorf("withdraw: user %s: %w", userID, err)
	}

	s.metrics.Observe(op, metrics.ResultOK)
	s.metrics.CoinsWithdrawn.Add(float64(amount))
	s.logger.Info("Withdrawal completed",
		"user_id", userID,
		"amount", amount,
		"balance", account.Balance,
		"withdrawal_id", withdrawal.ID)
	return &WithdrawResult{Amount: amount, Balance: account.Balance, WithdrawalID: withdrawal.ID}, nil
}

// GetStats returns a snapshot of the user's account.
func (s *ledgerService) GetStats(ctx context.Context, userID string) (*domain.Account, error) {
	const op = "stats"
	if err := validateUserID(userID); err != nil {
		s.metrics.Observe(op, metrics.ResultInvalidInput)
		return nil, fmt.Errorf("get stats: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		s.metrics.Observe(op, resultOf(err))
		return nil, fmt.Errorf("get stats: user %s: %w", userID, err)
	}
	s.metrics.Observe(op, metrics.ResultOK)
	return account, nil
}

// Leaderboard returns the top accounts by balance. A non-positive limit
// means domain.DefaultLeaderboardLimit; larger limits are capped.
func (s *ledgerService) Leaderboard(ctx context.Context, limit int) ([]domain.Account, error) {
	const op = "leaderboard"
	limit = normalizeLimit(limit)

	accounts, err := s.accounts.TopByBalance(ctx, limit)
	if err != nil {
		s.metrics.Observe(op, resultOf(err))
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	s.metrics.Observe(op, metrics.ResultOK)
	return accounts, nil
}

// Withdrawals returns the user's withdrawal journal, newest first.
func (s *ledgerService) Withdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	const op = "withdrawals"
	if err := validateUserID(userID); err != nil {
		s.metrics.Observe(op, metrics.ResultInvalidInput)
		return nil, fmt.Errorf("withdrawals: %w", err)
	}

	list, err := s.accounts.ListWithdrawals(ctx, userID, normalizeLimit(limit))
	if err != nil {
		s.metrics.Observe(op, resultOf(err))
		return nil, fmt.Errorf("withdrawals: user %s: %w", userID, err)
	}
	if list == nil {
		list = []domain.Withdrawal{}
	}
	s.metrics.Observe(op, metrics.ResultOK)
	return list, nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return util.InvalidInput("user_id is required")
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultLeaderboardLimit
	}
	if limit > domain.MaxLeaderboardLimit {
		return domain.MaxLeaderboardLimit
	}
	return limit
}

func resultOf(err error) string {
	switch {
	case util.IsError(err, util.ErrInvalidInput):
		return metrics.ResultInvalidInput
	case util.IsError(err, util.ErrNotFound):
		return metrics.ResultNotFound
	case util.IsError(err, util.ErrInsufficientFunds):
		return metrics.ResultInsufficientFunds
	default:
		return metrics.ResultError
	}
}

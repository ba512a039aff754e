// Package wallet implements deposits and withdrawals against the simulated
// balance. Deposits complete synchronously; withdrawals are recorded as
// pending while the balance is debited immediately (an optimistic hold).
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromabet/backend/internal/infra/metrics"
	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

const (
	MinDeposit    = money.Cents(100_00)
	MinWithdrawal = money.Cents(250_00)
)

var (
	ErrDepositBelowMinimum    = errors.New("deposit amount below minimum")
	ErrWithdrawalBelowMinimum = errors.New("withdrawal amount below minimum")
)

type Service struct {
	store   ledger.Store
	metrics *metrics.Metrics
}

func New(store ledger.Store, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		metrics: m,
	}
}

type Result struct {
	Transaction ledger.Transaction `json:"transaction"`
	NewBalance  money.Cents        `json:"newBalance"`
}

// Deposit credits the balance and appends a completed deposit transaction.
// No payment gateway is involved; approval is instant.
func (s *Service) Deposit(ctx context.Context, userID int64, amount money.Cents, method string) (*Result, error) {
	if amount < MinDeposit {
		return nil, ErrDepositBelowMinimum
	}

	var result *Result

	err := s.store.WithUserLock(ctx, userID, func() error {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		txn, err := s.store.CreateTransaction(ctx, ledger.NewTransaction{
			UserID:        userID,
			Kind:          ledger.TxDeposit,
			Amount:        amount,
			Status:        ledger.StatusCompleted,
			PaymentMethod: method,
		})
		if err != nil {
			return fmt.Errorf("record deposit: %w", err)
		}

		user, err = s.store.UpdateUserBalance(ctx, userID, user.Balance+amount)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		result = &Result{Transaction: txn, NewBalance: user.Balance}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deposit: %w", err)
	}

	s.metrics.Deposit()

	return result, nil
}

// Withdraw debits the balance immediately and appends a pending withdrawal
// transaction.
func (s *Service) Withdraw(ctx context.Context, userID int64, amount money.Cents, method string) (*Result, error) {
	if amount < MinWithdrawal {
		return nil, ErrWithdrawalBelowMinimum
	}

	var result *Result

	err := s.store.WithUserLock(ctx, userID, func() error {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		if user.Balance < amount {
			return ledger.ErrInsufficientFunds
		}

		txn, err := s.store.CreateTransaction(ctx, ledger.NewTransaction{
			UserID:        userID,
			Kind:          ledger.TxWithdrawal,
			Amount:        -amount,
			Status:        ledger.StatusPending,
			PaymentMethod: method,
		})
		if err != nil {
			return fmt.Errorf("record withdrawal: %w", err)
		}

		user, err = s.store.UpdateUserBalance(ctx, userID, user.Balance-amount)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		result = &Result{Transaction: txn, NewBalance: user.Balance}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}

	s.metrics.Withdrawal()

	return result, nil
}

func (s *Service) Transactions(ctx context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	txns, err := s.store.TransactionsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return txns, nil
}

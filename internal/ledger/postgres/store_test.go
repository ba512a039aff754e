package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/chromabet/backend/internal/infra/pgtestutil"
	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	return New(db)
}

func TestStore_UserRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetUser(ctx, 1)
	if !errors.Is(err, ledger.ErrUserNotFound) {
		t.Fatalf("empty db: want ErrUserNotFound, got %v", err)
	}

	user, err := s.CreateUser(ctx, ledger.NewUser{Username: "demo_user", Balance: 1250_00})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Balance != 1250_00 {
		t.Fatalf("balance: want 125000, got %d", user.Balance)
	}

	_, err = s.CreateUser(ctx, ledger.NewUser{Username: "demo_user"})
	if !errors.Is(err, ledger.ErrUsernameTaken) {
		t.Fatalf("duplicate username: want ErrUsernameTaken, got %v", err)
	}

	byName, err := s.GetUserByUsername(ctx, "demo_user")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != user.ID {
		t.Fatalf("get by username: want id %d, got %d", user.ID, byName.ID)
	}

	updated, err := s.UpdateUserBalance(ctx, user.ID, 1200_00)
	if err != nil {
		t.Fatalf("update balance: %v", err)
	}
	if updated.Balance != 1200_00 {
		t.Fatalf("updated balance: want 120000, got %d", updated.Balance)
	}
}

func TestStore_RoundNumbering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CurrentRound(ctx)
	if !errors.Is(err, ledger.ErrRoundNotFound) {
		t.Fatalf("empty db: want ErrRoundNotFound, got %v", err)
	}

	first, err := s.CreateRound(ctx, ledger.ColorRed)
	if err != nil {
		t.Fatalf("create round: %v", err)
	}
	if first.RoundNumber != 1001 {
		t.Fatalf("first round number: want 1001, got %d", first.RoundNumber)
	}

	second, err := s.CreateRound(ctx, ledger.ColorBlue)
	if err != nil {
		t.Fatalf("create second round: %v", err)
	}
	if second.RoundNumber != 1002 {
		t.Fatalf("second round number: want 1002, got %d", second.RoundNumber)
	}

	current, err := s.CurrentRound(ctx)
	if err != nil {
		t.Fatalf("current round: %v", err)
	}
	if current.ID != second.ID {
		t.Fatalf("current round: want id %d, got %d", second.ID, current.ID)
	}

	rounds, err := s.RecentRounds(ctx, 10)
	if err != nil {
		t.Fatalf("recent rounds: %v", err)
	}
	if len(rounds) != 2 || rounds[0].ID != second.ID {
		t.Fatalf("recent rounds mismatch: %+v", rounds)
	}
}

func TestStore_SettleBetOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, ledger.NewUser{Username: "demo_user", Balance: 1000_00})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	round, err := s.CreateRound(ctx, ledger.ColorGreen)
	if err != nil {
		t.Fatalf("create round: %v", err)
	}

	bet, err := s.CreateBet(ctx, ledger.NewBet{
		UserID:     user.ID,
		RoundID:    round.ID,
		Prediction: ledger.ColorGreen,
		Amount:     50_00,
	})
	if err != nil {
		t.Fatalf("create bet: %v", err)
	}
	if bet.Settled {
		t.Fatalf("new bet should be unsettled: %+v", bet)
	}

	settled, err := s.SettleBet(ctx, bet.ID, true, 125_00)
	if err != nil {
		t.Fatalf("settle bet: %v", err)
	}
	if !settled.Settled || !settled.Won || settled.Payout != 125_00 {
		t.Fatalf("settled bet mismatch: %+v", settled)
	}

	_, err = s.SettleBet(ctx, bet.ID, false, 0)
	if !errors.Is(err, ledger.ErrBetAlreadySettled) {
		t.Fatalf("second settle: want ErrBetAlreadySettled, got %v", err)
	}

	_, err = s.SettleBet(ctx, 999, true, 0)
	if !errors.Is(err, ledger.ErrBetNotFound) {
		t.Fatalf("missing bet: want ErrBetNotFound, got %v", err)
	}

	byUser, err := s.BetsByUser(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("bets by user: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != bet.ID {
		t.Fatalf("bets by user mismatch: %+v", byUser)
	}

	byRound, err := s.BetsByRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("bets by round: %v", err)
	}
	if len(byRound) != 1 {
		t.Fatalf("bets by round: want 1, got %d", len(byRound))
	}
}

func TestStore_Transactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, ledger.NewUser{Username: "demo_user"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	deposit, err := s.CreateTransaction(ctx, ledger.NewTransaction{
		UserID: user.ID,
		Kind:   ledger.TxDeposit,
		Amount: 100_00,
		Status: ledger.StatusCompleted,
	})
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if deposit.Reference == "" {
		t.Fatal("reference should be assigned")
	}

	withdrawal, err := s.CreateTransaction(ctx, ledger.NewTransaction{
		UserID:        user.ID,
		Kind:          ledger.TxWithdrawal,
		Amount:        -250_00,
		PaymentMethod: "bank",
	})
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if withdrawal.Status != ledger.StatusPending {
		t.Fatalf("default status: want pending, got %s", withdrawal.Status)
	}

	updated, err := s.UpdateTransactionStatus(ctx, withdrawal.ID, ledger.StatusCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != ledger.StatusCompleted {
		t.Fatalf("updated status: want completed, got %s", updated.Status)
	}

	txns, err := s.TransactionsByUser(ctx, user.ID, 20)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("transactions: want 2, got %d", len(txns))
	}
	if txns[0].ID != withdrawal.ID || txns[1].ID != deposit.ID {
		t.Fatalf("transactions not newest first: %+v", txns)
	}
}

func TestStore_UserStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, ledger.NewUser{Username: "demo_user"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	stats, err := s.UserStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("stats on empty: %v", err)
	}
	if stats.GamesPlayed != 0 || stats.WinRate != 0 || stats.TotalWinnings != 0 {
		t.Fatalf("empty stats mismatch: %+v", stats)
	}

	round, err := s.CreateRound(ctx, ledger.ColorRed)
	if err != nil {
		t.Fatalf("create round: %v", err)
	}

	for i, won := range []bool{true, false, false} {
		bet, err := s.CreateBet(ctx, ledger.NewBet{
			UserID:     user.ID,
			RoundID:    round.ID,
			Prediction: ledger.ColorRed,
			Amount:     50_00,
		})
		if err != nil {
			t.Fatalf("create bet %d: %v", i, err)
		}

		var payout money.Cents
		if won {
			payout = 125_00
		}

		if _, err := s.SettleBet(ctx, bet.ID, won, payout); err != nil {
			t.Fatalf("settle bet %d: %v", i, err)
		}
	}

	stats, err = s.UserStats(ctx, user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.GamesPlayed != 3 || stats.WinRate != 33 || stats.TotalWinnings != 125_00 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
}

func TestStore_WithUserLockSerializes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, ledger.NewUser{Username: "demo_user", Balance: 0})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	const workers = 4
	const increments = 10

	done := make(chan error, workers)

	for w := 0; w < workers; w++ {
		go func() {
			for n := 0; n < increments; n++ {
				err := s.WithUserLock(ctx, user.ID, func() error {
					u, err := s.GetUser(ctx, user.ID)
					if err != nil {
						return err
					}

					_, err = s.UpdateUserBalance(ctx, user.ID, u.Balance+1)

					return err
				})
				if err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}

	for w := 0; w < workers; w++ {
		if err := <-done; err != nil {
			t.Fatalf("worker: %v", err)
		}
	}

	final, err := s.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if final.Balance != workers*increments {
		t.Fatalf("lost update: want %d, got %d", workers*increments, final.Balance)
	}
}

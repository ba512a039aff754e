// Package game owns the round lifecycle and the bet settlement engine.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/chromabet/backend/internal/infra/metrics"
	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

// MinBet is the smallest accepted stake.
const MinBet = money.Cents(10_00)

// Winning bets pay out 2.5x the stake.
const (
	payoutNum = 5
	payoutDen = 2
)

var ErrBetBelowMinimum = errors.New("bet amount below minimum")

// OutcomeSource draws the outcome color for a new round. The default source
// is not a fairness guarantee; a seeded or verifiable generator can be
// plugged in here.
type OutcomeSource interface {
	Draw() ledger.Color
}

type randSource struct{}

func (randSource) Draw() ledger.Color {
	return ledger.AllColors[rand.Intn(len(ledger.AllColors))]
}

// NewRandomSource returns the default uniform outcome source.
func NewRandomSource() OutcomeSource {
	return randSource{}
}

type Service struct {
	store    ledger.Store
	outcomes OutcomeSource
	metrics  *metrics.Metrics
}

func New(store ledger.Store, outcomes OutcomeSource, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		outcomes: outcomes,
		metrics:  m,
	}
}

// CurrentRound returns the round with the highest round number, creating
// one with a fresh outcome when the store has none.
func (s *Service) CurrentRound(ctx context.Context) (ledger.Round, error) {
	round, err := s.store.CurrentRound(ctx)
	if err == nil {
		return round, nil
	}

	if !errors.Is(err, ledger.ErrRoundNotFound) {
		return ledger.Round{}, fmt.Errorf("current round: %w", err)
	}

	round, err = s.store.CreateRound(ctx, s.outcomes.Draw())
	if err != nil {
		return ledger.Round{}, fmt.Errorf("create round: %w", err)
	}

	return round, nil
}

func (s *Service) RecentRounds(ctx context.Context, limit int) ([]ledger.Round, error) {
	rounds, err := s.store.RecentRounds(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent rounds: %w", err)
	}

	return rounds, nil
}

type PlaceBetResult struct {
	Bet        ledger.Bet   `json:"bet"`
	Round      ledger.Round `json:"round"`
	NewBalance money.Cents  `json:"newBalance"`
}

// PlaceBet runs the full settlement flow:
//
// 1) Look up the user.
// 2) Re-validate the stake minimum and the balance.
// 3) Get or create the current round.
// 4) Create the pending bet.
// 5) Debit the stake and append the completed stake transaction.
// 6) Resolve the outcome and settle the bet exactly once.
// 7) On a win, credit the payout and append the payout transaction.
//
// Everything runs under the user's lock so no other settlement or wallet
// operation can interleave with the read-modify-write balance sequence.
// All validation happens before the first mutation; a rejected bet leaves
// no trace.
func (s *Service) PlaceBet(ctx context.Context, userID int64, prediction ledger.Color, stake money.Cents) (*PlaceBetResult, error) {
	if stake < MinBet {
		return nil, ErrBetBelowMinimum
	}

	var result *PlaceBetResult

	err := s.store.WithUserLock(ctx, userID, func() error {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		if user.Balance < stake {
			return ledger.ErrInsufficientFunds
		}

		round, err := s.CurrentRound(ctx)
		if err != nil {
			return err
		}

		bet, err := s.store.CreateBet(ctx, ledger.NewBet{
			UserID:     userID,
			RoundID:    round.ID,
			Prediction: prediction,
			Amount:     stake,
		})
		if err != nil {
			return fmt.Errorf("create bet: %w", err)
		}

		// Debit the stake before resolving, so the balance reflects the
		// stake removal even on a loss.
		balance := user.Balance - stake

		_, err = s.store.UpdateUserBalance(ctx, userID, balance)
		if err != nil {
			return fmt.Errorf("debit stake: %w", err)
		}

		_, err = s.store.CreateTransaction(ctx, ledger.NewTransaction{
			UserID: userID,
			Kind:   ledger.TxBet,
			Amount: -stake,
			Status: ledger.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("record stake: %w", err)
		}

		won := prediction == round.Result

		var payout money.Cents
		if won {
			payout = stake.MulRatio(payoutNum, payoutDen)
		}

		bet, err = s.store.SettleBet(ctx, bet.ID, won, payout)
		if err != nil {
			return fmt.Errorf("settle bet: %w", err)
		}

		if won {
			// Strictly additive on top of the post-debit balance; never
			// re-read, so a concurrent settlement cannot race the credit.
			balance += payout

			_, err = s.store.UpdateUserBalance(ctx, userID, balance)
			if err != nil {
				return fmt.Errorf("credit payout: %w", err)
			}

			_, err = s.store.CreateTransaction(ctx, ledger.NewTransaction{
				UserID: userID,
				Kind:   ledger.TxPayout,
				Amount: payout,
				Status: ledger.StatusCompleted,
			})
			if err != nil {
				return fmt.Errorf("record payout: %w", err)
			}
		}

		result = &PlaceBetResult{
			Bet:        bet,
			Round:      round,
			NewBalance: balance,
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("place bet: %w", err)
	}

	s.metrics.BetPlaced(stake)
	if result.Bet.Won {
		s.metrics.BetWon(result.Bet.Payout)
	}

	return result, nil
}

// HistoryEntry is a bet joined with its round.
type HistoryEntry struct {
	ledger.Bet
	Round ledger.Round `json:"round"`
}

func (s *Service) BetHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	bets, err := s.store.BetsByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("bet history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(bets))

	for _, bet := range bets {
		round, err := s.store.GetRound(ctx, bet.RoundID)
		if err != nil {
			return nil, fmt.Errorf("round for bet %d: %w", bet.ID, err)
		}

		entries = append(entries, HistoryEntry{Bet: bet, Round: round})
	}

	return entries, nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (ledger.Stats, error) {
	stats, err := s.store.UserStats(ctx, userID)
	if err != nil {
		return ledger.Stats{}, fmt.Errorf("user stats: %w", err)
	}

	return stats, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

const betColumns = `id, user_id, round_id, prediction, amount, payout, won, settled, created_at`

func scanBet(row interface{ Scan(...any) error }) (ledger.Bet, error) {
	var bet ledger.Bet

	err := row.Scan(
		&bet.ID, &bet.UserID, &bet.RoundID, &bet.Prediction,
		&bet.Amount, &bet.Payout, &bet.Won, &bet.Settled, &bet.CreatedAt,
	)
	if err != nil {
		return ledger.Bet{}, err
	}

	return bet, nil
}

func (s *Store) CreateBet(ctx context.Context, nb ledger.NewBet) (ledger.Bet, error) {
	bet, err := scanBet(s.db.QueryRowContext(ctx, `
		INSERT INTO bets (user_id, round_id, prediction, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING `+betColumns+`
	`, nb.UserID, nb.RoundID, nb.Prediction, nb.Amount))
	if err != nil {
		return ledger.Bet{}, fmt.Errorf("create bet: %w", err)
	}

	return bet, nil
}

// SettleBet fixes won and payout. The settled guard in the WHERE clause
// makes the transition one-shot.
func (s *Store) SettleBet(ctx context.Context, id int64, won bool, payout money.Cents) (ledger.Bet, error) {
	bet, err := scanBet(s.db.QueryRowContext(ctx, `
		UPDATE bets
		SET won = $2, payout = $3, settled = TRUE
		WHERE id = $1
		  AND NOT settled
		RETURNING `+betColumns+`
	`, id, won, payout))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either missing or already settled; disambiguate.
			var exists bool

			checkErr := s.db.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM bets WHERE id = $1)
			`, id).Scan(&exists)
			if checkErr != nil {
				return ledger.Bet{}, fmt.Errorf("settle bet: %w", checkErr)
			}

			if exists {
				return ledger.Bet{}, ledger.ErrBetAlreadySettled
			}

			return ledger.Bet{}, ledger.ErrBetNotFound
		}

		return ledger.Bet{}, fmt.Errorf("settle bet: %w", err)
	}

	return bet, nil
}

func (s *Store) BetsByUser(ctx context.Context, userID int64, limit int) ([]ledger.Bet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("bets by user: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	return collectBets(rows)
}

func (s *Store) BetsByRound(ctx context.Context, roundID int64) ([]ledger.Bet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+betColumns+`
		FROM bets
		WHERE round_id = $1
		ORDER BY id DESC
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("bets by round: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	return collectBets(rows)
}

func collectBets(rows *sql.Rows) ([]ledger.Bet, error) {
	bets := make([]ledger.Bet, 0)

	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}

		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bets: %w", err)
	}

	return bets, nil
}

func (s *Store) UserStats(ctx context.Context, userID int64) (ledger.Stats, error) {
	var (
		played, wins int
		winnings     money.Cents
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE won),
		       COALESCE(SUM(payout) FILTER (WHERE won), 0)
		FROM bets
		WHERE user_id = $1
	`, userID).Scan(&played, &wins, &winnings)
	if err != nil {
		return ledger.Stats{}, fmt.Errorf("user stats: %w", err)
	}

	return ledger.Stats{
		GamesPlayed:   played,
		WinRate:       ledger.WinRate(played, wins),
		TotalWinnings: winnings,
	}, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chromabet/backend/internal/ledger"
)

const roundColumns = `id, round_number, result, created_at`

// Round numbers start above this seed; the first round is 1001.
const roundNumberSeed = 1000

func scanRound(row interface{ Scan(...any) error }) (ledger.Round, error) {
	var round ledger.Round

	err := row.Scan(&round.ID, &round.RoundNumber, &round.Result, &round.CreatedAt)
	if err != nil {
		return ledger.Round{}, err
	}

	return round, nil
}

func (s *Store) CurrentRound(ctx context.Context) (ledger.Round, error) {
	round, err := scanRound(s.db.QueryRowContext(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		ORDER BY round_number DESC
		LIMIT 1
	`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Round{}, ledger.ErrRoundNotFound
		}

		return ledger.Round{}, fmt.Errorf("current round: %w", err)
	}

	return round, nil
}

func (s *Store) CreateRound(ctx context.Context, result ledger.Color) (ledger.Round, error) {
	// round_number is computed in the insert; the unique constraint rejects
	// the loser of a concurrent allocation, which we retry.
	const attempts = 3

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		round, err := scanRound(s.db.QueryRowContext(ctx, `
			INSERT INTO rounds (round_number, result)
			VALUES ((SELECT COALESCE(MAX(round_number), $2) + 1 FROM rounds), $1)
			RETURNING `+roundColumns+`
		`, result, roundNumberSeed))
		if err == nil {
			return round, nil
		}

		if !isUniqueViolation(err) {
			return ledger.Round{}, fmt.Errorf("create round: %w", err)
		}

		lastErr = err
	}

	return ledger.Round{}, fmt.Errorf("create round: allocation contention: %w", lastErr)
}

func (s *Store) GetRound(ctx context.Context, id int64) (ledger.Round, error) {
	round, err := scanRound(s.db.QueryRowContext(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Round{}, ledger.ErrRoundNotFound
		}

		return ledger.Round{}, fmt.Errorf("get round: %w", err)
	}

	return round, nil
}

func (s *Store) RecentRounds(ctx context.Context, limit int) ([]ledger.Round, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+roundColumns+`
		FROM rounds
		ORDER BY round_number DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent rounds: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	rounds := make([]ledger.Round, 0, limit)

	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}

		rounds = append(rounds, round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rounds: %w", err)
	}

	return rounds, nil
}

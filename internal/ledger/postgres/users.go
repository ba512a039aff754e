package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

const userColumns = `id, username, balance, terms_accepted, terms_accepted_at, created_at`

func scanUser(row interface{ Scan(...any) error }) (ledger.User, error) {
	var (
		user       ledger.User
		acceptedAt sql.NullTime
	)

	err := row.Scan(&user.ID, &user.Username, &user.Balance, &user.TermsAccepted, &acceptedAt, &user.CreatedAt)
	if err != nil {
		return ledger.User{}, err
	}

	if acceptedAt.Valid {
		at := acceptedAt.Time
		user.TermsAcceptedAt = &at
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (ledger.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.User{}, ledger.ErrUserNotFound
		}

		return ledger.User{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (ledger.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1
	`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.User{}, ledger.ErrUserNotFound
		}

		return ledger.User{}, fmt.Errorf("get user by username: %w", err)
	}

	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, nu ledger.NewUser) (ledger.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, balance, terms_accepted, terms_accepted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns+`
	`, nu.Username, nu.Balance, nu.TermsAccepted, nullTime(nu.TermsAcceptedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.User{}, ledger.ErrUsernameTaken
		}

		return ledger.User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *Store) UpdateUserBalance(ctx context.Context, id int64, balance money.Cents) (ledger.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users
		SET balance = $2
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, balance))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.User{}, ledger.ErrUserNotFound
		}

		return ledger.User{}, fmt.Errorf("update balance: %w", err)
	}

	return user, nil
}

func (s *Store) AcceptTerms(ctx context.Context, id int64, at time.Time) (ledger.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users
		SET terms_accepted = TRUE, terms_accepted_at = $2
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.User{}, ledger.ErrUserNotFound
		}

		return ledger.User{}, fmt.Errorf("accept terms: %w", err)
	}

	return user, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

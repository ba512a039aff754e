package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chromabet/backend/internal/ledger"
)

const txColumns = `id, reference, user_id, kind, amount, status, payment_method, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (ledger.Transaction, error) {
	var (
		txn    ledger.Transaction
		method sql.NullString
	)

	err := row.Scan(
		&txn.ID, &txn.Reference, &txn.UserID, &txn.Kind,
		&txn.Amount, &txn.Status, &method, &txn.CreatedAt,
	)
	if err != nil {
		return ledger.Transaction{}, err
	}

	txn.PaymentMethod = method.String

	return txn, nil
}

func (s *Store) CreateTransaction(ctx context.Context, nt ledger.NewTransaction) (ledger.Transaction, error) {
	status := nt.Status
	if status == "" {
		status = ledger.StatusPending
	}

	var method sql.NullString
	if nt.PaymentMethod != "" {
		method = sql.NullString{String: nt.PaymentMethod, Valid: true}
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, `
		INSERT INTO transactions (reference, user_id, kind, amount, status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+txColumns+`
	`, uuid.New().String(), nt.UserID, nt.Kind, nt.Amount, status, method))
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	return txn, nil
}

func (s *Store) TransactionsByUser(ctx context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+txColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("transactions by user: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	txns := make([]ledger.Transaction, 0, limit)

	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id int64, status ledger.TransactionStatus) (ledger.Transaction, error) {
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, `
		UPDATE transactions
		SET status = $2
		WHERE id = $1
		RETURNING `+txColumns+`
	`, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Transaction{}, ledger.ErrTransactionNotFound
		}

		return ledger.Transaction{}, fmt.Errorf("update transaction status: %w", err)
	}

	return txn, nil
}

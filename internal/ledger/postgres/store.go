// Package postgres is the optional durable ledger backend. It implements
// the same Store contract as the memory backend on top of database/sql
// with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chromabet/backend/internal/ledger"
)

type Store struct {
	db *sql.DB
}

var _ ledger.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithUserLock takes a session advisory lock keyed by the user id on a
// dedicated connection, so the multi-statement settlement sequence is
// serialized per user across all processes sharing the database.
func (s *Store) WithUserLock(ctx context.Context, userID int64, fn func() error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	//nolint:errcheck
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, userID)
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}

	defer func() {
		// Unlock even if ctx is already canceled.
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, userID)
	}()

	return fn()
}

// Package account manages the single demo identity the app runs with.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

type Service struct {
	store    ledger.Store
	username string
}

func New(store ledger.Store, username string) *Service {
	return &Service{
		store:    store,
		username: username,
	}
}

// Demo returns the demo user.
func (s *Service) Demo(ctx context.Context) (ledger.User, error) {
	user, err := s.store.GetUserByUsername(ctx, s.username)
	if err != nil {
		return ledger.User{}, fmt.Errorf("demo user: %w", err)
	}

	return user, nil
}

// Ensure creates the demo user with the given starting balance if it does
// not exist yet. Terms are pre-accepted, matching the seeded demo identity.
func (s *Service) Ensure(ctx context.Context, balance money.Cents) (ledger.User, error) {
	user, err := s.store.GetUserByUsername(ctx, s.username)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, ledger.ErrUserNotFound) {
		return ledger.User{}, fmt.Errorf("lookup demo user: %w", err)
	}

	now := time.Now().UTC()

	user, err = s.store.CreateUser(ctx, ledger.NewUser{
		Username:        s.username,
		Balance:         balance,
		TermsAccepted:   true,
		TermsAcceptedAt: &now,
	})
	if err != nil {
		return ledger.User{}, fmt.Errorf("create demo user: %w", err)
	}

	return user, nil
}

// AcceptTerms marks the demo user's terms as accepted now.
func (s *Service) AcceptTerms(ctx context.Context) (ledger.User, error) {
	user, err := s.Demo(ctx)
	if err != nil {
		return ledger.User{}, err
	}

	user, err = s.store.AcceptTerms(ctx, user.ID, time.Now().UTC())
	if err != nil {
		return ledger.User{}, fmt.Errorf("accept terms: %w", err)
	}

	return user, nil
}

// Package memory is the default ledger backend: plain maps guarded by a
// mutex, per-entity monotonic id counters, no persistence beyond the
// process lifetime.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
)

// Round numbers are seeded above 1000 so they read like draw numbers
// rather than row ids.
const roundNumberSeed = 1000

type Store struct {
	mu sync.RWMutex

	users        map[int64]ledger.User
	usersByName  map[string]int64
	rounds       map[int64]ledger.Round
	bets         map[int64]ledger.Bet
	transactions map[int64]ledger.Transaction

	nextUserID  int64
	nextRoundID int64
	nextBetID   int64
	nextTxID    int64

	// Current-round pointer, maintained on round creation instead of
	// rescanning and sorting per lookup.
	currentRoundID  int64
	lastRoundNumber int64

	lockMu    sync.Mutex
	userLocks map[int64]*sync.Mutex
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:           make(map[int64]ledger.User),
		usersByName:     make(map[string]int64),
		rounds:          make(map[int64]ledger.Round),
		bets:            make(map[int64]ledger.Bet),
		transactions:    make(map[int64]ledger.Transaction),
		lastRoundNumber: roundNumberSeed,
		userLocks:       make(map[int64]*sync.Mutex),
	}
}

// --- Users ---

func (s *Store) GetUser(_ context.Context, id int64) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[username]
	if !ok {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	return s.users[id], nil
}

func (s *Store) CreateUser(_ context.Context, nu ledger.NewUser) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByName[nu.Username]; ok {
		return ledger.User{}, ledger.ErrUsernameTaken
	}

	s.nextUserID++
	user := ledger.User{
		ID:              s.nextUserID,
		Username:        nu.Username,
		Balance:         nu.Balance,
		TermsAccepted:   nu.TermsAccepted,
		TermsAcceptedAt: nu.TermsAcceptedAt,
		CreatedAt:       time.Now().UTC(),
	}

	s.users[user.ID] = user
	s.usersByName[user.Username] = user.ID

	return user, nil
}

func (s *Store) UpdateUserBalance(_ context.Context, id int64, balance money.Cents) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	user.Balance = balance
	s.users[id] = user

	return user, nil
}

func (s *Store) AcceptTerms(_ context.Context, id int64, at time.Time) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	user.TermsAccepted = true
	user.TermsAcceptedAt = &at
	s.users[id] = user

	return user, nil
}

// --- Rounds ---

func (s *Store) CurrentRound(_ context.Context) (ledger.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.currentRoundID == 0 {
		return ledger.Round{}, ledger.ErrRoundNotFound
	}

	return s.rounds[s.currentRoundID], nil
}

func (s *Store) CreateRound(_ context.Context, result ledger.Color) (ledger.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoundID++
	s.lastRoundNumber++

	round := ledger.Round{
		ID:          s.nextRoundID,
		RoundNumber: s.lastRoundNumber,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}

	s.rounds[round.ID] = round
	s.currentRoundID = round.ID

	return round, nil
}

func (s *Store) GetRound(_ context.Context, id int64) (ledger.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[id]
	if !ok {
		return ledger.Round{}, ledger.ErrRoundNotFound
	}

	return round, nil
}

func (s *Store) RecentRounds(_ context.Context, limit int) ([]ledger.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := make([]ledger.Round, 0, len(s.rounds))
	for _, r := range s.rounds {
		rounds = append(rounds, r)
	}

	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].RoundNumber > rounds[j].RoundNumber
	})

	if limit > 0 && len(rounds) > limit {
		rounds = rounds[:limit]
	}

	return rounds, nil
}

// --- Bets ---

func (s *Store) CreateBet(_ context.Context, nb ledger.NewBet) (ledger.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[nb.UserID]; !ok {
		return ledger.Bet{}, ledger.ErrUserNotFound
	}
	if _, ok := s.rounds[nb.RoundID]; !ok {
		return ledger.Bet{}, ledger.ErrRoundNotFound
	}

	s.nextBetID++
	bet := ledger.Bet{
		ID:         s.nextBetID,
		UserID:     nb.UserID,
		RoundID:    nb.RoundID,
		Prediction: nb.Prediction,
		Amount:     nb.Amount,
		CreatedAt:  time.Now().UTC(),
	}

	s.bets[bet.ID] = bet

	return bet, nil
}

func (s *Store) SettleBet(_ context.Context, id int64, won bool, payout money.Cents) (ledger.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bet, ok := s.bets[id]
	if !ok {
		return ledger.Bet{}, ledger.ErrBetNotFound
	}
	if bet.Settled {
		return ledger.Bet{}, ledger.ErrBetAlreadySettled
	}

	bet.Won = won
	bet.Payout = payout
	bet.Settled = true
	s.bets[id] = bet

	return bet, nil
}

func (s *Store) BetsByUser(_ context.Context, userID int64, limit int) ([]ledger.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bets := make([]ledger.Bet, 0)
	for _, b := range s.bets {
		if b.UserID == userID {
			bets = append(bets, b)
		}
	}

	// Ids are allocated in creation order, so id desc == newest first.
	sort.Slice(bets, func(i, j int) bool { return bets[i].ID > bets[j].ID })

	if limit > 0 && len(bets) > limit {
		bets = bets[:limit]
	}

	return bets, nil
}

func (s *Store) BetsByRound(_ context.Context, roundID int64) ([]ledger.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bets := make([]ledger.Bet, 0)
	for _, b := range s.bets {
		if b.RoundID == roundID {
			bets = append(bets, b)
		}
	}

	sort.Slice(bets, func(i, j int) bool { return bets[i].ID > bets[j].ID })

	return bets, nil
}

// --- Transactions ---

func (s *Store) CreateTransaction(_ context.Context, nt ledger.NewTransaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[nt.UserID]; !ok {
		return ledger.Transaction{}, ledger.ErrUserNotFound
	}

	status := nt.Status
	if status == "" {
		status = ledger.StatusPending
	}

	s.nextTxID++
	txn := ledger.Transaction{
		ID:            s.nextTxID,
		Reference:     uuid.New().String(),
		UserID:        nt.UserID,
		Kind:          nt.Kind,
		Amount:        nt.Amount,
		Status:        status,
		PaymentMethod: nt.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	}

	s.transactions[txn.ID] = txn

	return txn, nil
}

func (s *Store) TransactionsByUser(_ context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns := make([]ledger.Transaction, 0)
	for _, t := range s.transactions {
		if t.UserID == userID {
			txns = append(txns, t)
		}
	}

	sort.Slice(txns, func(i, j int) bool { return txns[i].ID > txns[j].ID })

	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}

	return txns, nil
}

func (s *Store) UpdateTransactionStatus(_ context.Context, id int64, status ledger.TransactionStatus) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, ledger.ErrTransactionNotFound
	}

	txn.Status = status
	s.transactions[id] = txn

	return txn, nil
}

// --- Stats ---

func (s *Store) UserStats(_ context.Context, userID int64) (ledger.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var played, wins int
	var winnings money.Cents

	for _, b := range s.bets {
		if b.UserID != userID {
			continue
		}

		played++
		if b.Won {
			wins++
			winnings += b.Payout
		}
	}

	return ledger.Stats{
		GamesPlayed:   played,
		WinRate:       ledger.WinRate(played, wins),
		TotalWinnings: winnings,
	}, nil
}

// --- Locking ---

// WithUserLock serializes balance mutation per user. The store mutex only
// guards individual operations; multi-step settlement needs this.
func (s *Store) WithUserLock(_ context.Context, userID int64, fn func() error) error {
	mu := s.userLock(userID)

	mu.Lock()
	defer mu.Unlock()

	return fn()
}

// userLock returns the mutex for a user, creating it on first use. Entries
// are never pruned; the map is bounded by the user population, which is a
// single demo user here.
func (s *Store) userLock(userID int64) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	mu, ok := s.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userLocks[userID] = mu
	}

	return mu
}

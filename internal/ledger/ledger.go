// Package ledger defines the domain model of the color-prediction game and
// the Store interface every storage backend implements.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chromabet/backend/internal/money"
)

// Color is a round outcome or bet prediction.
type Color string

const (
	ColorRed   Color = "red"
	ColorGreen Color = "green"
	ColorBlue  Color = "blue"
)

// AllColors is the fixed outcome set, in draw order.
var AllColors = []Color{ColorRed, ColorGreen, ColorBlue}

// ParseColor validates a wire-format color string.
func ParseColor(s string) (Color, error) {
	switch Color(s) {
	case ColorRed, ColorGreen, ColorBlue:
		return Color(s), nil
	default:
		return "", fmt.Errorf("invalid color %q", s)
	}
}

// TransactionKind classifies ledger entries.
type TransactionKind string

const (
	TxDeposit    TransactionKind = "deposit"
	TxWithdrawal TransactionKind = "withdrawal"
	TxBet        TransactionKind = "bet"
	TxPayout     TransactionKind = "payout"
)

// TransactionStatus tracks settlement state. Only withdrawals ever sit in
// pending; everything else completes synchronously.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

type User struct {
	ID              int64       `json:"id"`
	Username        string      `json:"username"`
	Balance         money.Cents `json:"balance"`
	TermsAccepted   bool        `json:"termsAccepted"`
	TermsAcceptedAt *time.Time  `json:"termsAcceptedAt"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Round is immutable once created; the outcome is fixed at creation time.
type Round struct {
	ID          int64     `json:"id"`
	RoundNumber int64     `json:"roundNumber"`
	Result      Color     `json:"result"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Bet transitions from pending to settled exactly once.
type Bet struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"userId"`
	RoundID    int64       `json:"roundId"`
	Prediction Color       `json:"prediction"`
	Amount     money.Cents `json:"amount"`
	Payout     money.Cents `json:"payout"`
	Won        bool        `json:"won"`
	Settled    bool        `json:"settled"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Transaction rows are append-only; only withdrawal statuses ever change.
// Amount is signed: negative for stakes and withdrawals, positive for
// deposits and payouts.
type Transaction struct {
	ID            int64             `json:"id"`
	Reference     string            `json:"reference"`
	UserID        int64             `json:"userId"`
	Kind          TransactionKind   `json:"type"`
	Amount        money.Cents       `json:"amount"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type Stats struct {
	GamesPlayed   int         `json:"gamesPlayed"`
	WinRate       int         `json:"winRate"`
	TotalWinnings money.Cents `json:"totalWinnings"`
}

type NewUser struct {
	Username        string
	Balance         money.Cents
	TermsAccepted   bool
	TermsAcceptedAt *time.Time
}

type NewBet struct {
	UserID     int64
	RoundID    int64
	Prediction Color
	Amount     money.Cents
}

type NewTransaction struct {
	UserID        int64
	Kind          TransactionKind
	Amount        money.Cents
	Status        TransactionStatus
	PaymentMethod string
}

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrRoundNotFound       = errors.New("round not found")
	ErrBetNotFound         = errors.New("bet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrBetAlreadySettled   = errors.New("bet already settled")
)

// WinRate returns the rounded percentage of won bets, 0 when no bets exist.
func WinRate(gamesPlayed, wins int) int {
	if gamesPlayed == 0 {
		return 0
	}

	return int(math.Round(float64(wins) / float64(gamesPlayed) * 100))
}

// Store is the ledger persistence contract. All listings are newest first.
type Store interface {
	// Users
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, nu NewUser) (User, error)
	UpdateUserBalance(ctx context.Context, id int64, balance money.Cents) (User, error)
	AcceptTerms(ctx context.Context, id int64, at time.Time) (User, error)

	// Rounds. CurrentRound is the round with the highest round number;
	// ErrRoundNotFound when no round exists yet. CreateRound assigns the
	// next strictly increasing round number.
	CurrentRound(ctx context.Context) (Round, error)
	CreateRound(ctx context.Context, result Color) (Round, error)
	GetRound(ctx context.Context, id int64) (Round, error)
	RecentRounds(ctx context.Context, limit int) ([]Round, error)

	// Bets. SettleBet fixes won and payout exactly once; a second call
	// returns ErrBetAlreadySettled.
	CreateBet(ctx context.Context, nb NewBet) (Bet, error)
	SettleBet(ctx context.Context, id int64, won bool, payout money.Cents) (Bet, error)
	BetsByUser(ctx context.Context, userID int64, limit int) ([]Bet, error)
	BetsByRound(ctx context.Context, roundID int64) ([]Bet, error)

	// Transactions
	CreateTransaction(ctx context.Context, nt NewTransaction) (Transaction, error)
	TransactionsByUser(ctx context.Context, userID int64, limit int) ([]Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status TransactionStatus) (Transaction, error)

	// UserStats aggregates over the user's bets.
	UserStats(ctx context.Context, userID int64) (Stats, error)

	// WithUserLock serializes fn against all other balance-mutating work
	// for the same user. The read-modify-write sequence of settlement and
	// wallet operations must run inside it.
	WithUserLock(ctx context.Context, userID int64, fn func() error) error
}

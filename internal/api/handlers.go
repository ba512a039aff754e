package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/chromabet/backend/internal/ledger"
	"github.com/chromabet/backend/internal/money"
	"github.com/chromabet/backend/internal/services/account"
	"github.com/chromabet/backend/internal/services/game"
	"github.com/chromabet/backend/internal/services/wallet"
)

const (
	recentRoundsLimit = 10
	betHistoryLimit   = 20
	transactionsLimit = 20
)

// Handler wires the three services into HTTP handlers.
type Handler struct {
	account *account.Service
	game    *game.Service
	wallet  *wallet.Service
}

func NewHandler(accountSrv *account.Service, gameSrv *game.Service, walletSrv *wallet.Service) *Handler {
	return &Handler{
		account: accountSrv,
		game:    gameSrv,
		wallet:  walletSrv,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeValidation(w http.ResponseWriter, msg string, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": msg,
		"errors":  fields,
	})
}

// decodeBody decodes a JSON body strictly: unknown fields rejected, 1MB cap.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	//nolint:errcheck
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return err
	}

	return nil
}

// writeDomainError maps domain errors onto the response contract: 404 for
// missing records, 400 for policy rejections, 500 for everything else.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ledger.ErrRoundNotFound):
		writeMessage(w, http.StatusNotFound, "Round not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeMessage(w, http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, game.ErrBetBelowMinimum):
		writeMessage(w, http.StatusBadRequest, "Minimum bet amount is $10")
	case errors.Is(err, wallet.ErrDepositBelowMinimum):
		writeMessage(w, http.StatusBadRequest, "Minimum deposit amount is $100")
	case errors.Is(err, wallet.ErrWithdrawalBelowMinimum):
		writeMessage(w, http.StatusBadRequest, "Minimum withdrawal amount is $250")
	default:
		slog.Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// --- User ---

// GetUser handles GET /api/user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.account.Demo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// AcceptTerms handles POST /api/user/accept-terms.
func (h *Handler) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	user, err := h.account.AcceptTerms(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetStats handles GET /api/user/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, err := h.account.Demo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stats, err := h.game.Stats(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetBetHistory handles GET /api/user/bet-history.
func (h *Handler) GetBetHistory(w http.ResponseWriter, r *http.Request) {
	user, err := h.account.Demo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	entries, err := h.game.BetHistory(r.Context(), user.ID, betHistoryLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// --- Game ---

// GetCurrentRound handles GET /api/game/current-round.
func (h *Handler) GetCurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.game.CurrentRound(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, round)
}

// GetRecentRounds handles GET /api/game/recent-rounds.
func (h *Handler) GetRecentRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.game.RecentRounds(r.Context(), recentRoundsLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rounds)
}

type placeBetRequest struct {
	UserID     int64  `json:"userId"`
	Prediction string `json:"prediction"`
	Amount     string `json:"amount"`
}

// PlaceBet handles POST /api/game/place-bet.
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	var req placeBetRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid bet data")
		return
	}

	fields := make(map[string]string)

	if req.UserID <= 0 {
		fields["userId"] = "must be a positive integer"
	}

	prediction, err := ledger.ParseColor(req.Prediction)
	if err != nil {
		fields["prediction"] = "must be one of red, green, blue"
	}

	stake, err := money.Parse(req.Amount)
	if err != nil {
		fields["amount"] = "must be a decimal amount"
	} else if stake <= 0 {
		fields["amount"] = "must be positive"
	}

	if len(fields) > 0 {
		writeValidation(w, "Invalid bet data", fields)
		return
	}

	result, err := h.game.PlaceBet(r.Context(), req.UserID, prediction, stake)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- Wallet ---

type depositRequest struct {
	Amount        string `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
}

// Deposit handles POST /api/wallet/deposit.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid deposit data")
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil || amount <= 0 {
		writeValidation(w, "Invalid deposit data", map[string]string{"amount": "must be a positive decimal amount"})
		return
	}

	user, err := h.account.Demo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.wallet.Deposit(r.Context(), user.ID, amount, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type withdrawRequest struct {
	Amount           string `json:"amount"`
	WithdrawalMethod string `json:"withdrawalMethod"`
}

// Withdraw handles POST /api/wallet/withdraw.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid withdrawal data")
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil || amount <= 0 {
		writeValidation(w, "Invalid withdrawal data", map[string]string{"amount": "must be a positive decimal amount"})
		return
	}

	user, err := h.account.Demo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.wallet.Withdraw(r.Context(), user.ID, amount, req.WithdrawalMethod)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetTransactions handles GET /api/wallet/transactions.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	user, err := h.account.Demo(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	txns, err := h.wallet.Transactions(r.Context(), user.ID, transactionsLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chromabet/backend/internal/infra/metrics"
)

// NewRouter registers all API endpoints plus health and metrics.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/user", h.GetUser)
		r.Post("/user/accept-terms", h.AcceptTerms)
		r.Get("/user/stats", h.GetStats)
		r.Get("/user/bet-history", h.GetBetHistory)

		r.Get("/game/current-round", h.GetCurrentRound)
		r.Get("/game/recent-rounds", h.GetRecentRounds)
		r.Post("/game/place-bet", h.PlaceBet)

		r.Post("/wallet/deposit", h.Deposit)
		r.Post("/wallet/withdraw", h.Withdraw)
		r.Get("/wallet/transactions", h.GetTransactions)
	})

	return r
}

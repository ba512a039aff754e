// Package metrics holds the prometheus instruments for the betting core.
// The registry is explicit and constructed per process, not a package
// global.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chromabet/backend/internal/money"
)

type Metrics struct {
	registry *prometheus.Registry

	betsPlaced  prometheus.Counter
	betsWon     prometheus.Counter
	stakedCents prometheus.Counter
	payoutCents prometheus.Counter
	deposits    prometheus.Counter
	withdrawals prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		betsPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "chromabet_bets_placed_total",
			Help: "Number of bets placed.",
		}),
		betsWon: factory.NewCounter(prometheus.CounterOpts{
			Name: "chromabet_bets_won_total",
			Help: "Number of bets that won.",
		}),
		stakedCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "chromabet_staked_cents_total",
			Help: "Total stake debited, in cents.",
		}),
		payoutCents: factory.NewCounter(prometheus.CounterOpts{
			Name: "chromabet_payout_cents_total",
			Help: "Total payouts credited, in cents.",
		}),
		deposits: factory.NewCounter(prometheus.CounterOpts{
			Name: "chromabet_deposits_total",
			Help: "Number of completed deposits.",
		}),
		withdrawals: factory.NewCounter(prometheus.CounterOpts{
			Name: "chromabet_withdrawals_total",
			Help: "Number of accepted withdrawal requests.",
		}),
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The record methods are nil-safe so services can run without metrics in
// tests.

func (m *Metrics) BetPlaced(stake money.Cents) {
	if m == nil {
		return
	}

	m.betsPlaced.Inc()
	m.stakedCents.Add(float64(stake))
}

func (m *Metrics) BetWon(payout money.Cents) {
	if m == nil {
		return
	}

	m.betsWon.Inc()
	m.payoutCents.Add(float64(payout))
}

func (m *Metrics) Deposit() {
	if m == nil {
		return
	}

	m.deposits.Inc()
}

func (m *Metrics) Withdrawal() {
	if m == nil {
		return
	}

	m.withdrawals.Inc()
}

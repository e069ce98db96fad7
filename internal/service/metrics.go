package service

import "github.com/prometheus/client_golang/prometheus"

var (
	depositsVerified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escrow_deposits_verified_total",
		Help: "Deposits accepted and credited to an escrow",
	})
	depositsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_deposits_rejected_total",
		Help: "Deposit verifications rejected, by reason",
	}, []string{"reason"})
	settlements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_settlements_total",
		Help: "Settlements reaching a terminal escrow state, by outcome",
	}, []string{"outcome"})
	settlementFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "escrow_settlement_failures_total",
		Help: "Settlement attempts that left the escrow locked for retry",
	})
	wordsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "words_accepted_total",
		Help: "Word submissions accepted and scored",
	})
	wordsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "words_rejected_total",
		Help: "Word submissions rejected, by reason",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(
		depositsVerified,
		depositsRejected,
		settlements,
		settlementFailures,
		wordsAccepted,
		wordsRejected,
	)
}

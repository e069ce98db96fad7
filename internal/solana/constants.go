package solana

import "time"

const (
	// LamportsPerSOL is the smallest SOL unit scale (1 SOL = 10^9 lamports).
	LamportsPerSOL = 1_000_000_000

	// DepositToleranceBps is the allowed downward variance on a deposit's
	// balance delta, in basis points, to absorb unit-conversion rounding.
	DepositToleranceBps = 10 // 0.1%

	// PropagationWait is how long to wait before the first transaction
	// lookup, absorbing typical RPC propagation latency.
	PropagationWait = 2 * time.Second

	// ConfirmPollInterval is how often to poll for transfer confirmation.
	ConfirmPollInterval = 2 * time.Second

	// ConfirmTimeout bounds the confirmation wait on a submitted transfer.
	ConfirmTimeout = 60 * time.Second

	// LoginProofTTL is how long a signed login message stays valid.
	LoginProofTTL = 15 * time.Minute
)

// MinAcceptableDeposit applies the rounding tolerance to a required amount.
func MinAcceptableDeposit(required int64) int64 {
	return required - required*DepositToleranceBps/10_000
}

// SOLToLamports converts a human-readable SOL amount to lamports.
func SOLToLamports(sol float64) int64 {
	return int64(sol * LamportsPerSOL)
}

// LamportsToSOL converts lamports to a human-readable SOL amount.
func LamportsToSOL(lamports int64) float64 {
	return float64(lamports) / LamportsPerSOL
}

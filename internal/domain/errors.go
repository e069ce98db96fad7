package domain

import "errors"

// Storage-contract errors shared by the ledger store and the services that
// consume it.
var (
	// ErrSignatureUsed means the transaction signature was already claimed
	// by some (game, player) pair. Replay protection.
	ErrSignatureUsed = errors.New("signature already used")

	// ErrDepositExists means this player already has a recorded deposit for
	// the game.
	ErrDepositExists = errors.New("deposit already recorded")

	// ErrGameNotAcceptingDeposits means the game is cancelled or finished
	// and its escrow can no longer be funded.
	ErrGameNotAcceptingDeposits = errors.New("game not accepting deposits")
)

package service

import (
	"context"
	"errors"
	"time"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/logger"
	"wordstake_backend/internal/solana"
)

// DepositService validates a client-submitted transaction proof against
// game state and chain truth before crediting a deposit. The required
// amount is always read from the game record's bet, never trusted from the
// caller, so a client cannot declare a smaller obligation than the match
// requires.
type DepositService struct {
	games      GameStore
	signatures SignatureStore
	chain      ChainClient
	notifier   Notifier

	roundDuration   time.Duration
	propagationWait time.Duration
}

func NewDepositService(games GameStore, signatures SignatureStore, chain ChainClient, notifier Notifier, roundDuration time.Duration) *DepositService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &DepositService{
		games:           games,
		signatures:      signatures,
		chain:           chain,
		notifier:        notifier,
		roundDuration:   roundDuration,
		propagationWait: solana.PropagationWait,
	}
}

// DepositResult is the accepted-path response of a verification.
type DepositResult struct {
	CreditedAmount int64               `json:"credited_amount"`
	EscrowStatus   domain.EscrowStatus `json:"escrow_status"`
}

// VerifyDeposit runs the validation sequence in order; each step
// short-circuits with a rejection and no partial state is written before
// all checks pass. The order matters for security, not just correctness.
func (s *DepositService) VerifyDeposit(ctx context.Context, gameID, playerAddr, txSignature string, currency domain.Currency) (*DepositResult, error) {
	// 1. game exists and the claimed player occupies one of its slots
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil || g.PlayerByAddress(playerAddr) == nil {
		return nil, s.reject(ErrUnknownGameOrPlayer)
	}

	// 2. currency must match the game's configuration; the required amount
	// comes from the game record, not the caller
	if currency != g.BetCurrency {
		return nil, s.reject(ErrCurrencyMismatch)
	}
	required := g.BetAmount

	// 3. replay protection, cheap early check; the authoritative claim is
	// the conditional write in step 7
	used, err := s.signatures.IsUsed(ctx, txSignature)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, s.reject(domain.ErrSignatureUsed)
	}

	// 4. fetch the transaction, absorbing typical propagation latency
	// before the first lookup
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.propagationWait):
	}

	tx, err := s.chain.GetTransaction(ctx, txSignature)
	if err != nil {
		if errors.Is(err, solana.ErrTxNotFound) {
			return nil, s.reject(ErrDepositNotFound)
		}
		return nil, err
	}

	// 5. the fee payer (first signer) must be the claimed player, so one
	// account cannot fund a deposit credited to another
	if tx.FeePayer != playerAddr {
		return nil, s.reject(ErrSenderMismatch)
	}

	// 6. the escrow account's balance delta must cover the bet, allowing
	// 0.1% downward variance for unit-conversion rounding
	delta := tx.BalanceDelta(s.chain.EscrowAddress())
	if delta < solana.MinAcceptableDeposit(required) {
		return nil, s.reject(ErrInsufficientDeposit)
	}

	// 7. single atomic write: claim the signature, record the deposit and
	// re-evaluate the escrow from a fresh in-transaction read
	escrowStatus, err := s.games.RecordDeposit(ctx, gameID, domain.Deposit{
		GameID:        gameID,
		PlayerAddress: playerAddr,
		TxSignature:   txSignature,
		Amount:        delta,
		Currency:      currency,
	}, s.roundDuration)
	if err != nil {
		if IsRejection(err) {
			return nil, s.reject(err)
		}
		return nil, err
	}

	depositsVerified.Inc()
	logger.Info("deposit credited",
		"game_id", gameID, "player", playerAddr, "amount", delta, "escrow_status", escrowStatus)

	if updated, err := s.games.Get(ctx, gameID); err == nil && updated != nil {
		s.notifier.PublishGame(updated)
	}

	return &DepositResult{CreditedAmount: delta, EscrowStatus: escrowStatus}, nil
}

func (s *DepositService) reject(err error) error {
	depositsRejected.WithLabelValues(err.Error()).Inc()
	return err
}

package service

import (
	"context"
	"fmt"
	"time"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/logger"
)

// SettlementService moves the pot out of escrow when a game finishes:
// the whole pot to the winner, or each player's own deposit back on a tie.
// It is safe to invoke any number of times per game; the terminal escrow
// write is conditional and happens exactly once.
type SettlementService struct {
	games GameStore
	chain ChainClient
	audit AuditStore

	notifier Notifier
}

func NewSettlementService(games GameStore, chain ChainClient, audit AuditStore, notifier Notifier) *SettlementService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &SettlementService{games: games, chain: chain, audit: audit, notifier: notifier}
}

// Settle settles one finished game. The trigger is at-least-once, so the
// idempotence guard runs against a fresh read: anything already terminal,
// or not yet locked, is a no-op. Transfers are attempted before the
// terminal write, never after: a crash mid-transfer leaves the game
// retryable instead of falsely marked settled.
func (s *SettlementService) Settle(ctx context.Context, gameID string) error {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if g == nil {
		return nil
	}

	// idempotence barrier: only a finished game with a locked escrow settles
	if g.Status != domain.GameStatusFinished || g.Escrow.Status != domain.EscrowStatusLocked {
		return nil
	}

	pot := g.Escrow.Pot()
	if pot == 0 {
		// nothing to move; close the escrow so the trigger stops firing
		res := &domain.SettlementResult{Outcome: domain.EscrowStatusRefunded}
		_, err := s.games.CompleteSettlement(ctx, gameID, res)
		return err
	}

	var res *domain.SettlementResult
	if g.Winner != nil {
		res = s.payOutWinner(ctx, g, pot)
	} else {
		res = s.refundDeposits(ctx, g)
	}

	if res == nil {
		// every transfer failed before anything moved: annotate and leave
		// the escrow locked for a manual or automated retry
		settlementFailures.Inc()
		return s.games.RecordSettlementFailure(ctx, gameID, "all transfers failed")
	}

	applied, err := s.games.CompleteSettlement(ctx, gameID, res)
	if err != nil {
		return err
	}
	if !applied {
		// a concurrent settlement won the conditional write
		logger.Warn("settlement raced, terminal write skipped", "game_id", gameID)
		return nil
	}

	settlements.WithLabelValues(string(res.Outcome)).Inc()
	logger.Info("settlement complete",
		"game_id", gameID, "outcome", res.Outcome, "pot", pot, "payout_tx", res.PayoutTx)

	s.writeAudit(ctx, g, res, pot)

	if updated, err := s.games.Get(ctx, gameID); err == nil && updated != nil {
		s.notifier.PublishGame(updated)
	}
	return nil
}

// payOutWinner sends the entire pot to the winner in one transfer. A failed
// transfer returns nil so the settlement stays retryable.
func (s *SettlementService) payOutWinner(ctx context.Context, g *domain.GameRecord, pot int64) *domain.SettlementResult {
	sig, err := s.chain.SubmitTransfer(ctx, *g.Winner, uint64(pot))
	if err != nil {
		logger.Error("winner payout failed",
			"game_id", g.ID, "winner", *g.Winner, "pot", pot, "error", err)
		return nil
	}
	return &domain.SettlementResult{
		Outcome:  domain.EscrowStatusPaidOut,
		PayoutTx: sig,
	}
}

// refundDeposits returns each player exactly their own recorded deposit,
// not an equal split of the pot, which would misbehave if the two deposits
// ever diverge. Transfers are independent: one failing recipient must not
// block the other.
func (s *SettlementService) refundDeposits(ctx context.Context, g *domain.GameRecord) *domain.SettlementResult {
	res := &domain.SettlementResult{
		Outcome:        domain.EscrowStatusRefunded,
		Refunds:        make(map[string]string),
		TransferErrors: make(map[string]string),
	}

	attempted := 0
	for _, d := range g.Escrow.Deposits {
		if d.Amount <= 0 {
			continue
		}
		attempted++
		sig, err := s.chain.SubmitTransfer(ctx, d.PlayerAddress, uint64(d.Amount))
		if err != nil {
			logger.Error("refund transfer failed",
				"game_id", g.ID, "player", d.PlayerAddress, "amount", d.Amount, "error", err)
			res.TransferErrors[d.PlayerAddress] = err.Error()
			continue
		}
		res.Refunds[d.PlayerAddress] = sig
	}

	if attempted > 0 && len(res.Refunds) == 0 {
		return nil
	}
	return res
}

func (s *SettlementService) writeAudit(ctx context.Context, g *domain.GameRecord, res *domain.SettlementResult, pot int64) {
	if s.audit == nil {
		return
	}

	record := func(t *domain.Transaction) {
		if err := s.audit.Create(ctx, t); err != nil {
			logger.Warn("audit entry failed", "game_id", g.ID, "error", err)
		}
	}

	if res.Outcome == domain.EscrowStatusPaidOut && g.Winner != nil {
		record(&domain.Transaction{
			PlayerAddress: *g.Winner,
			GameID:        g.ID,
			Type:          domain.TxTypePayout,
			Amount:        pot,
			Meta:          map[string]interface{}{"tx_signature": res.PayoutTx},
		})
		return
	}

	for addr, sig := range res.Refunds {
		amount := int64(0)
		if d := g.Escrow.DepositFor(addr); d != nil {
			amount = d.Amount
		}
		record(&domain.Transaction{
			PlayerAddress: addr,
			GameID:        g.ID,
			Type:          domain.TxTypeRefund,
			Amount:        amount,
			Meta:          map[string]interface{}{"tx_signature": sig},
		})
	}
}

// SettleCancelled drives a cancelled game's escrow to refunded. Like Settle
// it is an at-least-once trigger: invoked inline by the cancel itself and
// again by the sweep until the escrow is terminal. A cancelled game holds at
// most one deposit, since the second deposit locks the escrow and blocks
// cancellation, but the loop does not rely on that.
func (s *SettlementService) SettleCancelled(ctx context.Context, gameID string) error {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return err
	}
	if g == nil {
		return nil
	}
	if g.Status != domain.GameStatusCancelled || g.Escrow.Status.Terminal() {
		return nil
	}

	refunded := 0
	for _, d := range g.Escrow.Deposits {
		sig, err := s.refundCapped(ctx, g, d.PlayerAddress)
		if err != nil {
			// transfer first, terminal write after: the escrow stays open
			// and the sweep picks the game up again after the backoff
			settlementFailures.Inc()
			logger.Error("cancel refund failed",
				"game_id", gameID, "player", d.PlayerAddress, "error", err)
			return s.games.RecordSettlementFailure(ctx, gameID, "cancel refund: "+err.Error())
		}
		if sig == "" {
			continue
		}
		refunded++
		if _, err := s.games.CompleteCancelRefund(ctx, gameID, d.PlayerAddress, sig); err != nil {
			return err
		}
	}

	if refunded == 0 {
		// no stake was ever credited; close the escrow anyway so the game
		// reaches a terminal state and retention can purge it
		if _, err := s.games.CompleteCancelRefund(ctx, gameID, "", ""); err != nil {
			return err
		}
	}

	settlements.WithLabelValues(string(domain.EscrowStatusRefunded)).Inc()
	logger.Info("cancel refund complete", "game_id", gameID, "refunds", refunded)

	if updated, err := s.games.Get(ctx, gameID); err == nil && updated != nil {
		s.notifier.PublishGame(updated)
	}
	return nil
}

// refundCapped issues a capped cancellation refund: never more than the
// game's configured bet, even if the recorded deposit is inflated or
// corrupted. Returns the transfer signature, or "" when there was nothing
// to refund.
func (s *SettlementService) refundCapped(ctx context.Context, g *domain.GameRecord, playerAddr string) (string, error) {
	d := g.Escrow.DepositFor(playerAddr)
	if d == nil || d.Amount <= 0 {
		return "", nil
	}

	amount := d.Amount
	if g.BetAmount < amount {
		amount = g.BetAmount
	}
	if amount <= 0 {
		return "", nil
	}

	sig, err := s.chain.SubmitTransfer(ctx, playerAddr, uint64(amount))
	if err != nil {
		return "", fmt.Errorf("cancel refund transfer: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.Create(ctx, &domain.Transaction{
			PlayerAddress: playerAddr,
			GameID:        g.ID,
			Type:          domain.TxTypeRefund,
			Amount:        amount,
			Meta:          map[string]interface{}{"tx_signature": sig, "reason": "cancel", "capped_at": g.BetAmount, "attempted_at": time.Now().UTC().Format(time.RFC3339)},
		}); err != nil {
			logger.Warn("audit entry failed", "game_id", g.ID, "error", err)
		}
	}

	return sig, nil
}

package service

import (
	"context"
	"testing"

	"wordstake_backend/internal/domain"
)

func TestSettleWinnerTakesPot(t *testing.T) {
	bet := int64(1_000_000)
	winner := addrAlice
	g := finishedGame(bet, &winner)
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)
	audit := &fakeAudit{}

	svc := NewSettlementService(store, chain, audit, nil)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	transfers := chain.transfersTo(addrAlice)
	if len(transfers) != 1 {
		t.Fatalf("winner transfers = %d, want 1", len(transfers))
	}
	if transfers[0].lamports != uint64(2*bet) {
		t.Errorf("payout = %d, want whole pot %d", transfers[0].lamports, 2*bet)
	}
	if len(chain.transfersTo(addrBob)) != 0 {
		t.Error("loser received a transfer")
	}

	updated, _ := store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusPaidOut {
		t.Errorf("escrow = %s, want paid_out", updated.Escrow.Status)
	}
	if updated.Escrow.PayoutTx == "" {
		t.Error("payout_tx not recorded")
	}

	if len(audit.entries) != 1 || audit.entries[0].Type != domain.TxTypePayout {
		t.Errorf("audit entries = %+v, want one payout", audit.entries)
	}
}

// A tie returns each player's own recorded deposit, not a split of the pot,
// so unequal credited amounts come back to their owners.
func TestSettleTieRefundsOwnDeposits(t *testing.T) {
	g := finishedGame(1_000_000, nil)
	g.Escrow.Deposits[0].Amount = 1_000_000
	g.Escrow.Deposits[1].Amount = 1_000_700 // overpaid within tolerance
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)

	svc := NewSettlementService(store, chain, &fakeAudit{}, nil)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	a := chain.transfersTo(addrAlice)
	b := chain.transfersTo(addrBob)
	if len(a) != 1 || a[0].lamports != 1_000_000 {
		t.Errorf("alice refund = %+v, want her own 1000000", a)
	}
	if len(b) != 1 || b[0].lamports != 1_000_700 {
		t.Errorf("bob refund = %+v, want his own 1000700", b)
	}

	updated, _ := store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusRefunded {
		t.Errorf("escrow = %s, want refunded", updated.Escrow.Status)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	winner := addrAlice
	g := finishedGame(1_000_000, &winner)
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)

	svc := NewSettlementService(store, chain, &fakeAudit{}, nil)
	ctx := context.Background()

	if err := svc.Settle(ctx, "g1"); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if err := svc.Settle(ctx, "g1"); err != nil {
		t.Fatalf("second settle: %v", err)
	}

	if got := len(chain.transfersTo(addrAlice)); got != 1 {
		t.Fatalf("winner paid %d times, want exactly once", got)
	}
}

func TestSettleSkipsNonSettleableStates(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain(escrowAddr)
	svc := NewSettlementService(newFakeStore(), chain, &fakeAudit{}, nil)

	// missing game
	if err := svc.Settle(ctx, "missing"); err != nil {
		t.Fatalf("missing game: %v", err)
	}

	// still playing
	store := newFakeStore(playingGame(1_000_000))
	svc = NewSettlementService(store, chain, &fakeAudit{}, nil)
	if err := svc.Settle(ctx, "g1"); err != nil {
		t.Fatalf("playing game: %v", err)
	}
	if len(chain.transfers) != 0 {
		t.Fatal("transfer issued for unfinished game")
	}

	updated, _ := store.Get(ctx, "g1")
	if updated.Escrow.Status != domain.EscrowStatusLocked {
		t.Errorf("escrow = %s, want still locked", updated.Escrow.Status)
	}
}

func TestSettleWinnerTransferFailureStaysRetryable(t *testing.T) {
	winner := addrAlice
	g := finishedGame(1_000_000, &winner)
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)
	chain.failFor[addrAlice] = errChainDown

	svc := NewSettlementService(store, chain, &fakeAudit{}, nil)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	updated, _ := store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusLocked {
		t.Errorf("escrow = %s, want locked for retry", updated.Escrow.Status)
	}
	if updated.Escrow.PayoutError == "" {
		t.Error("payout_error not recorded")
	}

	// retry succeeds once the chain recovers
	delete(chain.failFor, addrAlice)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	updated, _ = store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusPaidOut {
		t.Errorf("escrow after retry = %s, want paid_out", updated.Escrow.Status)
	}
}

// One failing refund recipient must not block the other. The escrow still
// reaches refunded, with the failure annotated per player.
func TestSettleTiePartialFailureIsIsolated(t *testing.T) {
	g := finishedGame(1_000_000, nil)
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)
	chain.failFor[addrBob] = errChainDown

	svc := NewSettlementService(store, chain, &fakeAudit{}, nil)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if len(chain.transfersTo(addrAlice)) != 1 {
		t.Error("alice refund missing")
	}

	updated, _ := store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusRefunded {
		t.Errorf("escrow = %s, want refunded", updated.Escrow.Status)
	}
	if p := updated.PlayerByAddress(addrAlice); p.RefundTx == "" {
		t.Error("alice refund_tx not recorded")
	}
	if p := updated.PlayerByAddress(addrBob); p.TransferError == "" {
		t.Error("bob transfer_error not recorded")
	}
}

func TestSettleTieAllTransfersFailedStaysRetryable(t *testing.T) {
	g := finishedGame(1_000_000, nil)
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)
	chain.failFor[addrAlice] = errChainDown
	chain.failFor[addrBob] = errChainDown

	svc := NewSettlementService(store, chain, &fakeAudit{}, nil)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	updated, _ := store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusLocked {
		t.Errorf("escrow = %s, want locked for retry", updated.Escrow.Status)
	}
	if len(store.settlementFailures) != 1 {
		t.Errorf("failure annotations = %d, want 1", len(store.settlementFailures))
	}
}

func TestSettleZeroPotClosesEscrow(t *testing.T) {
	g := finishedGame(1_000_000, nil)
	g.Escrow.Deposits = nil
	store := newFakeStore(g)
	chain := newFakeChain(escrowAddr)

	svc := NewSettlementService(store, chain, &fakeAudit{}, nil)
	if err := svc.Settle(context.Background(), "g1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if len(chain.transfers) != 0 {
		t.Fatal("transfer issued for empty pot")
	}
	updated, _ := store.Get(context.Background(), "g1")
	if updated.Escrow.Status != domain.EscrowStatusRefunded {
		t.Errorf("escrow = %s, want refunded", updated.Escrow.Status)
	}
}

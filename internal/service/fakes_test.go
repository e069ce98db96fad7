package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/solana"
)

// In-memory doubles for the storage and chain interfaces. They mirror the
// conditional-write semantics of the real implementations: terminal escrow
// states are written at most once, words are credited at most once.

type fakeStore struct {
	mu    sync.Mutex
	games map[string]*domain.GameRecord

	usedSignatures map[string]bool

	settlementFailures []string
	cancelRefunds      map[string]string
}

func newFakeStore(games ...*domain.GameRecord) *fakeStore {
	s := &fakeStore{
		games:          make(map[string]*domain.GameRecord),
		usedSignatures: make(map[string]bool),
		cancelRefunds:  make(map[string]string),
	}
	for _, g := range games {
		s.games[g.ID] = g
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, gameID string) (*domain.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]domain.PlayerState(nil), g.Players...)
	cp.Escrow.Deposits = append([]domain.Deposit(nil), g.Escrow.Deposits...)
	return &cp, nil
}

func (s *fakeStore) Create(_ context.Context, g *domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	return nil
}

func (s *fakeStore) JoinOpenGame(_ context.Context, betAmount int64, currency domain.Currency, p domain.PlayerState) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Status == domain.GameStatusWaiting &&
			g.BetAmount == betAmount && g.BetCurrency == currency &&
			len(g.Players) == 1 && g.Players[0].Address != p.Address {
			g.Players = append(g.Players, p)
			return g.ID, nil
		}
	}
	return "", nil
}

func (s *fakeStore) RecordDeposit(_ context.Context, gameID string, d domain.Deposit, _ time.Duration) (domain.EscrowStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return "", domain.ErrGameNotAcceptingDeposits
	}
	if g.Status == domain.GameStatusCancelled || g.Status == domain.GameStatusFinished || g.Escrow.Status.Terminal() {
		return "", domain.ErrGameNotAcceptingDeposits
	}
	if s.usedSignatures[d.TxSignature] {
		return "", domain.ErrSignatureUsed
	}
	for _, existing := range g.Escrow.Deposits {
		if existing.PlayerAddress == d.PlayerAddress {
			return "", domain.ErrDepositExists
		}
	}
	s.usedSignatures[d.TxSignature] = true
	g.Escrow.Deposits = append(g.Escrow.Deposits, d)

	if len(g.Escrow.Deposits) == 2 && len(g.Players) == 2 {
		g.Escrow.Status = domain.EscrowStatusLocked
		g.Status = domain.GameStatusPlaying
		deadline := time.Now().Add(90 * time.Second)
		g.Deadline = &deadline
	}
	return g.Escrow.Status, nil
}

func (s *fakeStore) AddWordIfAbsent(_ context.Context, gameID, playerAddr, word string, points int64) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return false, 0, nil
	}
	p := g.PlayerByAddress(playerAddr)
	if p == nil || p.HasWord(word) {
		return false, 0, nil
	}
	p.WordsFound = append(p.WordsFound, word)
	p.Score += points
	return true, p.Score, nil
}

func (s *fakeStore) Finish(_ context.Context, gameID string, winner, forfeitedBy *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Status != domain.GameStatusPlaying {
		return false, nil
	}
	g.Status = domain.GameStatusFinished
	g.Winner = winner
	g.ForfeitedBy = forfeitedBy
	return true, nil
}

func (s *fakeStore) CompleteSettlement(_ context.Context, gameID string, res *domain.SettlementResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Escrow.Status != domain.EscrowStatusLocked {
		return false, nil
	}
	g.Escrow.Status = res.Outcome
	g.Escrow.PayoutTx = res.PayoutTx
	now := time.Now()
	g.Escrow.SettledAt = &now
	for i := range g.Players {
		if sig, ok := res.Refunds[g.Players[i].Address]; ok {
			g.Players[i].RefundTx = sig
		}
		if msg, ok := res.TransferErrors[g.Players[i].Address]; ok {
			g.Players[i].TransferError = msg
		}
	}
	return true, nil
}

func (s *fakeStore) RecordSettlementFailure(_ context.Context, gameID, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[gameID]; ok && !g.Escrow.Status.Terminal() {
		g.Escrow.PayoutError = msg
		now := time.Now()
		g.Escrow.PayoutAttemptedAt = &now
	}
	s.settlementFailures = append(s.settlementFailures, gameID)
	return nil
}

func (s *fakeStore) MarkCancelled(_ context.Context, gameID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Status != domain.GameStatusWaiting {
		return false, nil
	}
	g.Status = domain.GameStatusCancelled
	return true, nil
}

func (s *fakeStore) CompleteCancelRefund(_ context.Context, gameID, playerAddr, refundTx string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Escrow.Status.Terminal() {
		return false, nil
	}
	g.Escrow.Status = domain.EscrowStatusRefunded
	if p := g.PlayerByAddress(playerAddr); p != nil {
		p.RefundTx = refundTx
	}
	s.cancelRefunds[playerAddr] = refundTx
	return true, nil
}

func (s *fakeStore) IsUsed(_ context.Context, txSignature string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usedSignatures[txSignature], nil
}

func (s *fakeStore) markSignatureUsed(sig string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usedSignatures[sig] = true
}

// fakeChain serves canned transactions and records transfers. Individual
// destinations can be made to fail.
type fakeChain struct {
	mu     sync.Mutex
	escrow string

	txs       map[string]*solana.TxInfo
	transfers []fakeTransfer
	failFor   map[string]error
	seq       int
}

type fakeTransfer struct {
	to       string
	lamports uint64
	sig      string
}

func newFakeChain(escrow string) *fakeChain {
	return &fakeChain{
		escrow:  escrow,
		txs:     make(map[string]*solana.TxInfo),
		failFor: make(map[string]error),
	}
}

func (c *fakeChain) EscrowAddress() string { return c.escrow }

func (c *fakeChain) GetTransaction(_ context.Context, signature string) (*solana.TxInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, ok := c.txs[signature]
	if !ok {
		return nil, solana.ErrTxNotFound
	}
	return tx, nil
}

func (c *fakeChain) SubmitTransfer(_ context.Context, to string, lamports uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failFor[to]; ok {
		return "", err
	}
	c.seq++
	sig := fmt.Sprintf("transfer-%d", c.seq)
	c.transfers = append(c.transfers, fakeTransfer{to: to, lamports: lamports, sig: sig})
	return sig, nil
}

func (c *fakeChain) addDepositTx(signature, from string, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[signature] = solana.NewTxInfo(signature, from, map[string]int64{
		from:     -amount,
		c.escrow: amount,
	})
}

func (c *fakeChain) transfersTo(addr string) []fakeTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []fakeTransfer
	for _, tr := range c.transfers {
		if tr.to == addr {
			out = append(out, tr)
		}
	}
	return out
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []*domain.Transaction
}

func (a *fakeAudit) Create(_ context.Context, t *domain.Transaction) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, t)
	return nil
}

var errChainDown = errors.New("rpc unavailable")

// game fixtures

const (
	addrAlice  = "A1iceWa11etAddr"
	addrBob    = "BobWa11etAddr"
	escrowAddr = "EscrowWa11etAddr"
)

func playingGame(bet int64) *domain.GameRecord {
	return &domain.GameRecord{
		ID:          "g1",
		Status:      domain.GameStatusPlaying,
		Letters:     []string{"T", "E", "S", "T", "A", "R", "O", "L", "I", "N", "D", "S"},
		BetAmount:   bet,
		BetCurrency: domain.CurrencySOL,
		Players: []domain.PlayerState{
			{Address: addrAlice},
			{Address: addrBob},
		},
		Escrow: domain.EscrowState{
			Status: domain.EscrowStatusLocked,
			Deposits: []domain.Deposit{
				{GameID: "g1", PlayerAddress: addrAlice, TxSignature: "dep-a", Amount: bet},
				{GameID: "g1", PlayerAddress: addrBob, TxSignature: "dep-b", Amount: bet},
			},
		},
	}
}

func waitingGame(bet int64) *domain.GameRecord {
	return &domain.GameRecord{
		ID:          "g1",
		Status:      domain.GameStatusWaiting,
		Letters:     []string{"T", "E", "S", "T", "A", "R", "O", "L", "I", "N", "D", "S"},
		BetAmount:   bet,
		BetCurrency: domain.CurrencySOL,
		Players: []domain.PlayerState{
			{Address: addrAlice},
		},
		Escrow: domain.EscrowState{Status: domain.EscrowStatusPendingDeposits},
	}
}

func finishedGame(bet int64, winner *string) *domain.GameRecord {
	g := playingGame(bet)
	g.Status = domain.GameStatusFinished
	g.Winner = winner
	return g
}

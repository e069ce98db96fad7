package service

import (
	"context"
	"time"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/solana"
)

// GameStore is the slice of the ledger store the core services depend on.
// Implementations must provide the read-then-conditionally-write atomicity
// documented on repository.GameRepository; the services assume it.
type GameStore interface {
	Get(ctx context.Context, gameID string) (*domain.GameRecord, error)
	Create(ctx context.Context, g *domain.GameRecord) error
	JoinOpenGame(ctx context.Context, betAmount int64, currency domain.Currency, p domain.PlayerState) (string, error)
	RecordDeposit(ctx context.Context, gameID string, d domain.Deposit, roundDuration time.Duration) (domain.EscrowStatus, error)
	AddWordIfAbsent(ctx context.Context, gameID, playerAddr, word string, points int64) (bool, int64, error)
	Finish(ctx context.Context, gameID string, winner, forfeitedBy *string) (bool, error)
	CompleteSettlement(ctx context.Context, gameID string, res *domain.SettlementResult) (bool, error)
	RecordSettlementFailure(ctx context.Context, gameID, msg string) error
	MarkCancelled(ctx context.Context, gameID string) (bool, error)
	CompleteCancelRefund(ctx context.Context, gameID, playerAddr, refundTx string) (bool, error)
}

// SignatureStore reads the global replay-protection index.
type SignatureStore interface {
	IsUsed(ctx context.Context, txSignature string) (bool, error)
}

// ChainClient is the blockchain access the verifier and settlement engine
// need: transaction lookup and custodial transfers.
type ChainClient interface {
	EscrowAddress() string
	GetTransaction(ctx context.Context, signature string) (*solana.TxInfo, error)
	SubmitTransfer(ctx context.Context, to string, lamports uint64) (string, error)
}

// AuditStore records money movements for operator visibility. Failures are
// logged, never propagated.
type AuditStore interface {
	Create(ctx context.Context, t *domain.Transaction) error
}

// Notifier pushes fresh game snapshots to subscribed observers. The core
// never blocks on it.
type Notifier interface {
	PublishGame(g *domain.GameRecord)
}

// NopNotifier is used when no live observation layer is wired.
type NopNotifier struct{}

func (NopNotifier) PublishGame(*domain.GameRecord) {}

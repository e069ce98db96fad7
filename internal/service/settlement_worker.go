package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"wordstake_backend/internal/logger"
)

const (
	settleRetryBackoff = time.Minute
	settleBatchLimit   = 50
	settleLockTTL      = 30 * time.Second
	purgeEvery         = time.Hour
)

// WorkerStore is the sweep-side slice of the ledger store.
type WorkerStore interface {
	FinishExpiredGames(ctx context.Context) ([]string, error)
	ListSettleable(ctx context.Context, retryAfter time.Duration, limit int) ([]string, error)
	ListCancelRefundable(ctx context.Context, retryAfter time.Duration, limit int) ([]string, error)
	PurgeOldGames(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SettlementWorker is the out-of-band settlement trigger: it closes expired
// rounds and drives every finished-but-locked escrow to a terminal state.
// Together with the inline trigger on forfeit this gives at-least-once
// settlement; the engine's conditional writes absorb the duplicates.
type SettlementWorker struct {
	store       WorkerStore
	settlements *SettlementService
	rdb         *redis.Client

	interval  time.Duration
	retention time.Duration

	lastPurge time.Time
}

// NewSettlementWorker builds a worker. rdb may be nil; the per-game lock is
// an optimization against duplicate transfers across replicas, not a
// correctness requirement.
func NewSettlementWorker(store WorkerStore, settlements *SettlementService, rdb *redis.Client, interval, retention time.Duration) *SettlementWorker {
	return &SettlementWorker{
		store:       store,
		settlements: settlements,
		rdb:         rdb,
		interval:    interval,
		retention:   retention,
	}
}

// Run blocks until ctx is cancelled, sweeping on a fixed interval.
func (w *SettlementWorker) Run(ctx context.Context) {
	logger.Info("settlement worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("settlement worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SettlementWorker) sweep(ctx context.Context) {
	expired, err := w.store.FinishExpiredGames(ctx)
	if err != nil {
		logger.Error("expiry sweep failed", "error", err)
	} else if len(expired) > 0 {
		logger.Info("rounds closed by deadline", "count", len(expired))
	}

	ids, err := w.store.ListSettleable(ctx, settleRetryBackoff, settleBatchLimit)
	if err != nil {
		logger.Error("settleable scan failed", "error", err)
		return
	}

	for _, id := range ids {
		if !w.tryLock(ctx, id) {
			continue
		}
		if err := w.settlements.Settle(ctx, id); err != nil {
			logger.Error("settlement attempt failed", "game_id", id, "error", err)
		}
		w.unlock(ctx, id)
	}

	// cancelled games with an open escrow: failed or crashed cancel refunds
	cancelled, err := w.store.ListCancelRefundable(ctx, settleRetryBackoff, settleBatchLimit)
	if err != nil {
		logger.Error("cancel refund scan failed", "error", err)
		return
	}
	for _, id := range cancelled {
		if !w.tryLock(ctx, id) {
			continue
		}
		if err := w.settlements.SettleCancelled(ctx, id); err != nil {
			logger.Error("cancel refund attempt failed", "game_id", id, "error", err)
		}
		w.unlock(ctx, id)
	}

	if w.retention > 0 && time.Since(w.lastPurge) >= purgeEvery {
		w.lastPurge = time.Now()
		purged, err := w.store.PurgeOldGames(ctx, w.retention)
		if err != nil {
			logger.Error("retention purge failed", "error", err)
		} else if purged > 0 {
			logger.Info("old games purged", "count", purged)
		}
	}
}

func (w *SettlementWorker) tryLock(ctx context.Context, gameID string) bool {
	if w.rdb == nil {
		return true
	}
	ok, err := w.rdb.SetNX(ctx, "settle_lock:"+gameID, "1", settleLockTTL).Result()
	if err != nil {
		// lock service down: proceed, conditional writes keep us safe
		logger.Warn("settlement lock unavailable", "game_id", gameID, "error", err)
		return true
	}
	return ok
}

func (w *SettlementWorker) unlock(ctx context.Context, gameID string) {
	if w.rdb == nil {
		return
	}
	if err := w.rdb.Del(ctx, "settle_lock:"+gameID).Err(); err != nil {
		logger.Warn("settlement unlock failed", "game_id", gameID, "error", err)
	}
}

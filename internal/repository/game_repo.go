package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"wordstake_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRepository is the ledger store for game records. Every multi-step
// mutation runs inside one database transaction with the game row locked,
// which is what gives the escrow state machine its read-then-conditionally-
// write atomicity.
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// Create inserts a new game record together with its first player slot.
func (r *GameRepository) Create(ctx context.Context, g *domain.GameRecord) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO games (id, status, letters, bet_amount, bet_currency, escrow_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, g.ID, g.Status, strings.Join(g.Letters, ""), g.BetAmount, g.BetCurrency, g.Escrow.Status).Scan(&g.CreatedAt)
	if err != nil {
		return err
	}

	for i := range g.Players {
		p := &g.Players[i]
		err = tx.QueryRow(ctx, `
			INSERT INTO game_players (game_id, address, display_name)
			VALUES ($1, $2, $3)
			RETURNING joined_at, last_activity
		`, g.ID, p.Address, p.DisplayName).Scan(&p.JoinedAt, &p.LastActivity)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Get loads a full game record with player slots and escrow deposits.
// Returns (nil, nil) when the game does not exist.
func (r *GameRepository) Get(ctx context.Context, gameID string) (*domain.GameRecord, error) {
	var (
		g       domain.GameRecord
		letters string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, status, letters, bet_amount, bet_currency, winner_address, forfeited_by,
		       escrow_status, payout_tx, payout_error, payout_attempted_at, settled_at,
		       created_at, started_at, deadline
		FROM games
		WHERE id = $1
	`, gameID).Scan(
		&g.ID, &g.Status, &letters, &g.BetAmount, &g.BetCurrency, &g.Winner, &g.ForfeitedBy,
		&g.Escrow.Status, &nullString{&g.Escrow.PayoutTx}, &nullString{&g.Escrow.PayoutError},
		&g.Escrow.PayoutAttemptedAt, &g.Escrow.SettledAt,
		&g.CreatedAt, &g.StartedAt, &g.Deadline,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	g.Letters = strings.Split(letters, "")

	rows, err := r.db.Query(ctx, `
		SELECT address, display_name, score, words_found, is_ready, last_activity,
		       refund_tx, transfer_error, joined_at
		FROM game_players
		WHERE game_id = $1
		ORDER BY joined_at ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PlayerState
		if err := rows.Scan(
			&p.Address, &p.DisplayName, &p.Score, &p.WordsFound, &p.IsReady, &p.LastActivity,
			&nullString{&p.RefundTx}, &nullString{&p.TransferError}, &p.JoinedAt,
		); err != nil {
			return nil, err
		}
		g.Players = append(g.Players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	depRows, err := r.db.Query(ctx, `
		SELECT id, game_id, player_address, tx_signature, amount, currency, confirmed_at
		FROM deposits
		WHERE game_id = $1
		ORDER BY confirmed_at ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer depRows.Close()

	for depRows.Next() {
		var d domain.Deposit
		if err := depRows.Scan(&d.ID, &d.GameID, &d.PlayerAddress, &d.TxSignature, &d.Amount, &d.Currency, &d.ConfirmedAt); err != nil {
			return nil, err
		}
		g.Escrow.Deposits = append(g.Escrow.Deposits, d)
	}
	if err := depRows.Err(); err != nil {
		return nil, err
	}

	for i := range g.Players {
		g.Players[i].Deposit = g.Escrow.DepositFor(g.Players[i].Address)
	}

	return &g, nil
}

// JoinOpenGame pairs a player into the oldest waiting game with a matching
// stake, if one exists. Returns the joined game id, or "" when no open game
// matched (caller then creates a fresh one). SKIP LOCKED keeps concurrent
// joiners from fighting over the same row.
func (r *GameRepository) JoinOpenGame(ctx context.Context, betAmount int64, currency domain.Currency, p domain.PlayerState) (string, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var gameID string
	err = tx.QueryRow(ctx, `
		SELECT g.id
		FROM games g
		WHERE g.status = 'waiting'
		  AND g.bet_amount = $1
		  AND g.bet_currency = $2
		  AND (SELECT COUNT(*) FROM game_players gp WHERE gp.game_id = g.id) = 1
		  AND NOT EXISTS (SELECT 1 FROM game_players gp WHERE gp.game_id = g.id AND gp.address = $3)
		ORDER BY g.created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, betAmount, currency, p.Address).Scan(&gameID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO game_players (game_id, address, display_name)
		VALUES ($1, $2, $3)
	`, gameID, p.Address, p.DisplayName); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return gameID, nil
}

// RecordDeposit atomically claims the transaction signature, records the
// player's deposit and re-evaluates the escrow from a fresh in-transaction
// read: if both deposit slots are now populated the escrow locks and the
// game starts. The signature claim is a single conditional insert, so two
// verifiers racing on the same signature cannot both succeed.
func (r *GameRepository) RecordDeposit(ctx context.Context, gameID string, d domain.Deposit, roundDuration time.Duration) (domain.EscrowStatus, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		status domain.GameStatus
		escrow domain.EscrowStatus
	)
	err = tx.QueryRow(ctx, `
		SELECT status, escrow_status FROM games WHERE id = $1 FOR UPDATE
	`, gameID).Scan(&status, &escrow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrGameNotAcceptingDeposits
		}
		return "", err
	}
	if status == domain.GameStatusCancelled || status == domain.GameStatusFinished || escrow.Terminal() {
		return "", domain.ErrGameNotAcceptingDeposits
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO used_signatures (tx_signature, game_id, player_address)
		VALUES ($1, $2, $3)
		ON CONFLICT (tx_signature) DO NOTHING
	`, d.TxSignature, gameID, d.PlayerAddress)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", domain.ErrSignatureUsed
	}

	tag, err = tx.Exec(ctx, `
		INSERT INTO deposits (game_id, player_address, tx_signature, amount, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id, player_address) DO NOTHING
	`, gameID, d.PlayerAddress, d.TxSignature, d.Amount, d.Currency)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", domain.ErrDepositExists
	}

	if _, err := tx.Exec(ctx, `
		UPDATE game_players SET is_ready = true, last_activity = now()
		WHERE game_id = $1 AND address = $2
	`, gameID, d.PlayerAddress); err != nil {
		return "", err
	}

	var depositCount, playerCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM deposits WHERE game_id = $1`, gameID).Scan(&depositCount); err != nil {
		return "", err
	}
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM game_players WHERE game_id = $1`, gameID).Scan(&playerCount); err != nil {
		return "", err
	}

	newEscrow := domain.EscrowStatusPendingDeposits
	if depositCount == 2 && playerCount == 2 {
		newEscrow = domain.EscrowStatusLocked
		if _, err := tx.Exec(ctx, `
			UPDATE games
			SET escrow_status = $2, status = 'playing', started_at = now(),
			    deadline = now() + make_interval(secs => $3)
			WHERE id = $1 AND escrow_status = 'pending_deposits'
		`, gameID, newEscrow, roundDuration.Seconds()); err != nil {
			return "", err
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (player_address, game_id, type, amount, meta)
		VALUES ($1, $2, $3, $4, jsonb_build_object('tx_signature', $5::text))
	`, d.PlayerAddress, gameID, domain.TxTypeDeposit, d.Amount, d.TxSignature); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return newEscrow, nil
}

// AddWordIfAbsent appends a word and credits its score in one conditional
// update. The word is added only if it is still absent from the player's
// words_found, so two near-simultaneous submissions of the same word cannot
// double-credit: the loser of the race matches zero rows.
func (r *GameRepository) AddWordIfAbsent(ctx context.Context, gameID, playerAddr, word string, points int64) (bool, int64, error) {
	var newScore int64
	err := r.db.QueryRow(ctx, `
		UPDATE game_players
		SET words_found = array_append(words_found, $3),
		    score = score + $4,
		    last_activity = now()
		WHERE game_id = $1 AND address = $2 AND NOT ($3 = ANY(words_found))
		RETURNING score
	`, gameID, playerAddr, word, points).Scan(&newScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, newScore, nil
}

// Finish moves a playing game to finished with the given winner (nil for a
// tie) and optional forfeiter. Returns false if the game was not playing,
// so a forfeit racing a timer expiry resolves to exactly one finish.
func (r *GameRepository) Finish(ctx context.Context, gameID string, winner, forfeitedBy *string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE games
		SET status = 'finished', winner_address = $2, forfeited_by = $3
		WHERE id = $1 AND status = 'playing'
	`, gameID, winner, forfeitedBy)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FinishExpiredGames finishes every playing game whose round timer has
// elapsed, computing the winner from the score comparison (tie leaves the
// winner unset). Returns the ids of games it finished.
func (r *GameRepository) FinishExpiredGames(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM games
		WHERE status = 'playing' AND deadline IS NOT NULL AND deadline < now()
	`)
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var finished []string
	for _, id := range ids {
		ok, err := r.finishByScore(ctx, id)
		if err != nil {
			return finished, err
		}
		if ok {
			finished = append(finished, id)
		}
	}
	return finished, nil
}

func (r *GameRepository) finishByScore(ctx context.Context, gameID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status domain.GameStatus
	err = tx.QueryRow(ctx, `SELECT status FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if status != domain.GameStatusPlaying {
		return false, nil
	}

	pRows, err := tx.Query(ctx, `SELECT address, score FROM game_players WHERE game_id = $1`, gameID)
	if err != nil {
		return false, err
	}
	type ps struct {
		addr  string
		score int64
	}
	var players []ps
	for pRows.Next() {
		var p ps
		if err := pRows.Scan(&p.addr, &p.score); err != nil {
			pRows.Close()
			return false, err
		}
		players = append(players, p)
	}
	pRows.Close()
	if err := pRows.Err(); err != nil {
		return false, err
	}

	var winner *string
	if len(players) == 2 {
		if players[0].score > players[1].score {
			winner = &players[0].addr
		} else if players[1].score > players[0].score {
			winner = &players[1].addr
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE games SET status = 'finished', winner_address = $2 WHERE id = $1
	`, gameID, winner); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// ListSettleable returns finished games whose escrow is still locked,
// skipping recently attempted ones so failed settlements back off.
func (r *GameRepository) ListSettleable(ctx context.Context, retryAfter time.Duration, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM games
		WHERE status = 'finished' AND escrow_status = 'locked'
		  AND (payout_attempted_at IS NULL OR payout_attempted_at < now() - make_interval(secs => $1))
		ORDER BY created_at ASC
		LIMIT $2
	`, retryAfter.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListCancelRefundable returns cancelled games whose escrow never reached a
// terminal state, so an interrupted or failed cancel refund is retried on
// the same backoff as settlements.
func (r *GameRepository) ListCancelRefundable(ctx context.Context, retryAfter time.Duration, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM games
		WHERE status = 'cancelled' AND escrow_status NOT IN ('paid_out', 'refunded')
		  AND (payout_attempted_at IS NULL OR payout_attempted_at < now() - make_interval(secs => $1))
		ORDER BY created_at ASC
		LIMIT $2
	`, retryAfter.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CompleteSettlement writes the terminal escrow state exactly once. The
// write is conditional on the escrow still being locked: a duplicate
// settlement trigger finds the condition false and becomes a no-op.
func (r *GameRepository) CompleteSettlement(ctx context.Context, gameID string, res *domain.SettlementResult) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE games
		SET escrow_status = $2,
		    payout_tx = NULLIF($3, ''),
		    payout_error = NULLIF($4, ''),
		    payout_attempted_at = now(),
		    settled_at = now()
		WHERE id = $1 AND escrow_status = 'locked'
	`, gameID, res.Outcome, res.PayoutTx, summarizeTransferErrors(res.TransferErrors))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for addr, sig := range res.Refunds {
		if _, err := tx.Exec(ctx, `
			UPDATE game_players SET refund_tx = $3 WHERE game_id = $1 AND address = $2
		`, gameID, addr, sig); err != nil {
			return false, err
		}
	}
	for addr, msg := range res.TransferErrors {
		if _, err := tx.Exec(ctx, `
			UPDATE game_players SET transfer_error = $3 WHERE game_id = $1 AND address = $2
		`, gameID, addr, msg); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RecordSettlementFailure annotates a failed settlement attempt without
// touching the escrow status, leaving the game retryable.
func (r *GameRepository) RecordSettlementFailure(ctx context.Context, gameID, msg string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE games
		SET payout_error = $2, payout_attempted_at = now()
		WHERE id = $1 AND escrow_status NOT IN ('paid_out', 'refunded')
	`, gameID, msg)
	return err
}

// MarkCancelled moves a waiting game to cancelled. Conditional on the game
// still waiting, so a cancel racing the second deposit loses cleanly.
func (r *GameRepository) MarkCancelled(ctx context.Context, gameID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE games SET status = 'cancelled' WHERE id = $1 AND status = 'waiting'
	`, gameID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteCancelRefund records the refund transfer of a cancelled game and
// moves the escrow straight to refunded, bypassing locked.
func (r *GameRepository) CompleteCancelRefund(ctx context.Context, gameID, playerAddr, refundTx string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE games
		SET escrow_status = 'refunded', settled_at = now()
		WHERE id = $1 AND escrow_status NOT IN ('paid_out', 'refunded')
	`, gameID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if refundTx != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE game_players SET refund_tx = $3 WHERE game_id = $1 AND address = $2
		`, gameID, playerAddr, refundTx); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeOldGames deletes settled games past the retention window. The
// used_signatures index is intentionally left alone: its presence is the
// replay guard, not a cache.
func (r *GameRepository) PurgeOldGames(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM games
		WHERE status IN ('finished', 'cancelled')
		  AND escrow_status IN ('paid_out', 'refunded')
		  AND created_at < now() - make_interval(secs => $1)
	`, olderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func summarizeTransferErrors(errs map[string]string) string {
	if len(errs) == 0 {
		return ""
	}
	addrs := make([]string, 0, len(errs))
	for a := range errs {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)

	var b strings.Builder
	for i, a := range addrs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(a)
		b.WriteString(": ")
		b.WriteString(errs[a])
	}
	return b.String()
}

// nullString scans a nullable text column into a plain string.
type nullString struct {
	s *string
}

func (n *nullString) Scan(src any) error {
	if src == nil {
		*n.s = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*n.s = v
	case []byte:
		*n.s = string(v)
	}
	return nil
}

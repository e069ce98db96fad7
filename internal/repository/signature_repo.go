package repository

import (
	"context"

	"wordstake_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SignatureRepository reads the global replay-protection index. Writes go
// through GameRepository.RecordDeposit so the claim stays inside the same
// transaction as the deposit itself.
type SignatureRepository struct {
	db *pgxpool.Pool
}

func NewSignatureRepository(db *pgxpool.Pool) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// IsUsed reports whether a transaction signature was already consumed by
// any game. The check spans all games: a signature is single-use globally.
func (r *SignatureRepository) IsUsed(ctx context.Context, txSignature string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM used_signatures WHERE tx_signature = $1)
	`, txSignature).Scan(&exists)
	return exists, err
}

// Get returns the claim record for a signature, (nil, nil) if unclaimed.
func (r *SignatureRepository) Get(ctx context.Context, txSignature string) (*domain.UsedSignature, error) {
	var u domain.UsedSignature
	err := r.db.QueryRow(ctx, `
		SELECT tx_signature, game_id, player_address, used_at
		FROM used_signatures
		WHERE tx_signature = $1
	`, txSignature).Scan(&u.TxSignature, &u.GameID, &u.PlayerAddress, &u.UsedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

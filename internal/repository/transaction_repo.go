package repository

import (
	"context"
	"encoding/json"
	"time"

	"wordstake_backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository is the audit ledger of money movements through the
// escrow (deposits credited, payouts, refunds). Operator visibility only;
// correctness never reads from it.
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a new audit entry.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	metaJSON, err := json.Marshal(t.Meta)
	if err != nil {
		metaJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx, `
		INSERT INTO transactions (player_address, game_id, type, amount, meta)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, t.PlayerAddress, t.GameID, t.Type, t.Amount, metaJSON).Scan(&t.ID, &t.CreatedAt)
}

// GetByPlayer returns recent entries for a wallet address.
func (r *TransactionRepository) GetByPlayer(ctx context.Context, playerAddr string, limit int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, player_address, game_id, type, amount, meta, created_at
		FROM transactions
		WHERE player_address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, playerAddr, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByGame returns every entry recorded for a game.
func (r *TransactionRepository) GetByGame(ctx context.Context, gameID string) ([]*domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_address, game_id, type, amount, meta, created_at
		FROM transactions
		WHERE game_id = $1
		ORDER BY created_at ASC
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var (
			t         domain.Transaction
			metaJSON  []byte
			createdAt time.Time
		)
		if err := rows.Scan(&t.ID, &t.PlayerAddress, &t.GameID, &t.Type, &t.Amount, &metaJSON, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = createdAt
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &t.Meta)
		}
		result = append(result, &t)
	}

	return result, rows.Err()
}

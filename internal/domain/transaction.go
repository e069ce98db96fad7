package domain

import "time"

// Transaction is one audit-ledger entry for money that moved through the
// escrow: a credited deposit, a payout or a refund. Amounts are in smallest
// units, negative for money leaving the player's side of the pot.
type Transaction struct {
	ID            int64                  `db:"id" json:"id"`
	PlayerAddress string                 `db:"player_address" json:"player_address"`
	GameID        string                 `db:"game_id" json:"game_id"`
	Type          string                 `db:"type" json:"type"`
	Amount        int64                  `db:"amount" json:"amount"`
	Meta          map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
}

const (
	TxTypeDeposit = "deposit"
	TxTypePayout  = "payout"
	TxTypeRefund  = "refund"
)

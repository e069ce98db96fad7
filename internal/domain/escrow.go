package domain

import "time"

// EscrowStatus is the state of the custodial escrow for one match.
// paid_out and refunded are terminal and must never transition further.
type EscrowStatus string

const (
	EscrowStatusPendingDeposits EscrowStatus = "pending_deposits"
	EscrowStatusLocked          EscrowStatus = "locked"
	EscrowStatusPaidOut         EscrowStatus = "paid_out"
	EscrowStatusRefunded        EscrowStatus = "refunded"
)

// Terminal reports whether no further settlement action may execute.
func (s EscrowStatus) Terminal() bool {
	return s == EscrowStatusPaidOut || s == EscrowStatusRefunded
}

// Deposit is a confirmed on-chain stake from one player, amount in the
// currency's smallest unit.
type Deposit struct {
	ID            int64     `db:"id" json:"id"`
	GameID        string    `db:"game_id" json:"game_id"`
	PlayerAddress string    `db:"player_address" json:"player_address"`
	TxSignature   string    `db:"tx_signature" json:"tx_signature"`
	Amount        int64     `db:"amount" json:"amount"`
	Currency      Currency  `db:"currency" json:"currency"`
	ConfirmedAt   time.Time `db:"confirmed_at" json:"confirmed_at"`
}

// EscrowState is embedded in a GameRecord. Status becomes locked iff both
// deposits are present.
type EscrowState struct {
	Status            EscrowStatus `db:"escrow_status" json:"status"`
	Deposits          []Deposit    `db:"-" json:"deposits"`
	PayoutTx          string       `db:"payout_tx" json:"payout_tx,omitempty"`
	PayoutError       string       `db:"payout_error" json:"payout_error,omitempty"`
	PayoutAttemptedAt *time.Time   `db:"payout_attempted_at" json:"payout_attempted_at,omitempty"`
	SettledAt         *time.Time   `db:"settled_at" json:"settled_at,omitempty"`
}

// DepositFor returns the recorded deposit of the given player, if any.
func (e *EscrowState) DepositFor(addr string) *Deposit {
	for i := range e.Deposits {
		if e.Deposits[i].PlayerAddress == addr {
			return &e.Deposits[i]
		}
	}
	return nil
}

// Pot is the sum of both recorded deposit amounts in smallest units.
func (e *EscrowState) Pot() int64 {
	var total int64
	for _, d := range e.Deposits {
		total += d.Amount
	}
	return total
}

// UsedSignature is the global replay-protection record: a transaction
// signature may be claimed by at most one (game, player) pair, ever.
// Entries are write-once and never deleted.
type UsedSignature struct {
	TxSignature   string    `db:"tx_signature" json:"tx_signature"`
	GameID        string    `db:"game_id" json:"game_id"`
	PlayerAddress string    `db:"player_address" json:"player_address"`
	UsedAt        time.Time `db:"used_at" json:"used_at"`
}

// SettlementResult is what the settlement engine produces after all transfer
// attempts for one game. Refunds and TransferErrors are keyed by player
// address; a player missing from Refunds had no successful transfer.
type SettlementResult struct {
	Outcome        EscrowStatus      `json:"outcome"`
	PayoutTx       string            `json:"payout_tx,omitempty"`
	Refunds        map[string]string `json:"refunds,omitempty"`
	TransferErrors map[string]string `json:"transfer_errors,omitempty"`
}

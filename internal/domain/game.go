package domain

import "time"

// GameStatus represents the lifecycle state of a match.
// It only moves forward: waiting -> playing -> finished, or diverts to
// cancelled from waiting. Never backward.
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "waiting"
	GameStatusPlaying   GameStatus = "playing"
	GameStatusFinished  GameStatus = "finished"
	GameStatusCancelled GameStatus = "cancelled"
)

// PlayerState is one of the two player slots of a GameRecord.
// The wallet address doubles as the account identifier.
type PlayerState struct {
	Address       string     `db:"address" json:"address"`
	DisplayName   string     `db:"display_name" json:"display_name"`
	Score         int64      `db:"score" json:"score"`
	WordsFound    []string   `db:"words_found" json:"words_found"`
	IsReady       bool       `db:"is_ready" json:"is_ready"`
	LastActivity  time.Time  `db:"last_activity" json:"last_activity"`
	RefundTx      string     `db:"refund_tx" json:"refund_tx,omitempty"`
	TransferError string     `db:"transfer_error" json:"transfer_error,omitempty"`
	JoinedAt      time.Time  `db:"joined_at" json:"joined_at"`
	Deposit       *Deposit   `db:"-" json:"deposit,omitempty"`
}

// HasWord reports whether the player already submitted the given word.
func (p *PlayerState) HasWord(word string) bool {
	for _, w := range p.WordsFound {
		if w == word {
			return true
		}
	}
	return false
}

// GameRecord is one match. Letters are fixed at creation and immutable for
// the match's lifetime.
type GameRecord struct {
	ID          string        `db:"id" json:"id"`
	Status      GameStatus    `db:"status" json:"status"`
	Letters     []string      `db:"letters" json:"letters"`
	BetAmount   int64         `db:"bet_amount" json:"bet_amount"`
	BetCurrency Currency      `db:"bet_currency" json:"bet_currency"`
	Players     []PlayerState `db:"-" json:"players"`
	Winner      *string       `db:"winner_address" json:"winner,omitempty"`
	ForfeitedBy *string       `db:"forfeited_by" json:"forfeited_by,omitempty"`
	Escrow      EscrowState   `db:"-" json:"escrow"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	StartedAt   *time.Time    `db:"started_at" json:"started_at,omitempty"`
	Deadline    *time.Time    `db:"deadline" json:"deadline,omitempty"`
}

// PlayerByAddress returns the player slot for the given wallet address.
func (g *GameRecord) PlayerByAddress(addr string) *PlayerState {
	for i := range g.Players {
		if g.Players[i].Address == addr {
			return &g.Players[i]
		}
	}
	return nil
}

// Opponent returns the other player slot, if present.
func (g *GameRecord) Opponent(addr string) *PlayerState {
	for i := range g.Players {
		if g.Players[i].Address != addr {
			return &g.Players[i]
		}
	}
	return nil
}

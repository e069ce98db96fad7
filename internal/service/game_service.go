package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/game"
	"wordstake_backend/internal/logger"
	"wordstake_backend/internal/solana"
)

// GameService covers the match lifecycle outside word play: matchmaking,
// forfeits and pre-start cancellation.
type GameService struct {
	games       GameStore
	settlements *SettlementService
	notifier    Notifier

	letterCount int
	minBet      int64
	maxBet      int64
}

func NewGameService(games GameStore, settlements *SettlementService, notifier Notifier, letterCount int, minBet, maxBet int64) *GameService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &GameService{
		games:       games,
		settlements: settlements,
		notifier:    notifier,
		letterCount: letterCount,
		minBet:      minBet,
		maxBet:      maxBet,
	}
}

// CreateOrJoin puts the player into an open game with a matching stake, or
// opens a new one when none is waiting. The letter pool is drawn at creation
// and never changes afterwards.
func (s *GameService) CreateOrJoin(ctx context.Context, playerAddr, displayName string, betAmount int64, currency domain.Currency) (*domain.GameRecord, error) {
	if !solana.ValidateAddress(playerAddr) {
		return nil, ErrInvalidAddress
	}
	if !currency.Supported() {
		return nil, ErrUnsupportedCurrency
	}
	if betAmount <= 0 {
		return nil, ErrInvalidBet
	}
	if betAmount < s.minBet {
		return nil, ErrBetTooLow
	}
	if s.maxBet > 0 && betAmount > s.maxBet {
		return nil, ErrBetTooHigh
	}

	now := time.Now().UTC()
	player := domain.PlayerState{
		Address:      playerAddr,
		DisplayName:  displayName,
		WordsFound:   []string{},
		LastActivity: now,
		JoinedAt:     now,
	}

	joinedID, err := s.games.JoinOpenGame(ctx, betAmount, currency, player)
	if err != nil {
		return nil, err
	}
	if joinedID != "" {
		g, err := s.games.Get(ctx, joinedID)
		if err != nil {
			return nil, err
		}
		logger.Info("player joined game",
			"game_id", joinedID, "player", playerAddr, "bet", betAmount)
		s.notifier.PublishGame(g)
		return g, nil
	}

	g := &domain.GameRecord{
		ID:          uuid.NewString(),
		Status:      domain.GameStatusWaiting,
		Letters:     game.GeneratePool(s.letterCount),
		BetAmount:   betAmount,
		BetCurrency: currency,
		Players:     []domain.PlayerState{player},
		Escrow:      domain.EscrowState{Status: domain.EscrowStatusPendingDeposits},
		CreatedAt:   now,
	}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, err
	}

	logger.Info("game created",
		"game_id", g.ID, "player", playerAddr, "bet", betAmount, "currency", currency)
	s.notifier.PublishGame(g)
	return g, nil
}

// Get returns a game snapshot, or ErrUnknownGameOrPlayer when it does not
// exist.
func (s *GameService) Get(ctx context.Context, gameID string) (*domain.GameRecord, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrUnknownGameOrPlayer
	}
	return g, nil
}

// Forfeit ends a live round early; the opponent wins regardless of score.
// Settlement then pays them the full pot through the usual path.
func (s *GameService) Forfeit(ctx context.Context, gameID, playerAddr string) (*domain.GameRecord, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil || g.PlayerByAddress(playerAddr) == nil {
		return nil, ErrUnknownGameOrPlayer
	}
	if g.Status != domain.GameStatusPlaying {
		return nil, ErrGameNotPlaying
	}
	opponent := g.Opponent(playerAddr)
	if opponent == nil {
		return nil, ErrUnknownGameOrPlayer
	}

	applied, err := s.games.Finish(ctx, gameID, &opponent.Address, &playerAddr)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrAlreadyFinished
	}

	logger.Info("game forfeited",
		"game_id", gameID, "forfeited_by", playerAddr, "winner", opponent.Address)

	if s.settlements != nil {
		if err := s.settlements.Settle(ctx, gameID); err != nil {
			// the settlement worker retries; the forfeit itself stands
			logger.Error("settlement after forfeit failed", "game_id", gameID, "error", err)
		}
	}

	updated, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.notifier.PublishGame(updated)
	return updated, nil
}

// Cancel withdraws a game that has not started. The status flip to cancelled
// comes first and is conditional on waiting, so a deposit that locks the
// escrow concurrently makes the cancel fail rather than strand a stake.
// Any deposit already credited is refunded, capped at the configured bet;
// the escrow always ends refunded, deposit or not.
func (s *GameService) Cancel(ctx context.Context, gameID, playerAddr string) (*domain.GameRecord, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil || g.PlayerByAddress(playerAddr) == nil {
		return nil, ErrUnknownGameOrPlayer
	}
	switch g.Status {
	case domain.GameStatusWaiting:
	case domain.GameStatusPlaying:
		return nil, ErrCancelInProgress
	default:
		return nil, ErrAlreadyFinished
	}

	applied, err := s.games.MarkCancelled(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// lost the race to a second deposit or another transition
		return nil, ErrGameNotWaiting
	}

	logger.Info("game cancelled", "game_id", gameID, "by", playerAddr)

	if s.settlements != nil {
		// the cancel itself stands; the sweep retries the refund until the
		// escrow reaches refunded
		if err := s.settlements.SettleCancelled(ctx, gameID); err != nil {
			logger.Error("cancel refund deferred to sweep", "game_id", gameID, "error", err)
		}
	}

	updated, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.notifier.PublishGame(updated)
	return updated, nil
}

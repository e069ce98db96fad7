package service

import (
	"context"

	"wordstake_backend/internal/dictionary"
	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/game"
	"wordstake_backend/internal/logger"
)

// WordService validates and credits word submissions during a live round.
type WordService struct {
	games    GameStore
	dict     *dictionary.Dictionary
	notifier Notifier
}

func NewWordService(games GameStore, dict *dictionary.Dictionary, notifier Notifier) *WordService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &WordService{games: games, dict: dict, notifier: notifier}
}

// WordResult is the accepted-path response of a submission.
type WordResult struct {
	Word       string `json:"word"`
	Points     int64  `json:"points"`
	TotalScore int64  `json:"total_score"`
}

// SubmitWord checks a word against the round state, the letter pool and the
// dictionary, then credits it through a single conditional write. Two
// concurrent submissions of the same word can both pass the cheap duplicate
// pre-check; only one survives the conditional update, so a word is never
// scored twice.
func (s *WordService) SubmitWord(ctx context.Context, gameID, playerAddr, rawWord string) (*WordResult, error) {
	g, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, s.reject(ErrUnknownGameOrPlayer)
	}
	if g.Status != domain.GameStatusPlaying {
		return nil, s.reject(ErrGameNotPlaying)
	}
	player := g.PlayerByAddress(playerAddr)
	if player == nil {
		return nil, s.reject(ErrUnknownGameOrPlayer)
	}

	word := game.Normalize(rawWord)
	if len(word) < game.MinWordLength {
		return nil, s.reject(ErrWordTooShort)
	}
	if !game.CanForm(word, g.Letters) {
		return nil, s.reject(ErrWordNotFormable)
	}
	if !s.dict.Contains(word) {
		return nil, s.reject(ErrWordNotInDictionary)
	}
	if player.HasWord(word) {
		return nil, s.reject(ErrDuplicateWord)
	}

	points := game.Score(word)
	added, total, err := s.games.AddWordIfAbsent(ctx, gameID, playerAddr, word, points)
	if err != nil {
		return nil, err
	}
	if !added {
		// lost the conditional write to a concurrent submission, or the
		// round flipped out of playing between the read and the write
		return nil, s.reject(ErrDuplicateWord)
	}

	wordsAccepted.Inc()
	logger.Debug("word accepted",
		"game_id", gameID, "player", playerAddr, "word", word, "points", points)

	if updated, err := s.games.Get(ctx, gameID); err == nil && updated != nil {
		s.notifier.PublishGame(updated)
	}

	return &WordResult{Word: word, Points: points, TotalScore: total}, nil
}

func (s *WordService) reject(err error) error {
	wordsRejected.WithLabelValues(err.Error()).Inc()
	return err
}

package service

import (
	"context"
	"errors"
	"testing"

	"wordstake_backend/internal/dictionary"
	"wordstake_backend/internal/domain"
)

var testDict = dictionary.FromWords([]string{"test", "slate", "stone", "rat", "tail", "butter"})

func TestSubmitWordAccepted(t *testing.T) {
	store := newFakeStore(playingGame(1_000_000))
	svc := NewWordService(store, testDict, nil)

	res, err := svc.SubmitWord(context.Background(), "g1", addrAlice, "test")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Word != "TEST" {
		t.Errorf("word = %q, want normalized TEST", res.Word)
	}
	if res.Points != 5 {
		t.Errorf("points = %d, want 5", res.Points)
	}
	if res.TotalScore != 5 {
		t.Errorf("total = %d, want 5", res.TotalScore)
	}
}

func TestSubmitWordAccumulatesScore(t *testing.T) {
	store := newFakeStore(playingGame(1_000_000))
	svc := NewWordService(store, testDict, nil)
	ctx := context.Background()

	if _, err := svc.SubmitWord(ctx, "g1", addrAlice, "test"); err != nil {
		t.Fatalf("first: %v", err)
	}
	res, err := svc.SubmitWord(ctx, "g1", addrAlice, "slate")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if res.TotalScore != 13 { // 5 + 8
		t.Errorf("total = %d, want 13", res.TotalScore)
	}

	// players score independently
	res, err = svc.SubmitWord(ctx, "g1", addrBob, "test")
	if err != nil {
		t.Fatalf("bob: %v", err)
	}
	if res.TotalScore != 5 {
		t.Errorf("bob total = %d, want 5", res.TotalScore)
	}
}

func TestSubmitWordRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *domain.GameRecord)
		player  string
		word    string
		wantErr error
	}{
		{
			name:    "game not playing",
			mutate:  func(g *domain.GameRecord) { g.Status = domain.GameStatusWaiting },
			player:  addrAlice,
			word:    "test",
			wantErr: ErrGameNotPlaying,
		},
		{
			name:    "finished round",
			mutate:  func(g *domain.GameRecord) { g.Status = domain.GameStatusFinished },
			player:  addrAlice,
			word:    "test",
			wantErr: ErrGameNotPlaying,
		},
		{
			name:    "player not in game",
			player:  "StrangerAddr",
			word:    "test",
			wantErr: ErrUnknownGameOrPlayer,
		},
		{
			name:    "too short",
			player:  addrAlice,
			word:    "at",
			wantErr: ErrWordTooShort,
		},
		{
			name:    "not formable from pool",
			player:  addrAlice,
			word:    "butter", // no B or U in the pool
			wantErr: ErrWordNotFormable,
		},
		{
			name:    "not in dictionary",
			player:  addrAlice,
			word:    "tsar",
			wantErr: ErrWordNotInDictionary,
		},
		{
			name: "duplicate word",
			mutate: func(g *domain.GameRecord) {
				g.Players[0].WordsFound = []string{"TEST"}
			},
			player:  addrAlice,
			word:    "test",
			wantErr: ErrDuplicateWord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := playingGame(1_000_000)
			if tt.mutate != nil {
				tt.mutate(g)
			}
			store := newFakeStore(g)
			svc := NewWordService(store, testDict, nil)

			_, err := svc.SubmitWord(context.Background(), "g1", tt.player, tt.word)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitWordUnknownGame(t *testing.T) {
	svc := NewWordService(newFakeStore(), testDict, nil)
	_, err := svc.SubmitWord(context.Background(), "missing", addrAlice, "test")
	if !errors.Is(err, ErrUnknownGameOrPlayer) {
		t.Fatalf("got %v, want ErrUnknownGameOrPlayer", err)
	}
}

// The conditional write is the last line of defense: if the duplicate
// pre-check passes on a stale read, the store-level write still refuses the
// second credit.
func TestSubmitWordConditionalWriteBlocksDoubleCredit(t *testing.T) {
	g := playingGame(1_000_000)
	store := newFakeStore(g)
	svc := NewWordService(store, testDict, nil)
	ctx := context.Background()

	if _, err := svc.SubmitWord(ctx, "g1", addrAlice, "test"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.SubmitWord(ctx, "g1", addrAlice, "test"); !errors.Is(err, ErrDuplicateWord) {
		t.Fatalf("got %v, want ErrDuplicateWord", err)
	}

	updated, _ := store.Get(ctx, "g1")
	if p := updated.PlayerByAddress(addrAlice); p.Score != 5 {
		t.Fatalf("score = %d, want 5 (single credit)", p.Score)
	}
}

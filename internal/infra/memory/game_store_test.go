package memory

import (
	"context"
	"testing"

	"hotseat-quiz/internal/app"
	"hotseat-quiz/internal/domain"
)

func TestGameStoreLifecycle(t *testing.T) {
	store := NewGameStore()
	created := 0
	create := func(id string) *app.Game {
		created++
		return app.NewGame(id, builtinSource())
	}

	game := store.GetOrCreate("table-1", create)
	if game == nil {
		t.Fatalf("expected game")
	}
	if again := store.GetOrCreate("table-1", create); again != game || created != 1 {
		t.Fatalf("expected the same table to be reused, created=%d", created)
	}

	err := game.StartGame(context.Background(), domain.GameConfig{
		SelectedBankIDs:  []string{domain.BuiltinBankID},
		Players:          []domain.Player{{ID: "p1", Name: "Alice"}},
		RoundCount:       1,
		TimeLimitSeconds: 30,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	store.DeleteIfIdle("table-1")
	if _, ok := store.Get("table-1"); !ok {
		t.Fatalf("expected busy table to be kept")
	}

	game.ResetGame()
	store.DeleteIfIdle("table-1")
	if _, ok := store.Get("table-1"); ok {
		t.Fatalf("expected idle table removed")
	}
}

func builtinSource() app.QuestionSource {
	return app.NewBankService(NewBankStore())
}

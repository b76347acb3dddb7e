package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hotseat-quiz/internal/domain"
)

func TestBankStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "banks.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	empty, err := store.LoadCustomBanks(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no banks, got %d", len(empty))
	}

	bank := domain.QuestionBank{
		ID:        "bank-1",
		Name:      "Geography",
		Kind:      domain.BankCustom,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Questions: []domain.Question{{
			ID:              "q1",
			Text:            "Capital of France?",
			Options:         []domain.Option{{ID: "a", Text: "Paris"}, {ID: "b", Text: "Lyon"}},
			CorrectOptionID: "a",
		}},
	}
	if err := store.SaveCustomBanks(ctx, []domain.QuestionBank{bank}); err != nil {
		t.Fatalf("save: %v", err)
	}
	bank.Name = "Geography v2"
	if err := store.SaveCustomBanks(ctx, []domain.QuestionBank{bank}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.LoadCustomBanks(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "Geography v2" {
		t.Fatalf("expected the latest record, got %+v", loaded)
	}
	if !loaded[0].CreatedAt.Equal(bank.CreatedAt) {
		t.Fatalf("expected createdAt %v, got %v", bank.CreatedAt, loaded[0].CreatedAt)
	}
}

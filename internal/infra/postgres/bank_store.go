package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"hotseat-quiz/internal/domain"
)

// RecordKey is the bank_records row that holds all custom banks.
const RecordKey = "quiz-game-banks"

type bankRecord struct {
	Version     int                   `json:"version"`
	CustomBanks []domain.QuestionBank `json:"customBanks"`
}

// BankStore keeps the custom bank list as one JSONB row in Postgres.
type BankStore struct {
	pool *pgxpool.Pool
}

func NewBankStore(pool *pgxpool.Pool) *BankStore {
	return &BankStore{pool: pool}
}

func (s *BankStore) LoadCustomBanks(ctx context.Context) ([]domain.QuestionBank, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM bank_records WHERE key=$1`, RecordKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.QuestionBank{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load banks: %w", err)
	}
	var record bankRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal banks: %w", err)
	}
	return record.CustomBanks, nil
}

func (s *BankStore) SaveCustomBanks(ctx context.Context, banks []domain.QuestionBank) error {
	if banks == nil {
		banks = []domain.QuestionBank{}
	}
	data, err := json.Marshal(bankRecord{Version: 1, CustomBanks: banks})
	if err != nil {
		return fmt.Errorf("marshal banks: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO bank_records (key, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		RecordKey, string(data))
	if err != nil {
		return fmt.Errorf("save banks: %w", err)
	}
	return nil
}

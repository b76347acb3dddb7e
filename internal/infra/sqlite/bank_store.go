package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotseat-quiz/internal/domain"
	_ "modernc.org/sqlite"
)

const recordKey = "quiz-game-banks"

const schema = `CREATE TABLE IF NOT EXISTS bank_records (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type bankRecord struct {
	Version     int                   `json:"version"`
	CustomBanks []domain.QuestionBank `json:"customBanks"`
}

// BankStore keeps the custom bank list in a local SQLite file.
type BankStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file and table if needed.
func Open(ctx context.Context, path string) (*BankStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer keeps SQLite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bank_records: %w", err)
	}
	return &BankStore{db: db, now: time.Now}, nil
}

func (s *BankStore) Close() error {
	return s.db.Close()
}

func (s *BankStore) LoadCustomBanks(ctx context.Context) ([]domain.QuestionBank, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM bank_records WHERE key = ?`, recordKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.QuestionBank{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load banks: %w", err)
	}
	var record bankRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
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
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bank_records (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		recordKey, string(data), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save banks: %w", err)
	}
	return nil
}

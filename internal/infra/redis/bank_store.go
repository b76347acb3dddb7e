package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"hotseat-quiz/internal/domain"
)

// BanksKey holds the whole custom bank list as one JSON record.
const BanksKey = "quiz-game-banks"

const recordVersion = 1

type bankRecord struct {
	Version     int                   `json:"version"`
	CustomBanks []domain.QuestionBank `json:"customBanks"`
}

// BankStore persists custom banks under a single Redis key.
type BankStore struct {
	client *redis.Client
	key    string
	sf     singleflight.Group
}

func NewBankStore(client *redis.Client) *BankStore {
	return &BankStore{client: client, key: BanksKey}
}

func (s *BankStore) LoadCustomBanks(ctx context.Context) ([]domain.QuestionBank, error) {
	result, err, _ := s.sf.Do(s.key, func() (interface{}, error) {
		raw, err := s.client.Get(ctx, s.key).Bytes()
		if errors.Is(err, redis.Nil) {
			return []domain.QuestionBank{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", s.key, err)
		}
		var record bankRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.key, err)
		}
		return record.CustomBanks, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionBank), nil
}

func (s *BankStore) SaveCustomBanks(ctx context.Context, banks []domain.QuestionBank) error {
	if banks == nil {
		banks = []domain.QuestionBank{}
	}
	data, err := json.Marshal(bankRecord{Version: recordVersion, CustomBanks: banks})
	if err != nil {
		return fmt.Errorf("encode banks: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

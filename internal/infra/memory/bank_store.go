package memory

import (
	"context"
	"sync"

	"hotseat-quiz/internal/domain"
)

// BankStore keeps the custom bank record in process memory. Useful for tests and demos.
type BankStore struct {
	mu     sync.RWMutex
	banks  []domain.QuestionBank
	saves  int
	failOn error
}

// NewBankStore seeds the store with banks.
func NewBankStore(banks ...domain.QuestionBank) *BankStore {
	return &BankStore{banks: append([]domain.QuestionBank(nil), banks...)}
}

func (s *BankStore) LoadCustomBanks(_ context.Context) ([]domain.QuestionBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuestionBank(nil), s.banks...), nil
}

func (s *BankStore) SaveCustomBanks(_ context.Context, banks []domain.QuestionBank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != nil {
		return s.failOn
	}
	s.banks = append([]domain.QuestionBank(nil), banks...)
	s.saves++
	return nil
}

// Saves reports how many successful writes the store has seen.
func (s *BankStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// FailWrites makes every later save return err, simulating a full disk or quota.
func (s *BankStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = err
}

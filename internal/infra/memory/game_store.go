package memory

import (
	"sync"

	"hotseat-quiz/internal/app"
)

// GameStore keeps the open game tables of this process, keyed by table id.
// A table is created on first use and lives until it goes back to idle and is released.
type GameStore struct {
	mu     sync.RWMutex
	tables map[string]*app.Game
}

func NewGameStore() *GameStore {
	return &GameStore{tables: make(map[string]*app.Game)}
}

// GetOrCreate returns the table, building it with create on first use.
func (s *GameStore) GetOrCreate(tableID string, create func(string) *app.Game) *app.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table, ok := s.tables[tableID]; ok {
		return table
	}
	table := create(tableID)
	s.tables[tableID] = table
	return table
}

func (s *GameStore) Get(tableID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.tables[tableID]
	return table, ok
}

// DeleteIfIdle forgets the table unless a game is still running on it.
// A table in the question, result or finished phase is kept so its players can return.
func (s *GameStore) DeleteIfIdle(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table, ok := s.tables[tableID]; ok && table.IsIdle() {
		delete(s.tables, tableID)
	}
}

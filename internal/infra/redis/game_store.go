package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"hotseat-quiz/internal/app"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Game state itself never leaves the process; Redis only carries a liveness
// marker per open table so operators can see which tables are in use.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *GameStore) GetOrCreate(tableID string, create func(string) *app.Game) *app.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	// best-effort liveness marker, refreshed on every open
	_ = s.client.Set(context.Background(), s.key(tableID), "1", s.ttl).Err()
	if game, ok := s.games[tableID]; ok {
		return game
	}
	game := create(tableID)
	s.games[tableID] = game
	return game
}

func (s *GameStore) Get(tableID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[tableID]
	return game, ok
}

func (s *GameStore) DeleteIfIdle(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games[tableID]
	if !ok {
		return
	}
	if game.IsIdle() {
		delete(s.games, tableID)
		_ = s.client.Del(context.Background(), s.key(tableID)).Err()
	}
}

func (s *GameStore) key(tableID string) string {
	return "quiz:table:" + tableID
}

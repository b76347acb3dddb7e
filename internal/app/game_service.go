package app

import (
	"sync"
	"time"

	"hotseat-quiz/internal/domain"
)

// GameRepository abstracts how game tables are stored (in-memory, Redis, etc).
type GameRepository interface {
	GetOrCreate(tableID string, create func(tableID string) *Game) *Game
	Get(tableID string) (*Game, bool)
	DeleteIfIdle(tableID string)
}

// GameService routes callers to the game table they play at.
// Every Open must be paired with a Release; a table is dropped only when nobody holds it.
type GameService struct {
	games  GameRepository
	source QuestionSource
	unit   time.Duration

	mu         sync.Mutex
	countdowns map[string]*Countdown
	holders    map[string]int
}

// NewGameService wires tables to a question source. A positive countdownUnit starts a Countdown
// per table that times out unanswered turns; zero leaves timeouts to the caller.
func NewGameService(games GameRepository, source QuestionSource, countdownUnit time.Duration) *GameService {
	return &GameService{
		games:      games,
		source:     source,
		unit:       countdownUnit,
		countdowns: make(map[string]*Countdown),
		holders:    make(map[string]int),
	}
}

// Open returns the table with the given id, creating it when needed, and registers the caller as a holder.
func (s *GameService) Open(tableID string) *Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	game := s.games.GetOrCreate(tableID, func(id string) *Game {
		return NewGame(id, s.source)
	})
	s.holders[tableID]++
	if s.unit > 0 {
		if _, ok := s.countdowns[tableID]; !ok {
			s.countdowns[tableID] = StartCountdown(game, s.unit)
		}
	}
	return game
}

// Table looks up an existing table.
func (s *GameService) Table(tableID string) (*Game, error) {
	game, ok := s.games.Get(tableID)
	if !ok {
		return nil, domain.ErrTableNotFound
	}
	return game, nil
}

// Release drops the caller's hold. The table goes away once it is idle, unheld,
// and nobody but its countdown is watching it.
func (s *GameService) Release(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.holders[tableID] > 0 {
		s.holders[tableID]--
	}
	if s.holders[tableID] > 0 {
		return
	}
	game, ok := s.games.Get(tableID)
	if !ok || !game.IsIdle() {
		return
	}
	own := 0
	if _, counting := s.countdowns[tableID]; counting {
		own = 1
	}
	if game.Subscribers() > own {
		return
	}
	delete(s.holders, tableID)
	s.stopCountdownLocked(tableID)
	s.games.DeleteIfIdle(tableID)
}

// Close resets the table and drops it from the repository regardless of holders.
func (s *GameService) Close(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game, ok := s.games.Get(tableID)
	if !ok {
		return
	}
	delete(s.holders, tableID)
	s.stopCountdownLocked(tableID)
	game.ResetGame()
	s.games.DeleteIfIdle(tableID)
}

func (s *GameService) stopCountdownLocked(tableID string) {
	if c, ok := s.countdowns[tableID]; ok {
		delete(s.countdowns, tableID)
		c.Stop()
	}
}

package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"hotseat-quiz/internal/domain"
)

// QuestionSource produces a merged, shuffled question list for a bank selection.
type QuestionSource interface {
	MergeQuestions(bankIDs []string) []domain.Question
}

// Game is the turn state machine of one table. Actions called in the wrong phase are no-ops.
type Game struct {
	id     string
	source QuestionSource
	now    func() time.Time

	mu          sync.RWMutex
	phase       domain.Phase
	session     *domain.GameSession
	generation  int
	subscribers map[chan domain.GameState]struct{}
}

func NewGame(id string, source QuestionSource) *Game {
	return NewGameWithClock(id, source, time.Now)
}

// NewGameWithClock allows deterministic timestamps in tests.
func NewGameWithClock(id string, source QuestionSource, now func() time.Time) *Game {
	return &Game{
		id:          id,
		source:      source,
		now:         now,
		phase:       domain.PhaseIdle,
		subscribers: make(map[chan domain.GameState]struct{}),
	}
}

func (g *Game) ID() string {
	return g.id
}

// StartGame builds the question pool and enters the question phase.
// It returns domain.ErrNoQuestions, leaving the table idle, when the selected banks are empty.
func (g *Game) StartGame(ctx context.Context, cfg domain.GameConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != domain.PhaseIdle {
		return nil
	}
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return err
	}

	pool, capped := BuildQuestionPool(g.source.MergeQuestions(cfg.SelectedBankIDs), cfg)
	if len(pool) == 0 {
		log.Printf("table %s: no questions available for banks %v", g.id, cfg.SelectedBankIDs)
		return domain.ErrNoQuestions
	}

	scores := make(map[string]int, len(cfg.Players))
	for _, p := range cfg.Players {
		scores[p.ID] = 0
	}
	g.session = &domain.GameSession{
		Config:       cfg,
		QuestionPool: pool,
		Scores:       scores,
		WasCapped:    capped,
	}
	g.generation++
	g.phase = domain.PhaseQuestion
	g.broadcastLocked()
	return nil
}

// SubmitAnswer scores the current turn. A nil optionID is a timeout.
// It reports whether the answer was applied.
func (g *Game) SubmitAnswer(optionID *string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitLocked(optionID)
}

// ExpireTurn submits a timeout only if the given game and turn are still waiting for an answer.
func (g *Game) ExpireTurn(generation, turn int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil || g.generation != generation || g.session.CurrentTurnIndex != turn {
		return false
	}
	return g.submitLocked(nil)
}

func (g *Game) submitLocked(optionID *string) bool {
	if g.phase != domain.PhaseQuestion || g.session == nil {
		return false
	}
	question, ok := CurrentQuestion(g.session)
	if !ok {
		return false
	}

	correct := optionID != nil && *optionID == question.CorrectOptionID
	next := *g.session
	if correct {
		next.Scores = ApplyScore(g.session.Scores, CurrentPlayer(g.session).ID, 1)
	}
	next.LastAnswerCorrect = &correct
	next.LastAnsweredOptionID = nil
	if optionID != nil {
		selected := *optionID
		next.LastAnsweredOptionID = &selected
	}

	g.session = &next
	g.phase = domain.PhaseResult
	g.broadcastLocked()
	return true
}

// ContinueToNext advances to the next turn, or finishes the game after the last one.
func (g *Game) ContinueToNext() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != domain.PhaseResult || g.session == nil {
		return false
	}

	if IsLastTurn(g.session) {
		g.phase = domain.PhaseFinished
	} else {
		next := *g.session
		next.CurrentTurnIndex++
		next.LastAnswerCorrect = nil
		next.LastAnsweredOptionID = nil
		g.session = &next
		g.phase = domain.PhaseQuestion
	}
	g.broadcastLocked()
	return true
}

// ResetGame discards the session from any phase.
func (g *Game) ResetGame() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = nil
	g.phase = domain.PhaseIdle
	g.broadcastLocked()
}

// Leaderboard returns dense-ranked standings, empty when there is no session.
func (g *Game) Leaderboard() []domain.RankedPlayer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Leaderboard(g.session)
}

func (g *Game) Phase() domain.Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// Session returns a copy of the current session, or nil.
func (g *Game) Session() *domain.GameSession {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil
	}
	cp := *g.session
	return &cp
}

// Generation increments every time a game starts on this table.
func (g *Game) Generation() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

func (g *Game) State() domain.GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

// IsIdle reports whether no game is in progress.
func (g *Game) IsIdle() bool {
	return g.Phase() == domain.PhaseIdle
}

// Subscribers counts open subscriptions.
func (g *Game) Subscribers() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subscribers)
}

// Subscribe returns a channel of state snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan domain.GameState, func()) {
	ch := make(chan domain.GameState, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	// the buffer is empty, so this cannot block; sending under the lock keeps it ahead of any broadcast
	ch <- g.snapshotLocked()
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) broadcastLocked() {
	state := g.snapshotLocked()
	for ch := range g.subscribers {
		select {
		case ch <- state:
		default:
			// drop the oldest snapshot so slow subscribers always end on the latest one
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (g *Game) snapshotLocked() domain.GameState {
	state := domain.GameState{
		TableID:    g.id,
		Phase:      g.phase,
		Generation: g.generation,
		UpdatedAt:  g.now(),
	}
	if g.session == nil {
		return state
	}
	session := *g.session
	player := CurrentPlayer(&session)
	state.Session = &session
	state.CurrentPlayer = &player
	state.CurrentRound = CurrentRound(&session)
	state.TotalTurns = TotalTurns(&session)
	if q, ok := CurrentQuestion(&session); ok {
		state.CurrentQuestion = &q
	}
	return state
}

func normalizeConfig(cfg domain.GameConfig) (domain.GameConfig, error) {
	if n := len(cfg.Players); n < domain.MinPlayers || n > domain.MaxPlayers {
		return cfg, domain.Invalid("players", "need %d to %d players, got %d", domain.MinPlayers, domain.MaxPlayers, n)
	}
	if cfg.RoundCount < 1 {
		return cfg, domain.Invalid("roundCount", "round count must be at least 1")
	}
	if cfg.RoundCount > math.MaxInt/len(cfg.Players) {
		return cfg, domain.Invalid("roundCount", "round count %d is too large", cfg.RoundCount)
	}
	if cfg.TimeLimitSeconds < domain.MinTimeLimitSeconds {
		return cfg, domain.Invalid("timeLimitSeconds", "time limit must be at least %d seconds", domain.MinTimeLimitSeconds)
	}

	players := make([]domain.Player, len(cfg.Players))
	seen := make(map[string]struct{}, len(cfg.Players))
	for i, p := range cfg.Players {
		if p.ID == "" {
			return cfg, domain.Invalid("players", "player %d has no id", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return cfg, domain.Invalid("players", "duplicate player id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			p.Name = fmt.Sprintf("Player %d", i+1)
		}
		p.TurnOrder = i
		players[i] = p
	}
	cfg.Players = players
	cfg.SelectedBankIDs = append([]string(nil), cfg.SelectedBankIDs...)
	return cfg, nil
}

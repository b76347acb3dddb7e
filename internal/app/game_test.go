package app

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"hotseat-quiz/internal/domain"
)

// staticSource returns the questions of the selected banks unshuffled.
type staticSource map[string][]domain.Question

func (s staticSource) MergeQuestions(bankIDs []string) []domain.Question {
	var out []domain.Question
	for _, id := range bankIDs {
		out = append(out, s[id]...)
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestGame(questions int) *Game {
	return NewGameWithClock("table-1", staticSource{"bank": testBank("bank", questions).Questions}, fixedClock)
}

func twoPlayerConfig() domain.GameConfig {
	return domain.GameConfig{
		SelectedBankIDs:  []string{"bank"},
		Players:          []domain.Player{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}},
		RoundCount:       2,
		TimeLimitSeconds: 30,
	}
}

func correctOption(t *testing.T, g *Game) *string {
	t.Helper()
	q, ok := CurrentQuestion(g.Session())
	if !ok {
		t.Fatalf("no current question")
	}
	id := q.CorrectOptionID
	return &id
}

func wrongOption(t *testing.T, g *Game) *string {
	t.Helper()
	q, _ := CurrentQuestion(g.Session())
	for _, o := range q.Options {
		if o.ID != q.CorrectOptionID {
			id := o.ID
			return &id
		}
	}
	t.Fatalf("question has no wrong option")
	return nil
}

func TestGameEndToEnd(t *testing.T) {
	g := newTestGame(4)
	if err := g.StartGame(context.Background(), twoPlayerConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.Phase() != domain.PhaseQuestion || g.Session().CurrentTurnIndex != 0 {
		t.Fatalf("expected question phase at turn 0, got %s/%d", g.Phase(), g.Session().CurrentTurnIndex)
	}
	if s := g.Session(); s.Scores["p1"] != 0 || s.Scores["p2"] != 0 || s.WasCapped {
		t.Fatalf("unexpected initial session: %+v", s)
	}

	// p1 right, p2 wrong, p1 right, p2 timeout
	for turn := 0; turn < 4; turn++ {
		var option *string
		switch turn {
		case 0, 2:
			option = correctOption(t, g)
		case 1:
			option = wrongOption(t, g)
		}
		if !g.SubmitAnswer(option) {
			t.Fatalf("turn %d: answer not applied", turn)
		}
		if g.Phase() != domain.PhaseResult {
			t.Fatalf("turn %d: expected result phase, got %s", turn, g.Phase())
		}
		s := g.Session()
		wantCorrect := turn == 0 || turn == 2
		if s.LastAnswerCorrect == nil || *s.LastAnswerCorrect != wantCorrect {
			t.Fatalf("turn %d: expected lastAnswerCorrect=%v", turn, wantCorrect)
		}
		if (option == nil) != (s.LastAnsweredOptionID == nil) {
			t.Fatalf("turn %d: answered option not recorded", turn)
		}

		if !g.ContinueToNext() {
			t.Fatalf("turn %d: continue not applied", turn)
		}
		if turn < 3 {
			if g.Phase() != domain.PhaseQuestion || g.Session().CurrentTurnIndex != turn+1 {
				t.Fatalf("turn %d: expected next question", turn)
			}
			if g.Session().LastAnswerCorrect != nil {
				t.Fatalf("turn %d: last answer must be cleared", turn)
			}
		}
	}

	if g.Phase() != domain.PhaseFinished {
		t.Fatalf("expected finished, got %s", g.Phase())
	}
	board := g.Leaderboard()
	if len(board) != 2 || board[0].Player.ID != "p1" || board[0].Score != 2 || board[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard head: %+v", board)
	}
	if board[1].Player.ID != "p2" || board[1].Score != 0 || board[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard tail: %+v", board[1])
	}

	g.ResetGame()
	if g.Phase() != domain.PhaseIdle || g.Session() != nil {
		t.Fatalf("expected idle without session after reset")
	}
	if len(g.Leaderboard()) != 0 {
		t.Fatalf("expected empty leaderboard after reset")
	}
}

func TestGameWrongPhaseActionsAreNoOps(t *testing.T) {
	g := newTestGame(4)
	option := "x"
	if g.SubmitAnswer(&option) || g.ContinueToNext() {
		t.Fatalf("idle game must ignore answer and continue")
	}

	if err := g.StartGame(context.Background(), twoPlayerConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	gen := g.Generation()
	if g.ContinueToNext() {
		t.Fatalf("continue must be ignored in question phase")
	}
	if err := g.StartGame(context.Background(), twoPlayerConfig()); err != nil || g.Generation() != gen {
		t.Fatalf("start must be ignored while a game runs: %v", err)
	}

	g.SubmitAnswer(correctOption(t, g))
	if g.SubmitAnswer(correctOption(t, g)) {
		t.Fatalf("double submit must be ignored")
	}
	if s := g.Session(); s.Scores["p1"] != 1 {
		t.Fatalf("double submit must not score twice, got %d", s.Scores["p1"])
	}
}

func TestGameTimeoutAndExpireTurn(t *testing.T) {
	g := newTestGame(4)
	if err := g.StartGame(context.Background(), twoPlayerConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	gen := g.Generation()

	if g.ExpireTurn(gen+1, 0) || g.ExpireTurn(gen, 1) {
		t.Fatalf("stale expiries must be ignored")
	}
	if !g.ExpireTurn(gen, 0) {
		t.Fatalf("expected current turn to expire")
	}
	s := g.Session()
	if s.LastAnswerCorrect == nil || *s.LastAnswerCorrect || s.LastAnsweredOptionID != nil {
		t.Fatalf("timeout must record an incorrect answer with no option")
	}
	if s.Scores["p1"] != 0 {
		t.Fatalf("timeout must not score")
	}
	if g.ExpireTurn(gen, 0) {
		t.Fatalf("expiry after submit must be ignored")
	}
}

func TestStartGameWithoutQuestionsStaysIdle(t *testing.T) {
	g := NewGameWithClock("table-1", staticSource{}, fixedClock)
	err := g.StartGame(context.Background(), twoPlayerConfig())
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if g.Phase() != domain.PhaseIdle || g.Session() != nil || g.Generation() != 0 {
		t.Fatalf("table must stay idle")
	}
}

func TestStartGameCapsPool(t *testing.T) {
	g := newTestGame(3)
	if err := g.StartGame(context.Background(), twoPlayerConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s := g.Session()
	if !s.WasCapped || len(s.QuestionPool) != 3 {
		t.Fatalf("expected capped pool of 3, got capped=%v len=%d", s.WasCapped, len(s.QuestionPool))
	}
	for i := 0; i < 3; i++ {
		g.SubmitAnswer(nil)
		g.ContinueToNext()
	}
	if g.Phase() != domain.PhaseFinished {
		t.Fatalf("capped game must finish early, got %s", g.Phase())
	}
}

func TestStartGameValidatesConfig(t *testing.T) {
	tooMany := make([]domain.Player, domain.MaxPlayers+1)
	for i := range tooMany {
		tooMany[i] = domain.Player{ID: string(rune('a' + i))}
	}

	cases := map[string]func(*domain.GameConfig){
		"no players":      func(c *domain.GameConfig) { c.Players = nil },
		"too many":        func(c *domain.GameConfig) { c.Players = tooMany },
		"zero rounds":     func(c *domain.GameConfig) { c.RoundCount = 0 },
		"short limit":     func(c *domain.GameConfig) { c.TimeLimitSeconds = 4 },
		"blank player id": func(c *domain.GameConfig) { c.Players[1].ID = "" },
		"duplicate ids":   func(c *domain.GameConfig) { c.Players[1].ID = "p1" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := twoPlayerConfig()
			mutate(&cfg)
			g := newTestGame(4)
			if err := g.StartGame(context.Background(), cfg); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !g.IsIdle() {
				t.Fatalf("table must stay idle")
			}
		})
	}
}

func TestStartGameNormalizesPlayers(t *testing.T) {
	g := newTestGame(4)
	cfg := twoPlayerConfig()
	cfg.Players[0].Name = "  "
	cfg.Players[1].TurnOrder = 9
	if err := g.StartGame(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	players := g.Session().Config.Players
	if players[0].Name != "Player 1" || players[0].TurnOrder != 0 || players[1].TurnOrder != 1 {
		t.Fatalf("unexpected players: %+v", players)
	}
	if cfg.Players[0].Name != "  " {
		t.Fatalf("caller's config must not be modified")
	}
}

func TestStartGameHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := newTestGame(4)
	if err := g.StartGame(ctx, twoPlayerConfig()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	g := newTestGame(4)
	updates, cancel := g.Subscribe()
	defer cancel()

	initial := <-updates
	if initial.Phase != domain.PhaseIdle || initial.TableID != "table-1" || initial.Session != nil {
		t.Fatalf("unexpected initial snapshot: %+v", initial)
	}

	if err := g.StartGame(context.Background(), twoPlayerConfig()); err != nil {
		t.Fatalf("start: %v", err)
	}
	state := <-updates
	if state.Phase != domain.PhaseQuestion || state.CurrentPlayer == nil || state.CurrentPlayer.ID != "p1" {
		t.Fatalf("unexpected start snapshot: %+v", state)
	}
	if state.CurrentRound != 1 || state.TotalTurns != 4 || state.CurrentQuestion == nil || state.Generation != 1 {
		t.Fatalf("snapshot missing derived fields: %+v", state)
	}
	if !state.UpdatedAt.Equal(fixedClock()) {
		t.Fatalf("expected clock timestamp")
	}

	if g.Subscribers() != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	cancel()
	if g.Subscribers() != 0 {
		t.Fatalf("expected subscription removed")
	}
	if _, ok := <-updates; ok {
		t.Fatalf("expected channel closed after cancel")
	}
}

func TestSlowSubscriberKeepsLatestSnapshot(t *testing.T) {
	g := newTestGame(40)
	cfg := twoPlayerConfig()
	cfg.RoundCount = 20
	updates, cancel := g.Subscribe()
	defer cancel()

	if err := g.StartGame(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 10; i++ {
		g.SubmitAnswer(nil)
		g.ContinueToNext()
	}

	var last domain.GameState
	for len(updates) > 0 {
		last = <-updates
	}
	if last.Session == nil || last.Session.CurrentTurnIndex != 10 || last.Phase != domain.PhaseQuestion {
		t.Fatalf("expected the newest snapshot to survive, got %+v", last)
	}
}

func TestStartGameRejectsOverflowingRoundCount(t *testing.T) {
	g := newTestGame(4)
	cfg := twoPlayerConfig()
	cfg.RoundCount = math.MaxInt/2 + 2
	if err := g.StartGame(context.Background(), cfg); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !g.IsIdle() {
		t.Fatalf("table must stay idle")
	}

	// the largest count that still fits is accepted and capped to the available questions
	cfg.RoundCount = math.MaxInt / 2
	if err := g.StartGame(context.Background(), cfg); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s := g.Session(); !s.WasCapped || len(s.QuestionPool) != 4 {
		t.Fatalf("expected capped pool of 4, got capped=%v len=%d", s.WasCapped, len(s.QuestionPool))
	}
}

func TestSubscribeInitialSnapshotPrecedesBroadcasts(t *testing.T) {
	for i := 0; i < 50; i++ {
		g := newTestGame(4)
		started := make(chan struct{})
		go func() {
			defer close(started)
			_ = g.StartGame(context.Background(), twoPlayerConfig())
		}()

		updates, cancel := g.Subscribe()
		<-started

		var last domain.GameState
		for len(updates) > 0 {
			last = <-updates
		}
		cancel()
		if last.Phase != domain.PhaseQuestion {
			t.Fatalf("run %d: subscriber ended on a stale %s snapshot", i, last.Phase)
		}
	}
}

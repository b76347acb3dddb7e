package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"hotseat-quiz/internal/app"
	"hotseat-quiz/internal/domain"
	"hotseat-quiz/internal/infra/memory"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newGameServer(t *testing.T) (*httptest.Server, *app.GameService) {
	t.Helper()
	banks := app.NewBankService(memory.NewBankStore())
	games := app.NewGameService(memory.NewGameStore(), banks, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(games).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, games
}

func dialTable(t *testing.T, server *httptest.Server, table string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?table=" + table
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketGameFlow(t *testing.T) {
	server, _ := newGameServer(t)
	conn := dialTable(t, server, "living-room")

	initial := readState(t, conn, func(s domain.GameState) bool { return true })
	if initial.Phase != domain.PhaseIdle || initial.TableID != "living-room" {
		t.Fatalf("unexpected initial state: %+v", initial)
	}

	send(t, conn, "start", domain.GameConfig{
		SelectedBankIDs:  []string{domain.BuiltinBankID},
		Players:          []domain.Player{{ID: "p1", Name: "Alice"}, {ID: "p2", Name: "Bob"}},
		RoundCount:       1,
		TimeLimitSeconds: 30,
	})
	state := readState(t, conn, phaseIs(domain.PhaseQuestion))
	if state.CurrentPlayer == nil || state.CurrentPlayer.ID != "p1" || state.CurrentQuestion == nil || state.TotalTurns != 2 {
		t.Fatalf("unexpected first turn: %+v", state)
	}

	send(t, conn, "answer", map[string]any{"optionId": state.CurrentQuestion.CorrectOptionID})
	state = readState(t, conn, phaseIs(domain.PhaseResult))
	if state.Session.Scores["p1"] != 1 || state.Session.LastAnswerCorrect == nil || !*state.Session.LastAnswerCorrect {
		t.Fatalf("expected p1 to score, got %+v", state.Session)
	}

	send(t, conn, "continue", nil)
	state = readState(t, conn, phaseIs(domain.PhaseQuestion))
	if state.CurrentPlayer.ID != "p2" {
		t.Fatalf("expected p2's turn, got %s", state.CurrentPlayer.ID)
	}

	// a null optionId is a timeout
	send(t, conn, "answer", map[string]any{"optionId": nil})
	state = readState(t, conn, phaseIs(domain.PhaseResult))
	if *state.Session.LastAnswerCorrect || state.Session.LastAnsweredOptionID != nil {
		t.Fatalf("expected timeout result, got %+v", state.Session)
	}

	send(t, conn, "continue", nil)
	readState(t, conn, phaseIs(domain.PhaseFinished))
	board := readLeaderboard(t, conn)
	if len(board) != 2 || board[0].ID != "p1" || board[0].Rank != 1 || board[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	send(t, conn, "leaderboard", nil)
	if again := readLeaderboard(t, conn); len(again) != 2 {
		t.Fatalf("expected leaderboard on request, got %+v", again)
	}

	send(t, conn, "reset", nil)
	readState(t, conn, phaseIs(domain.PhaseIdle))
}

func TestWebSocketRejectsUnknownMessages(t *testing.T) {
	server, _ := newGameServer(t)
	conn := dialTable(t, server, "t1")
	readState(t, conn, func(domain.GameState) bool { return true })

	send(t, conn, "bogus", nil)
	msg := readMessage(t, conn, "error")
	var payload errorPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Message == "" {
		t.Fatalf("expected error payload, got %s", msg.Payload)
	}

	send(t, conn, "start", domain.GameConfig{SelectedBankIDs: []string{domain.BuiltinBankID}, RoundCount: 1, TimeLimitSeconds: 30})
	readMessage(t, conn, "error")

	send(t, conn, "start", domain.GameConfig{
		SelectedBankIDs:  []string{"no-such-bank"},
		Players:          []domain.Player{{ID: "p1"}},
		RoundCount:       1,
		TimeLimitSeconds: 30,
	})
	msg = readMessage(t, conn, "error")
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Message != domain.ErrNoQuestions.Error() {
		t.Fatalf("expected no-questions error, got %s", msg.Payload)
	}
}

func TestWebSocketSharesTableAndReleasesIt(t *testing.T) {
	server, games := newGameServer(t)
	first := dialTable(t, server, "shared")
	readState(t, first, func(domain.GameState) bool { return true })
	second := dialTable(t, server, "shared")
	readState(t, second, func(domain.GameState) bool { return true })

	send(t, first, "start", domain.GameConfig{
		SelectedBankIDs:  []string{domain.BuiltinBankID},
		Players:          []domain.Player{{ID: "p1"}},
		RoundCount:       1,
		TimeLimitSeconds: 30,
	})
	readState(t, second, phaseIs(domain.PhaseQuestion))

	send(t, first, "reset", nil)
	readState(t, second, phaseIs(domain.PhaseIdle))
	first.Close()
	second.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := games.Table("shared"); err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected idle table to be released after clients left")
}

func TestWebSocketRequiresTable(t *testing.T) {
	server, _ := newGameServer(t)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func phaseIs(phase domain.Phase) func(domain.GameState) bool {
	return func(s domain.GameState) bool { return s.Phase == phase }
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn, expect string) wireMessage {
	t.Helper()
	for {
		var msg wireMessage
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type == expect {
			return msg
		}
	}
}

// readState skips messages until a state snapshot satisfies match.
func readState(t *testing.T, conn *websocket.Conn, match func(domain.GameState) bool) domain.GameState {
	t.Helper()
	for {
		msg := readMessage(t, conn, "state")
		var state domain.GameState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if match(state) {
			return state
		}
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) []domain.RankedPlayer {
	t.Helper()
	msg := readMessage(t, conn, "leaderboard")
	var board []domain.RankedPlayer
	if err := json.Unmarshal(msg.Payload, &board); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	return board
}

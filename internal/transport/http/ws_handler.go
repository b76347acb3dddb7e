package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"hotseat-quiz/internal/app"
	"hotseat-quiz/internal/domain"
)

type WSHandler struct {
	games    *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService) *WSHandler {
	return &WSHandler{
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// answerPayload carries a null optionId when the turn timed out on the client.
type answerPayload struct {
	OptionID *string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives the game table named by ?table=.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tableID := r.URL.Query().Get("table")
	if tableID == "" {
		http.Error(w, "missing table", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	game := h.games.Open(tableID)
	updates, cancel := game.Subscribe()
	defer h.games.Release(tableID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage[any]{{Type: "state", Payload: state}}
				if state.Phase == domain.PhaseFinished && state.Session != nil {
					msgs = append(msgs, outboundMessage[any]{Type: "leaderboard", Payload: app.Leaderboard(state.Session)})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(r, game, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one inbound message. State changes reach the client through the subscription,
// so only errors and leaderboard queries produce a direct reply.
func (h *WSHandler) dispatch(r *http.Request, game *app.Game, inbound inboundMessage) (outboundMessage[any], bool) {
	switch inbound.Type {
	case "start":
		var cfg domain.GameConfig
		if err := json.Unmarshal(inbound.Payload, &cfg); err != nil {
			return errorMessage("invalid start payload"), true
		}
		if err := game.StartGame(r.Context(), cfg); err != nil {
			return errorMessage(err.Error()), true
		}
	case "answer":
		var payload answerPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				return errorMessage("invalid answer payload"), true
			}
		}
		game.SubmitAnswer(payload.OptionID)
	case "continue":
		game.ContinueToNext()
	case "reset":
		game.ResetGame()
	case "leaderboard":
		return outboundMessage[any]{Type: "leaderboard", Payload: game.Leaderboard()}, true
	case "state":
		return outboundMessage[any]{Type: "state", Payload: game.State()}, true
	default:
		return errorMessage("unsupported message type"), true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

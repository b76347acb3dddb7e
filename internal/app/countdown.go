package app

import (
	"time"

	"hotseat-quiz/internal/domain"
)

// Countdown times out a turn once its time limit elapses. It never fires for a turn that
// has already been answered because ExpireTurn checks the game generation and turn index.
type Countdown struct {
	game   *Game
	unit   time.Duration
	cancel func()
	done   chan struct{}
}

// StartCountdown watches game and arms a timer of TimeLimitSeconds*unit for every new turn.
func StartCountdown(game *Game, unit time.Duration) *Countdown {
	updates, cancel := game.Subscribe()
	c := &Countdown{
		game:   game,
		unit:   unit,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.run(updates)
	return c
}

type armedTurn struct {
	generation int
	turn       int
}

func (c *Countdown) run(updates <-chan domain.GameState) {
	defer close(c.done)

	var timer *time.Timer
	var armed *armedTurn
	disarm := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		armed = nil
	}
	defer disarm()

	for state := range updates {
		if state.Phase != domain.PhaseQuestion || state.Session == nil {
			disarm()
			continue
		}
		key := armedTurn{generation: state.Generation, turn: state.Session.CurrentTurnIndex}
		if armed != nil && *armed == key {
			continue
		}
		disarm()
		armed = &key
		limit := time.Duration(state.Session.Config.TimeLimitSeconds) * c.unit
		timer = time.AfterFunc(limit, func() {
			c.game.ExpireTurn(key.generation, key.turn)
		})
	}
}

// Stop unsubscribes from the game and waits for the watcher to exit.
func (c *Countdown) Stop() {
	c.cancel()
	<-c.done
}

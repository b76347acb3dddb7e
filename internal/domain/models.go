package domain

import "time"

// BankKind distinguishes the built-in bank from user-authored ones.
type BankKind string

const (
	BankBuiltin BankKind = "builtin"
	BankCustom  BankKind = "custom"
)

// Phase is the state of a game table.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseQuestion Phase = "question"
	PhaseResult   Phase = "result"
	PhaseFinished Phase = "finished"
)

// ConflictPolicy decides what happens when an imported bank name matches an existing custom bank.
type ConflictPolicy string

const (
	ConflictRename    ConflictPolicy = "rename"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictCancel    ConflictPolicy = "cancel"
)

const (
	MinPlayers          = 1
	MaxPlayers          = 12
	MinOptions          = 2
	MaxOptions          = 4
	MinTimeLimitSeconds = 5
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId"`
}

// QuestionDraft is a question before the repository assigns it an id.
type QuestionDraft struct {
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId"`
}

// QuestionPatch carries the fields to merge into an existing question. Nil fields are left untouched.
type QuestionPatch struct {
	Text            *string  `json:"text,omitempty"`
	Options         []Option `json:"options,omitempty"`
	CorrectOptionID *string  `json:"correctOptionId,omitempty"`
}

// QuestionBank is a named collection of questions.
type QuestionBank struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      BankKind   `json:"type"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Player is a game participant. TurnOrder is the roster position at game start.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TurnOrder int    `json:"turnOrder"`
}

// GameConfig is fixed for the lifetime of a session.
type GameConfig struct {
	SelectedBankIDs  []string `json:"selectedBankIds"`
	Players          []Player `json:"players"`
	RoundCount       int      `json:"roundCount"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// TotalTurnsNeeded is the nominal number of turns before any pool capping.
func (c GameConfig) TotalTurnsNeeded() int {
	return c.RoundCount * len(c.Players)
}

// GameSession is the mutable aggregate of one game. Every transition builds a new value.
type GameSession struct {
	Config               GameConfig     `json:"config"`
	QuestionPool         []Question     `json:"questionPool"`
	CurrentTurnIndex     int            `json:"currentTurnIndex"`
	Scores               map[string]int `json:"scores"`
	LastAnswerCorrect    *bool          `json:"lastAnswerCorrect"`
	LastAnsweredOptionID *string        `json:"lastAnsweredOptionId"`
	WasCapped            bool           `json:"wasCapped"`
}

// RankedPlayer is a leaderboard row derived from a session.
type RankedPlayer struct {
	Player
	Score int `json:"score"`
	Rank  int `json:"rank"`
}

// GameState is a read-only snapshot published to table subscribers.
type GameState struct {
	TableID         string       `json:"tableId"`
	Phase           Phase        `json:"phase"`
	Generation      int          `json:"generation"`
	Session         *GameSession `json:"session,omitempty"`
	CurrentPlayer   *Player      `json:"currentPlayer,omitempty"`
	CurrentRound    int          `json:"currentRound"`
	CurrentQuestion *Question    `json:"currentQuestion,omitempty"`
	TotalTurns      int          `json:"totalTurns"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// BankExportSchema is the interchange document for banks.
type BankExportSchema struct {
	Version   string           `json:"version"`
	Type      string           `json:"type"`
	Name      string           `json:"name"`
	Questions []ExportQuestion `json:"questions"`
}

// ExportQuestion is one question in a BankExportSchema.
type ExportQuestion struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

const (
	ExportVersion = "1.0"
	ExportType    = "quiz-bank"
)

package app

import (
	"math/rand"
	"sort"

	"hotseat-quiz/internal/domain"
)

// Shuffle returns a Fisher-Yates shuffled copy of items. The input is never modified.
// A nil rnd uses the package-level source.
func Shuffle[T any](items []T, rnd *rand.Rand) []T {
	out := make([]T, len(items))
	copy(out, items)
	intn := rand.Intn
	if rnd != nil {
		intn = rnd.Intn
	}
	for i := len(out) - 1; i > 0; i-- {
		j := intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// MergeQuestions concatenates questions of the given banks in bankIDs order, skipping unknown ids,
// and returns a shuffled copy.
func MergeQuestions(banks []domain.QuestionBank, bankIDs []string, rnd *rand.Rand) []domain.Question {
	byID := make(map[string]*domain.QuestionBank, len(banks))
	for i := range banks {
		byID[banks[i].ID] = &banks[i]
	}
	var merged []domain.Question
	for _, id := range bankIDs {
		if bank, ok := byID[id]; ok {
			merged = append(merged, bank.Questions...)
		}
	}
	return Shuffle(merged, rnd)
}

// BuildQuestionPool truncates an already shuffled question list to the number of turns the config needs.
// When there are fewer questions than turns the whole list is used and capped is true.
func BuildQuestionPool(merged []domain.Question, cfg domain.GameConfig) (pool []domain.Question, capped bool) {
	needed := cfg.TotalTurnsNeeded()
	if needed <= 0 || len(merged) < needed {
		return merged, true
	}
	return merged[:needed], false
}

// CurrentPlayer is the player whose turn it is.
func CurrentPlayer(s *domain.GameSession) domain.Player {
	players := s.Config.Players
	return players[s.CurrentTurnIndex%len(players)]
}

// CurrentRound is 1-indexed.
func CurrentRound(s *domain.GameSession) int {
	return s.CurrentTurnIndex/len(s.Config.Players) + 1
}

// CurrentQuestion returns false once the turn index is past the pool.
func CurrentQuestion(s *domain.GameSession) (domain.Question, bool) {
	if s.CurrentTurnIndex < 0 || s.CurrentTurnIndex >= len(s.QuestionPool) {
		return domain.Question{}, false
	}
	return s.QuestionPool[s.CurrentTurnIndex], true
}

func TotalTurns(s *domain.GameSession) int {
	return len(s.QuestionPool)
}

func IsLastTurn(s *domain.GameSession) bool {
	return s.CurrentTurnIndex >= len(s.QuestionPool)-1
}

// ApplyScore returns a new score map with delta added to playerID's entry.
func ApplyScore(scores map[string]int, playerID string, delta int) map[string]int {
	next := make(map[string]int, len(scores)+1)
	for id, score := range scores {
		next[id] = score
	}
	next[playerID] += delta
	return next
}

// RankPlayers orders players by score descending and assigns dense ranks.
// Players missing from scores count as 0. Ties keep roster order.
func RankPlayers(players []domain.Player, scores map[string]int) []domain.RankedPlayer {
	ranked := make([]domain.RankedPlayer, len(players))
	for i, p := range players {
		ranked[i] = domain.RankedPlayer{Player: p, Score: scores[p.ID]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	rank := 1
	for i := range ranked {
		if i > 0 && ranked[i].Score < ranked[i-1].Score {
			rank++
		}
		ranked[i].Rank = rank
	}
	return ranked
}

// Leaderboard ranks the players of a session; a nil session has no standings.
func Leaderboard(s *domain.GameSession) []domain.RankedPlayer {
	if s == nil {
		return []domain.RankedPlayer{}
	}
	return RankPlayers(s.Config.Players, s.Scores)
}

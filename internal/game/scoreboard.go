package game

import (
	"sort"

	"quizmaster/internal/models"
)

type ScoreboardEntry struct {
	Rank              int    `json:"rank"`
	UserID            uint   `json:"userId"`
	Username          string `json:"username"`
	Score             int    `json:"score"`
	CorrectAnswers    int    `json:"correctAnswers"`
	AnsweredQuestions int    `json:"answeredQuestions"`
	TotalQuestions    int    `json:"totalQuestions"`
}

// BuildScoreboard ranks players by score, highest first. Players with equal
// scores keep their join order.
func BuildScoreboard(players []models.Player, answers []models.Answer, totalQuestions int) []ScoreboardEntry {
	ordered := joinOrder(players)

	correct := make(map[uint]int)
	answered := make(map[uint]int)
	for _, a := range answers {
		answered[a.UserID]++
		if a.IsCorrect {
			correct[a.UserID]++
		}
	}

	board := make([]ScoreboardEntry, len(ordered))
	for i, p := range ordered {
		board[i] = ScoreboardEntry{
			UserID:            p.UserID,
			Username:          p.User.Username,
			Score:             p.Score,
			CorrectAnswers:    correct[p.UserID],
			AnsweredQuestions: answered[p.UserID],
			TotalQuestions:    totalQuestions,
		}
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Score > board[j].Score
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board
}

// joinOrder returns a copy of players sorted by primary key.
func joinOrder(players []models.Player) []models.Player {
	ordered := make([]models.Player, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

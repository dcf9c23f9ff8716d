package game

import (
	"time"

	"quizmaster/internal/models"
)

// PlayerView is a player as seen by every client. Answered, IsCorrect and
// QuestionScore describe the current question only.
type PlayerView struct {
	UserID        uint      `json:"userId"`
	Username      string    `json:"username"`
	Score         int       `json:"score"`
	IsHost        bool      `json:"isHost"`
	JoinedAt      time.Time `json:"joinedAt"`
	Answered      bool      `json:"answered"`
	IsCorrect     *bool     `json:"isCorrect"`
	QuestionScore int       `json:"questionScore"`
}

// AnswerView is the most recent answer to the current question.
type AnswerView struct {
	UserID     uint   `json:"userId"`
	Username   string `json:"username"`
	IsCorrect  bool   `json:"isCorrect"`
	Score      int    `json:"score"`
	TotalScore int    `json:"totalScore"`
}

// Snapshot is the canonical read model of a game. Polling responses and
// realtime event payloads are both built from it. CorrectAnswer stays nil
// while the current question is still open.
type Snapshot struct {
	GameCode             string               `json:"gameCode"`
	QuizID               uint                 `json:"quizId"`
	QuizTitle            string               `json:"quizTitle"`
	HostID               uint                 `json:"hostId"`
	State                models.GameState     `json:"gameState"`
	Players              []PlayerView         `json:"players"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	TotalQuestions       int                  `json:"totalQuestions"`
	Question             *models.QuestionView `json:"currentQuestion"`
	QuestionStartedAt    *time.Time           `json:"currentQuestionStartTime"`
	QuestionTimeLimitMs  int64                `json:"questionTimeLimit"`
	AnsweredCount        int                  `json:"answeredCount"`
	TotalPlayers         int                  `json:"totalPlayers"`
	AllAnswered          bool                 `json:"allAnswered"`
	LastAnswer           *AnswerView          `json:"lastAnswer"`
	CorrectAnswer        *int                 `json:"correctAnswer"`
	Scoreboard           []ScoreboardEntry    `json:"scoreboard"`
	FinalScoreboard      []ScoreboardEntry    `json:"finalScoreboard,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
}

// ScoreboardView is the polling projection used while a question is open.
type ScoreboardView struct {
	GameCode      string            `json:"gameCode"`
	State         models.GameState  `json:"gameState"`
	QuestionIndex int               `json:"currentQuestionIndex"`
	Scoreboard    []ScoreboardEntry `json:"scoreboard"`
	AnsweredCount int               `json:"answeredCount"`
	TotalPlayers  int               `json:"totalPlayers"`
	AllAnswered   bool              `json:"allAnswered"`
}

// buildSnapshot projects a game loaded with players, their users and answers.
func buildSnapshot(game *models.Game, quiz *models.Quiz) *Snapshot {
	idx := game.CurrentQuestionIndex

	current := make(map[uint]models.Answer)
	var last *models.Answer
	for i, a := range game.Answers {
		if idx < 0 || a.QuestionIndex != idx {
			continue
		}
		current[a.UserID] = a
		if last == nil || a.ID > last.ID {
			last = &game.Answers[i]
		}
	}

	players := joinOrder(game.Players)
	views := make([]PlayerView, len(players))
	for i, p := range players {
		views[i] = PlayerView{
			UserID:   p.UserID,
			Username: p.User.Username,
			Score:    p.Score,
			IsHost:   p.UserID == game.HostID,
			JoinedAt: p.JoinedAt,
		}
		if a, ok := current[p.UserID]; ok {
			correct := a.IsCorrect
			views[i].Answered = true
			views[i].IsCorrect = &correct
			views[i].QuestionScore = a.Score
		}
	}

	snap := &Snapshot{
		GameCode:             game.Code,
		QuizID:               game.QuizID,
		QuizTitle:            quiz.Title,
		HostID:               game.HostID,
		State:                game.State,
		Players:              views,
		CurrentQuestionIndex: idx,
		TotalQuestions:       len(quiz.Questions),
		QuestionStartedAt:    game.QuestionStartedAt,
		QuestionTimeLimitMs:  game.QuestionTimeLimitMs,
		AnsweredCount:        len(current),
		TotalPlayers:         len(views),
		Scoreboard:           BuildScoreboard(players, game.Answers, len(quiz.Questions)),
		CreatedAt:            game.CreatedAt,
	}
	snap.AllAnswered = snap.State == models.GameActive && len(views) > 0 && len(current) >= len(views)

	if last != nil {
		view, _ := snap.player(last.UserID)
		snap.LastAnswer = &AnswerView{
			UserID:     last.UserID,
			Username:   view.Username,
			IsCorrect:  last.IsCorrect,
			Score:      last.Score,
			TotalScore: view.Score,
		}
	}

	inRange := idx >= 0 && idx < len(quiz.Questions)
	if game.State == models.GameActive && inRange {
		view := quiz.Questions[idx].ToView(idx)
		snap.Question = &view
	}
	if inRange && (snap.AllAnswered || game.State == models.GameFinished) {
		correct := quiz.Questions[idx].CorrectIndex
		snap.CorrectAnswer = &correct
	}
	if game.State == models.GameFinished {
		snap.FinalScoreboard = snap.Scoreboard
	}
	return snap
}

func (s *Snapshot) player(userID uint) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return PlayerView{}, false
}

func (s *Snapshot) scoreboardView() *ScoreboardView {
	return &ScoreboardView{
		GameCode:      s.GameCode,
		State:         s.State,
		QuestionIndex: s.CurrentQuestionIndex,
		Scoreboard:    s.Scoreboard,
		AnsweredCount: s.AnsweredCount,
		TotalPlayers:  s.TotalPlayers,
		AllAnswered:   s.AllAnswered,
	}
}

package game

import (
	"time"

	"quizmaster/internal/models"
)

// Realtime event names, delivered to the room of the game code.
const (
	EventGameCreated     = "gameCreated"
	EventPlayerJoined    = "playerJoined"
	EventGameStarted     = "gameStarted"
	EventAnswerSubmitted = "answerSubmitted"
	EventShowScoreboard  = "showScoreboard"
	EventNextQuestion    = "nextQuestion"
	EventGameFinished    = "gameFinished"
)

// Event payloads are projections of Snapshot: every field carries the JSON
// name and value the snapshot has at the moment of the broadcast.

type GameCreatedEvent struct {
	GameCode  string           `json:"gameCode"`
	QuizID    uint             `json:"quizId"`
	QuizTitle string           `json:"quizTitle"`
	HostID    uint             `json:"hostId"`
	State     models.GameState `json:"gameState"`
}

type PlayerJoinedEvent struct {
	GameCode     string       `json:"gameCode"`
	Players      []PlayerView `json:"players"`
	TotalPlayers int          `json:"totalPlayers"`
}

type GameStartedEvent struct {
	GameCode             string               `json:"gameCode"`
	State                models.GameState     `json:"gameState"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	TotalQuestions       int                  `json:"totalQuestions"`
	Question             *models.QuestionView `json:"currentQuestion"`
	QuestionStartedAt    *time.Time           `json:"currentQuestionStartTime"`
	QuestionTimeLimitMs  int64                `json:"questionTimeLimit"`
}

type AnswerSubmittedEvent struct {
	GameCode      string       `json:"gameCode"`
	QuestionIndex int          `json:"currentQuestionIndex"`
	LastAnswer    *AnswerView  `json:"lastAnswer"`
	Players       []PlayerView `json:"players"`
	AnsweredCount int          `json:"answeredCount"`
	TotalPlayers  int          `json:"totalPlayers"`
	AllAnswered   bool         `json:"allAnswered"`
}

// ShowScoreboardEvent is sent once everyone has answered, when the
// snapshot starts exposing the answer key.
type ShowScoreboardEvent struct {
	GameCode      string            `json:"gameCode"`
	QuestionIndex int               `json:"currentQuestionIndex"`
	AllAnswered   bool              `json:"allAnswered"`
	CorrectAnswer *int              `json:"correctAnswer"`
	Players       []PlayerView      `json:"players"`
	Scoreboard    []ScoreboardEntry `json:"scoreboard"`
}

type NextQuestionEvent struct {
	GameCode            string               `json:"gameCode"`
	QuestionIndex       int                  `json:"currentQuestionIndex"`
	TotalQuestions      int                  `json:"totalQuestions"`
	Question            *models.QuestionView `json:"currentQuestion"`
	QuestionStartedAt   *time.Time           `json:"currentQuestionStartTime"`
	QuestionTimeLimitMs int64                `json:"questionTimeLimit"`
}

type GameFinishedEvent struct {
	GameCode        string            `json:"gameCode"`
	State           models.GameState  `json:"gameState"`
	CorrectAnswer   *int              `json:"correctAnswer"`
	FinalScoreboard []ScoreboardEntry `json:"finalScoreboard"`
}

func gameCreatedEvent(s *Snapshot) GameCreatedEvent {
	return GameCreatedEvent{
		GameCode:  s.GameCode,
		QuizID:    s.QuizID,
		QuizTitle: s.QuizTitle,
		HostID:    s.HostID,
		State:     s.State,
	}
}

func playerJoinedEvent(s *Snapshot) PlayerJoinedEvent {
	return PlayerJoinedEvent{
		GameCode:     s.GameCode,
		Players:      s.Players,
		TotalPlayers: s.TotalPlayers,
	}
}

func gameStartedEvent(s *Snapshot) GameStartedEvent {
	return GameStartedEvent{
		GameCode:             s.GameCode,
		State:                s.State,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       s.TotalQuestions,
		Question:             s.Question,
		QuestionStartedAt:    s.QuestionStartedAt,
		QuestionTimeLimitMs:  s.QuestionTimeLimitMs,
	}
}

func answerSubmittedEvent(s *Snapshot) AnswerSubmittedEvent {
	return AnswerSubmittedEvent{
		GameCode:      s.GameCode,
		QuestionIndex: s.CurrentQuestionIndex,
		LastAnswer:    s.LastAnswer,
		Players:       s.Players,
		AnsweredCount: s.AnsweredCount,
		TotalPlayers:  s.TotalPlayers,
		AllAnswered:   s.AllAnswered,
	}
}

func showScoreboardEvent(s *Snapshot) ShowScoreboardEvent {
	return ShowScoreboardEvent{
		GameCode:      s.GameCode,
		QuestionIndex: s.CurrentQuestionIndex,
		AllAnswered:   s.AllAnswered,
		CorrectAnswer: s.CorrectAnswer,
		Players:       s.Players,
		Scoreboard:    s.Scoreboard,
	}
}

func nextQuestionEvent(s *Snapshot) NextQuestionEvent {
	return NextQuestionEvent{
		GameCode:            s.GameCode,
		QuestionIndex:       s.CurrentQuestionIndex,
		TotalQuestions:      s.TotalQuestions,
		Question:            s.Question,
		QuestionStartedAt:   s.QuestionStartedAt,
		QuestionTimeLimitMs: s.QuestionTimeLimitMs,
	}
}

func gameFinishedEvent(s *Snapshot) GameFinishedEvent {
	return GameFinishedEvent{
		GameCode:        s.GameCode,
		State:           s.State,
		CorrectAnswer:   s.CorrectAnswer,
		FinalScoreboard: s.FinalScoreboard,
	}
}

// backend/internal/models/game.go
package models

import "time"

type GameState string

const (
	GameWaiting  GameState = "waiting"
	GameActive   GameState = "active"
	GameFinished GameState = "finished"
)

// NoQuestion is the current question index before the game starts.
const NoQuestion = -1

type Game struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	Code                 string     `json:"gameCode" gorm:"uniqueIndex;size:10;not null"`
	QuizID               uint       `json:"quizId" gorm:"index;not null"`
	HostID               uint       `json:"hostId" gorm:"index;not null"`
	State                GameState  `json:"gameState" gorm:"size:16;index;not null"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex" gorm:"not null"`
	QuestionStartedAt    *time.Time `json:"currentQuestionStartTime"`
	QuestionTimeLimitMs  int64      `json:"questionTimeLimit"`
	Players              []Player   `json:"players,omitempty" gorm:"foreignKey:GameID"`
	Answers              []Answer   `json:"answers,omitempty" gorm:"foreignKey:GameID"`
}

// Player join order is the primary key order.
type Player struct {
	ID       uint      `json:"-" gorm:"primaryKey"`
	GameID   uint      `json:"-" gorm:"uniqueIndex:idx_player_game_user;not null"`
	UserID   uint      `json:"userId" gorm:"uniqueIndex:idx_player_game_user;not null"`
	User     User      `json:"-" gorm:"foreignKey:UserID"`
	Score    int       `json:"score" gorm:"not null;default:0"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Answer struct {
	ID                  uint      `json:"-" gorm:"primaryKey"`
	GameID              uint      `json:"-" gorm:"uniqueIndex:idx_answer_game_user_question;not null"`
	UserID              uint      `json:"userId" gorm:"uniqueIndex:idx_answer_game_user_question;not null"`
	QuestionIndex       int       `json:"questionIndex" gorm:"uniqueIndex:idx_answer_game_user_question;not null"`
	SelectedOption      *int      `json:"selectedOption"` // nil on timeout
	IsCorrect           bool      `json:"isCorrect" gorm:"not null"`
	Score               int       `json:"score" gorm:"not null"`
	ElapsedMs           int64     `json:"elapsedMs"`
	ReportedTimeSpentMs int64     `json:"timeSpent"`
	AnsweredAt          time.Time `json:"answeredAt"`
}

// backend/internal/models/quiz.go
package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultTimeLimit is the per-question window in seconds when none is given.
const DefaultTimeLimit = 30

type Quiz struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Title       string         `json:"title" gorm:"not null"`
	Description string         `json:"description"`
	CreatorID   uint           `json:"creatorId" gorm:"index;not null"`
	Questions   []Question     `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

type Question struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time      `json:"-"`
	UpdatedAt    time.Time      `json:"-"`
	QuizID       uint           `json:"quizId" gorm:"index;not null"`
	Position     int            `json:"position" gorm:"not null"`
	Text         string         `json:"questionText" gorm:"not null"`
	Options      datatypes.JSON `json:"options" gorm:"not null"`
	CorrectIndex int            `json:"correctAnswerIndex"`
	TimeLimit    int            `json:"timeLimit" gorm:"not null;default:30"` // seconds
}

// OptionTexts decodes the stored option list.
func (q Question) OptionTexts() []string {
	var opts []string
	if len(q.Options) == 0 {
		return opts
	}
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions stores the option list as JSON.
func (q *Question) SetOptions(opts []string) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(data)
	return nil
}

// TimeLimitMs is the answer window in milliseconds.
func (q Question) TimeLimitMs() int64 {
	limit := q.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	return int64(limit) * 1000
}

// QuestionView is what players see: the answer key is never included.
type QuestionView struct {
	ID          uint     `json:"id"`
	Index       int      `json:"index"`
	Text        string   `json:"questionText"`
	Options     []string `json:"options"`
	TimeLimit   int      `json:"timeLimit"`
	TimeLimitMs int64    `json:"timeLimitMs"`
}

func (q Question) ToView(index int) QuestionView {
	timeLimit := q.TimeLimit
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	return QuestionView{
		ID:          q.ID,
		Index:       index,
		Text:        q.Text,
		Options:     q.OptionTexts(),
		TimeLimit:   timeLimit,
		TimeLimitMs: q.TimeLimitMs(),
	}
}

// QuizSummary is the list projection of a quiz.
type QuizSummary struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	CreatorID     uint      `json:"creatorId"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

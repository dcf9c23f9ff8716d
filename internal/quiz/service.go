// backend/internal/quiz/service.go
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"quizmaster/internal/models"
	"quizmaster/pkg/cache"
	"quizmaster/pkg/sanitize"
)

var ErrQuizNotFound = errors.New("quiz not found")

const (
	minOptions   = 2
	maxTimeLimit = 600
)

// ValidationError describes a malformed quiz payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Cache is the read-through store for quizzes. RedisCache satisfies it.
type Cache interface {
	GetQuiz(ctx context.Context, id uint) (*models.Quiz, error)
	SetQuiz(ctx context.Context, quiz *models.Quiz) error
}

type Service struct {
	repo  *Repository
	cache Cache
}

// NewService builds the quiz service. A nil cache disables caching.
func NewService(repo *Repository, cache Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// CreateQuiz validates the request, stores the quiz and warms the cache.
func (s *Service) CreateQuiz(ctx context.Context, creatorID uint, req models.CreateQuizRequest) (*models.Quiz, error) {
	quiz, err := buildQuiz(creatorID, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetQuiz(ctx, quiz); err != nil {
			slog.Warn("failed to cache quiz", "quiz_id", quiz.ID, "error", err)
		}
	}
	return quiz, nil
}

func buildQuiz(creatorID uint, req models.CreateQuizRequest) (*models.Quiz, error) {
	title := sanitize.String(req.Title)
	if title == "" {
		return nil, invalid("quiz title is required")
	}
	if len(req.Questions) == 0 {
		return nil, invalid("a quiz needs at least one question")
	}

	quiz := &models.Quiz{
		Title:       title,
		Description: sanitize.String(req.Description),
		CreatorID:   creatorID,
		Questions:   make([]models.Question, 0, len(req.Questions)),
	}

	for i, in := range req.Questions {
		n := i + 1
		text := sanitize.String(in.QuestionText)
		if text == "" {
			return nil, invalid("question %d: text is required", n)
		}

		options := make([]string, 0, len(in.Options))
		for _, opt := range in.Options {
			opt = sanitize.String(opt)
			if opt == "" {
				return nil, invalid("question %d: options must not be empty", n)
			}
			options = append(options, opt)
		}
		if len(options) < minOptions {
			return nil, invalid("question %d: at least %d options are required", n, minOptions)
		}

		if in.CorrectAnswerIndex == nil {
			return nil, invalid("question %d: correct answer is required", n)
		}
		correct := *in.CorrectAnswerIndex
		if correct < 0 || correct >= len(options) {
			return nil, invalid("question %d: correct answer index %d is out of range", n, correct)
		}

		timeLimit := in.TimeLimit
		if timeLimit == 0 {
			timeLimit = models.DefaultTimeLimit
		}
		if timeLimit < 1 || timeLimit > maxTimeLimit {
			return nil, invalid("question %d: time limit must be between 1 and %d seconds", n, maxTimeLimit)
		}

		question := models.Question{
			Position:     i,
			Text:         text,
			CorrectIndex: correct,
			TimeLimit:    timeLimit,
		}
		if err := question.SetOptions(options); err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	return quiz, nil
}

// GetQuiz returns a quiz with its questions, reading through the cache.
func (s *Service) GetQuiz(ctx context.Context, id uint) (*models.Quiz, error) {
	if s.cache != nil {
		quiz, err := s.cache.GetQuiz(ctx, id)
		if err == nil {
			return quiz, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("quiz cache read failed", "quiz_id", id, "error", err)
		}
	}

	quiz, err := s.repo.GetQuizByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetQuiz(ctx, quiz); err != nil {
			slog.Warn("failed to cache quiz", "quiz_id", id, "error", err)
		}
	}
	return quiz, nil
}

func (s *Service) ListQuizzes(ctx context.Context) ([]models.QuizSummary, error) {
	return s.repo.ListQuizzes(ctx)
}

func (s *Service) GetQuizzesByCreator(ctx context.Context, userID uint) ([]models.QuizSummary, error) {
	return s.repo.GetQuizzesByCreator(ctx, userID)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

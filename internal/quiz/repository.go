// backend/internal/quiz/repository.go
package quiz

import (
	"context"
	"errors"
	"log/slog"

	"quizmaster/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateQuiz inserts the quiz and its questions in one transaction.
func (r *Repository) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	err := r.db.WithContext(ctx).Create(quiz).Error
	if err != nil {
		slog.Error("error creating quiz", "error", err)
		return err
	}
	slog.Info("created quiz", "quiz_id", quiz.ID, "questions", len(quiz.Questions))
	return nil
}

// GetQuizByID loads a quiz with its questions in position order.
func (r *Repository) GetQuizByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuizNotFound
	}
	if err != nil {
		slog.Error("error getting quiz", "quiz_id", id, "error", err)
		return nil, err
	}
	return &quiz, nil
}

func (r *Repository) ListQuizzes(ctx context.Context) ([]models.QuizSummary, error) {
	return r.listSummaries(ctx, r.db.WithContext(ctx))
}

func (r *Repository) GetQuizzesByCreator(ctx context.Context, userID uint) ([]models.QuizSummary, error) {
	return r.listSummaries(ctx, r.db.WithContext(ctx).Where("creator_id = ?", userID))
}

func (r *Repository) listSummaries(ctx context.Context, q *gorm.DB) ([]models.QuizSummary, error) {
	var quizzes []models.Quiz
	if err := q.Order("created_at desc, id desc").Find(&quizzes).Error; err != nil {
		slog.Error("error listing quizzes", "error", err)
		return nil, err
	}

	summaries := make([]models.QuizSummary, 0, len(quizzes))
	if len(quizzes) == 0 {
		return summaries, nil
	}

	ids := make([]uint, len(quizzes))
	for i, quiz := range quizzes {
		ids[i] = quiz.ID
	}

	var counts []struct {
		QuizID uint
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&models.Question{}).
		Select("quiz_id, COUNT(*) AS total").
		Where("quiz_id IN ?", ids).
		Group("quiz_id").
		Scan(&counts).Error
	if err != nil {
		slog.Error("error counting questions", "error", err)
		return nil, err
	}
	byQuiz := make(map[uint]int, len(counts))
	for _, c := range counts {
		byQuiz[c.QuizID] = c.Total
	}

	for _, quiz := range quizzes {
		summaries = append(summaries, models.QuizSummary{
			ID:            quiz.ID,
			Title:         quiz.Title,
			Description:   quiz.Description,
			CreatorID:     quiz.CreatorID,
			QuestionCount: byQuiz[quiz.ID],
			CreatedAt:     quiz.CreatedAt,
		})
	}
	return summaries, nil
}

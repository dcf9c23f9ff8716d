package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"quizmaster/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores games. Every precondition-dependent write is a single
// conditional statement so concurrent requests cannot lose updates.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn against a repository bound to one transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// InsertGame stores the game and its host as first player. It reports false
// without error when the code is already taken.
func (r *Repository) InsertGame(ctx context.Context, game *models.Game, host models.Player) (bool, error) {
	inserted := false
	err := r.WithTx(ctx, func(tx *Repository) error {
		res := tx.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Omit(clause.Associations).
			Create(game)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		host.GameID = game.ID
		if err := tx.db.WithContext(ctx).Omit(clause.Associations).Create(&host).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		slog.Error("error inserting game", "code", game.Code, "error", err)
		return false, err
	}
	return inserted, nil
}

// FindGame returns the game row without associations.
func (r *Repository) FindGame(ctx context.Context, code string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// LoadGame returns the game with players, their users and all answers.
func (r *Repository) LoadGame(ctx context.Context, code string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Preload("Players.User").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		Where("code = ?", code).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// LockGame reads the game row and holds a row lock until the transaction ends.
// Must be called on a repository returned by WithTx.
func (r *Repository) LockGame(ctx context.Context, code string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// AddPlayer appends userID while the game is still waiting. It reports false
// when the user had already joined, and ErrAlreadyStarted when the game left
// the waiting state.
func (r *Repository) AddPlayer(ctx context.Context, gameID, userID uint, now time.Time) (bool, error) {
	added := false
	err := r.WithTx(ctx, func(tx *Repository) error {
		res := tx.db.WithContext(ctx).Model(&models.Game{}).
			Where("id = ? AND state = ?", gameID, models.GameWaiting).
			Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyStarted
		}

		player := models.Player{GameID: gameID, UserID: userID, JoinedAt: now}
		res = tx.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "game_id"}, {Name: "user_id"}}, DoNothing: true}).
			Omit(clause.Associations).
			Create(&player)
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected == 1
		return nil
	})
	return added, err
}

func (r *Repository) CountPlayers(ctx context.Context, gameID uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Player{}).Where("game_id = ?", gameID).Count(&n).Error
	return int(n), err
}

// FindPlayer returns ErrNotAPlayer when userID never joined the game.
func (r *Repository) FindPlayer(ctx context.Context, gameID, userID uint) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).Where("game_id = ? AND user_id = ?", gameID, userID).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAPlayer
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// Transition applies updates only if the game is still in state at question
// index. It reports whether the row changed.
func (r *Repository) Transition(ctx context.Context, gameID uint, state models.GameState, index int, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Game{}).
		Where("id = ? AND state = ? AND current_question_index = ?", gameID, state, index).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) AnswerExists(ctx context.Context, gameID, userID uint, questionIndex int) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("game_id = ? AND user_id = ? AND question_index = ?", gameID, userID, questionIndex).
		Count(&n).Error
	return n > 0, err
}

// InsertAnswer reports false when an answer for the same player and question
// already exists.
func (r *Repository) InsertAnswer(ctx context.Context, answer *models.Answer) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}, {Name: "question_index"}},
			DoNothing: true,
		}).
		Create(answer)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) CountAnswers(ctx context.Context, gameID uint, questionIndex int) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("game_id = ? AND question_index = ?", gameID, questionIndex).
		Count(&n).Error
	return int(n), err
}

// AddScore increments the player's cached total and returns the new value.
func (r *Repository) AddScore(ctx context.Context, playerID uint, points int) (int, error) {
	if points != 0 {
		err := r.db.WithContext(ctx).Model(&models.Player{}).
			Where("id = ?", playerID).
			UpdateColumn("score", gorm.Expr("score + ?", points)).Error
		if err != nil {
			return 0, err
		}
	}

	var player models.Player
	if err := r.db.WithContext(ctx).Select("score").First(&player, playerID).Error; err != nil {
		return 0, err
	}
	return player.Score, nil
}

// SumAnswerScores totals the stored answer scores per user.
func (r *Repository) SumAnswerScores(ctx context.Context, gameID uint) (map[uint]int, error) {
	var rows []struct {
		UserID uint
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Select("user_id, COALESCE(SUM(score), 0) AS total").
		Where("game_id = ?", gameID).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[uint]int, len(rows))
	for _, row := range rows {
		totals[row.UserID] = row.Total
	}
	return totals, nil
}

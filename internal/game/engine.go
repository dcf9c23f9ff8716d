package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quizmaster/internal/models"
)

// QuizSource loads quizzes with their questions in order.
type QuizSource interface {
	GetQuiz(ctx context.Context, id uint) (*models.Quiz, error)
}

// Broadcaster delivers an event to every client watching a game code.
type Broadcaster interface {
	Broadcast(code, event string, payload interface{})
}

type Options struct {
	CodeLength      int
	CodeAttempts    int
	ScoreboardDelay time.Duration
	// Now and GenerateCode default to the wall clock and GenerateCode.
	Now          func() time.Time
	GenerateCode func(length int) (string, error)
}

type Engine struct {
	repo            *Repository
	quizzes         QuizSource
	broadcaster     Broadcaster
	codeLength      int
	codeAttempts    int
	scoreboardDelay time.Duration
	now             func() time.Time
	generateCode    func(int) (string, error)
}

type JoinResult struct {
	Game          *Snapshot
	AlreadyJoined bool
}

type AnswerResult struct {
	IsCorrect     bool              `json:"isCorrect"`
	CorrectAnswer int               `json:"correctAnswer"`
	ScoreGained   int               `json:"scoreGained"`
	NewScore      int               `json:"newScore"`
	QuestionIndex int               `json:"questionIndex"`
	AllAnswered   bool              `json:"allAnswered"`
	Scoreboard    []ScoreboardEntry `json:"scoreboard"` // nil until everyone answered
}

type AdvanceResult struct {
	Finished        bool                 `json:"finished"`
	QuestionIndex   int                  `json:"questionIndex,omitempty"`
	Question        *models.QuestionView `json:"question,omitempty"`
	FinalScoreboard []ScoreboardEntry    `json:"finalScoreboard,omitempty"`
}

func NewEngine(repo *Repository, quizzes QuizSource, broadcaster Broadcaster, opts Options) *Engine {
	e := &Engine{
		repo:            repo,
		quizzes:         quizzes,
		broadcaster:     broadcaster,
		codeLength:      opts.CodeLength,
		codeAttempts:    opts.CodeAttempts,
		scoreboardDelay: opts.ScoreboardDelay,
		now:             opts.Now,
		generateCode:    opts.GenerateCode,
	}
	if e.codeLength < MinCodeLength || e.codeLength > MaxCodeLength {
		e.codeLength = 6
	}
	if e.codeAttempts < 1 {
		e.codeAttempts = 10
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.generateCode == nil {
		e.generateCode = GenerateCode
	}
	return e
}

// CreateGame opens a waiting game for quizID with the host as its only player.
func (e *Engine) CreateGame(ctx context.Context, quizID, hostID uint) (*Snapshot, error) {
	quiz, err := e.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var game *models.Game
	for attempt := 1; attempt <= e.codeAttempts; attempt++ {
		code, err := e.generateCode(e.codeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate game code: %w", err)
		}

		now := e.now()
		candidate := &models.Game{
			Code:                 code,
			QuizID:               quiz.ID,
			HostID:               hostID,
			State:                models.GameWaiting,
			CurrentQuestionIndex: models.NoQuestion,
		}
		inserted, err := e.repo.InsertGame(ctx, candidate, models.Player{UserID: hostID, JoinedAt: now})
		if err != nil {
			return nil, fmt.Errorf("failed to create game: %w", err)
		}
		if inserted {
			game = candidate
			break
		}
		slog.Debug("game code collision", "code", code, "attempt", attempt)
	}
	if game == nil {
		slog.Warn("game code space exhausted", "quiz_id", quizID, "attempts", e.codeAttempts)
		return nil, ErrCodeGenerationExhausted
	}

	snap, err := e.snapshot(ctx, game.Code, quiz)
	if err != nil {
		return nil, err
	}

	slog.Info("game created", "code", game.Code, "quiz_id", quiz.ID, "host_id", hostID)
	e.broadcast(game.Code, EventGameCreated, gameCreatedEvent(snap))
	return snap, nil
}

// JoinGame adds userID to a waiting game. Joining twice returns the game
// unchanged with AlreadyJoined set.
func (e *Engine) JoinGame(ctx context.Context, code string, userID uint) (*JoinResult, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	game, err := e.repo.FindGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game.State != models.GameWaiting {
		return nil, ErrAlreadyStarted
	}

	added, err := e.repo.AddPlayer(ctx, game.ID, userID, e.now())
	if err != nil {
		if errors.Is(err, ErrAlreadyStarted) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	snap, err := e.snapshot(ctx, code, nil)
	if err != nil {
		return nil, err
	}

	if added {
		slog.Info("player joined", "code", code, "user_id", userID, "players", len(snap.Players))
		e.broadcast(code, EventPlayerJoined, playerJoinedEvent(snap))
	}
	return &JoinResult{Game: snap, AlreadyJoined: !added}, nil
}

// StartGame opens the first question. Only the host may start a game.
func (e *Engine) StartGame(ctx context.Context, code string, requesterID uint) (*Snapshot, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	game, err := e.repo.FindGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game.HostID != requesterID {
		return nil, ErrForbidden
	}
	if game.State != models.GameWaiting {
		return nil, ErrAlreadyStarted
	}

	players, err := e.repo.CountPlayers(ctx, game.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}
	if players < 1 {
		return nil, ErrNoPlayers
	}

	quiz, err := e.quizzes.GetQuiz(ctx, game.QuizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	now := e.now()
	ok, err := e.repo.Transition(ctx, game.ID, models.GameWaiting, models.NoQuestion, map[string]interface{}{
		"state":                  models.GameActive,
		"current_question_index": 0,
		"question_started_at":    now,
		"question_time_limit_ms": quiz.Questions[0].TimeLimitMs(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyStarted
	}

	snap, err := e.snapshot(ctx, code, quiz)
	if err != nil {
		return nil, err
	}

	slog.Info("game started", "code", code, "players", players, "questions", len(quiz.Questions))
	e.broadcast(code, EventGameStarted, gameStartedEvent(snap))
	return snap, nil
}

// SubmitAnswer records userID's answer to the open question. selected is nil
// when the player ran out of time. Elapsed time is measured by the server;
// reportedMs is kept for reference only.
func (e *Engine) SubmitAnswer(ctx context.Context, code string, userID uint, selected *int, reportedMs int64) (*AnswerResult, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	game, err := e.repo.FindGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game.State != models.GameActive {
		return nil, ErrNotActive
	}

	// Loaded outside the transaction: the quiz source may use its own connection.
	quiz, err := e.quizzes.GetQuiz(ctx, game.QuizID)
	if err != nil {
		return nil, err
	}

	var result AnswerResult
	err = e.repo.WithTx(ctx, func(tx *Repository) error {
		game, err := tx.LockGame(ctx, code)
		if err != nil {
			return err
		}
		if game.State != models.GameActive {
			return ErrNotActive
		}

		player, err := tx.FindPlayer(ctx, game.ID, userID)
		if err != nil {
			return err
		}

		idx := game.CurrentQuestionIndex
		if idx < 0 || idx >= len(quiz.Questions) || game.QuestionStartedAt == nil {
			return fmt.Errorf("game %s has no open question at index %d", code, idx)
		}
		question := quiz.Questions[idx]

		exists, err := tx.AnswerExists(ctx, game.ID, userID, idx)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateAnswer
		}
		if selected != nil && (*selected < 0 || *selected >= len(question.OptionTexts())) {
			return ErrInvalidOption
		}

		now := e.now()
		elapsed := now.Sub(*game.QuestionStartedAt).Milliseconds()
		limit := game.QuestionTimeLimitMs
		if elapsed > limit {
			return ErrTimeExpired
		}

		isCorrect := selected != nil && *selected == question.CorrectIndex
		points := Score(isCorrect, elapsed, limit)

		inserted, err := tx.InsertAnswer(ctx, &models.Answer{
			GameID:              game.ID,
			UserID:              userID,
			QuestionIndex:       idx,
			SelectedOption:      selected,
			IsCorrect:           isCorrect,
			Score:               points,
			ElapsedMs:           elapsed,
			ReportedTimeSpentMs: reportedMs,
			AnsweredAt:          now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			return ErrDuplicateAnswer
		}

		newScore, err := tx.AddScore(ctx, player.ID, points)
		if err != nil {
			return err
		}

		answered, err := tx.CountAnswers(ctx, game.ID, idx)
		if err != nil {
			return err
		}
		players, err := tx.CountPlayers(ctx, game.ID)
		if err != nil {
			return err
		}

		result = AnswerResult{
			IsCorrect:     isCorrect,
			CorrectAnswer: question.CorrectIndex,
			ScoreGained:   points,
			NewScore:      newScore,
			QuestionIndex: idx,
			AllAnswered:   answered >= players,
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == KindInternal {
			return nil, fmt.Errorf("failed to submit answer: %w", err)
		}
		return nil, err
	}

	snap, err := e.snapshot(ctx, code, quiz)
	if err != nil {
		return nil, err
	}
	if result.AllAnswered {
		result.Scoreboard = snap.Scoreboard
	}

	slog.Info("answer submitted", "code", code, "user_id", userID, "question", result.QuestionIndex,
		"correct", result.IsCorrect, "score", result.ScoreGained, "all_answered", result.AllAnswered)
	e.broadcast(code, EventAnswerSubmitted, answerSubmittedEvent(snap))
	if result.AllAnswered {
		e.revealScoreboard(code, showScoreboardEvent(snap))
	}
	return &result, nil
}

// AdvanceQuestion moves to the next question, or finishes the game after the
// last one. Only the host may advance.
func (e *Engine) AdvanceQuestion(ctx context.Context, code string, requesterID uint) (*AdvanceResult, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	game, err := e.repo.FindGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if game.HostID != requesterID {
		return nil, ErrForbidden
	}
	if game.State != models.GameActive {
		return nil, ErrNotActive
	}

	quiz, err := e.quizzes.GetQuiz(ctx, game.QuizID)
	if err != nil {
		return nil, err
	}

	idx := game.CurrentQuestionIndex
	next := idx + 1

	if next >= len(quiz.Questions) {
		ok, err := e.repo.Transition(ctx, game.ID, models.GameActive, idx, map[string]interface{}{
			"state": models.GameFinished,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to finish game: %w", err)
		}
		if !ok {
			return nil, ErrConcurrentUpdate
		}

		snap, err := e.snapshot(ctx, code, quiz)
		if err != nil {
			return nil, err
		}
		e.checkScores(ctx, game.ID, snap)

		slog.Info("game finished", "code", code, "players", len(snap.Players))
		e.broadcast(code, EventGameFinished, gameFinishedEvent(snap))
		return &AdvanceResult{Finished: true, FinalScoreboard: snap.Scoreboard}, nil
	}

	now := e.now()
	ok, err := e.repo.Transition(ctx, game.ID, models.GameActive, idx, map[string]interface{}{
		"current_question_index": next,
		"question_started_at":    now,
		"question_time_limit_ms": quiz.Questions[next].TimeLimitMs(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance question: %w", err)
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}

	snap, err := e.snapshot(ctx, code, quiz)
	if err != nil {
		return nil, err
	}

	slog.Info("next question", "code", code, "question", next, "total", len(quiz.Questions))
	e.broadcast(code, EventNextQuestion, nextQuestionEvent(snap))
	return &AdvanceResult{QuestionIndex: next, Question: snap.Question}, nil
}

// GetSnapshot returns the current state of the game.
func (e *Engine) GetSnapshot(ctx context.Context, code string) (*Snapshot, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	return e.snapshot(ctx, code, nil)
}

func (e *Engine) GetScoreboard(ctx context.Context, code string) (*ScoreboardView, error) {
	snap, err := e.GetSnapshot(ctx, code)
	if err != nil {
		return nil, err
	}
	return snap.scoreboardView(), nil
}

// snapshot loads the game and projects it. quiz may be nil.
func (e *Engine) snapshot(ctx context.Context, code string, quiz *models.Quiz) (*Snapshot, error) {
	game, err := e.repo.LoadGame(ctx, code)
	if err != nil {
		return nil, err
	}
	if quiz == nil || quiz.ID != game.QuizID {
		quiz, err = e.quizzes.GetQuiz(ctx, game.QuizID)
		if err != nil {
			return nil, err
		}
	}
	return buildSnapshot(game, quiz), nil
}

// checkScores logs players whose cached score drifted from their answers.
func (e *Engine) checkScores(ctx context.Context, gameID uint, snap *Snapshot) {
	totals, err := e.repo.SumAnswerScores(ctx, gameID)
	if err != nil {
		slog.Warn("could not verify scores", "code", snap.GameCode, "error", err)
		return
	}
	for _, p := range snap.Players {
		if totals[p.UserID] != p.Score {
			slog.Error("player score does not match answers", "code", snap.GameCode,
				"user_id", p.UserID, "score", p.Score, "answers_total", totals[p.UserID])
		}
	}
}

func (e *Engine) broadcast(code, event string, payload interface{}) {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.Broadcast(code, event, payload)
}

// revealScoreboard holds the scoreboard back briefly so the answering client
// can show its own result first.
func (e *Engine) revealScoreboard(code string, payload ShowScoreboardEvent) {
	if e.scoreboardDelay <= 0 {
		e.broadcast(code, EventShowScoreboard, payload)
		return
	}
	time.AfterFunc(e.scoreboardDelay, func() {
		e.broadcast(code, EventShowScoreboard, payload)
	})
}

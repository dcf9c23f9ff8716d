package game

import (
	"errors"
	"net/http"

	"quizmaster/internal/quiz"
)

var (
	ErrQuizNotFound            = quiz.ErrQuizNotFound
	ErrGameNotFound            = errors.New("game not found")
	ErrForbidden               = errors.New("only the host can perform this action")
	ErrAlreadyStarted          = errors.New("game has already started")
	ErrNotActive               = errors.New("game is not active")
	ErrNoPlayers               = errors.New("game has no players")
	ErrNoQuestions             = errors.New("quiz has no questions")
	ErrNotAPlayer              = errors.New("you are not a player in this game")
	ErrDuplicateAnswer         = errors.New("answer already submitted for this question")
	ErrTimeExpired             = errors.New("time for this question has expired")
	ErrInvalidOption           = errors.New("selected answer is out of range")
	ErrInvalidCode             = errors.New("game code must be 4 to 10 characters")
	ErrConcurrentUpdate        = errors.New("game changed while the request was processed, please retry")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique game code")
)

// Kind groups engine errors into the conditions reported to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindDuplicateAnswer
	KindTimeExpired
	KindValidation
	KindCodeGenerationExhausted
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindDuplicateAnswer:
		return "duplicate_answer"
	case KindTimeExpired:
		return "time_expired"
	case KindValidation:
		return "validation_error"
	case KindCodeGenerationExhausted:
		return "code_generation_exhausted"
	default:
		return "internal_error"
	}
}

// HTTPStatus is the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindDuplicateAnswer, KindTimeExpired, KindValidation:
		return http.StatusBadRequest
	case KindCodeGenerationExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrQuizNotFound), errors.Is(err, ErrGameNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotAPlayer):
		return KindForbidden
	case errors.Is(err, ErrAlreadyStarted), errors.Is(err, ErrNotActive),
		errors.Is(err, ErrNoPlayers), errors.Is(err, ErrNoQuestions),
		errors.Is(err, ErrConcurrentUpdate):
		return KindInvalidState
	case errors.Is(err, ErrDuplicateAnswer):
		return KindDuplicateAnswer
	case errors.Is(err, ErrTimeExpired):
		return KindTimeExpired
	case errors.Is(err, ErrInvalidOption), errors.Is(err, ErrInvalidCode):
		return KindValidation
	case errors.Is(err, ErrCodeGenerationExhausted):
		return KindCodeGenerationExhausted
	}
	var verr *quiz.ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	return KindInternal
}

// backend/internal/models/dto.go
package models

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type QuestionInput struct {
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	TimeLimit          int      `json:"timeLimit"`
}

type CreateQuizRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions"`
}

type CreateGameRequest struct {
	QuizID uint `json:"quizId"`
}

// SubmitAnswerRequest carries a nil SelectedAnswer when the player's timer ran out.
type SubmitAnswerRequest struct {
	SelectedAnswer *int  `json:"selectedAnswer"`
	TimeSpent      int64 `json:"timeSpent"`
}

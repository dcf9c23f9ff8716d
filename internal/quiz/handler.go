// backend/internal/quiz/handler.go
package quiz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"quizmaster/internal/auth"
	"quizmaster/internal/models"
	"quizmaster/pkg/middleware"

	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req models.CreateQuizRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	quiz, err := h.service.CreateQuiz(r.Context(), userID, req)
	if err != nil {
		if IsValidationError(err) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		slog.Error("error creating quiz", "user_id", userID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Could not create quiz")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, quiz)
}

func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Could not list quizzes")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, quizzes)
}

func (h *Handler) GetMyQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	quizzes, err := h.service.GetQuizzesByCreator(r.Context(), userID)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Could not list quizzes")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, quizzes)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", "Invalid quiz id")
		return
	}

	quiz, err := h.service.GetQuiz(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "not_found", "Quiz not found")
			return
		}
		slog.Error("error getting quiz", "quiz_id", id, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Could not load quiz")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, quiz)
}

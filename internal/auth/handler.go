// backend/internal/auth/handler.go
package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"quizmaster/internal/models"
	"quizmaster/pkg/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidUsername),
			errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrInvalidPassword),
			errors.Is(err, ErrUserExists):
			middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			slog.Error("registration failed", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Registration failed")
		}
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "invalid_credentials", err.Error())
			return
		}
		slog.Error("login failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Login failed")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{Token: token, User: *user})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		slog.Error("listing users failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Could not list users")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, users)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		slog.Error("loading current user failed", "user_id", userID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Could not load user")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, user)
}

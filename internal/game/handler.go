package game

import (
	"log/slog"
	"net/http"

	"quizmaster/internal/auth"
	"quizmaster/internal/models"
	"quizmaster/pkg/middleware"

	"github.com/gorilla/mux"
)

type Handler struct {
	engine     *Engine
	production bool
}

// NewHandler maps engine operations onto HTTP. Outside production, internal
// errors include their detail in the response.
func NewHandler(engine *Engine, production bool) *Handler {
	return &Handler{engine: engine, production: production}
}

// ValidateCode rejects malformed game codes before any handler runs.
func ValidateCode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code, ok := mux.Vars(r)["code"]; ok {
			if _, err := NormalizeCode(code); err != nil {
				middleware.ErrorResponse(w, http.StatusBadRequest, KindValidation.String(), err.Error())
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateGameRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil || req.QuizID == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, KindValidation.String(), "quizId is required")
		return
	}

	snap, err := h.engine.CreateGame(r.Context(), req.QuizID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, snap)
}

func (h *Handler) JoinGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.engine.JoinGame(r.Context(), mux.Vars(r)["code"], userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res.Game)
}

func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	snap, err := h.engine.StartGame(r.Context(), mux.Vars(r)["code"], userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, snap)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.SubmitAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, KindValidation.String(), "Invalid request body")
		return
	}

	res, err := h.engine.SubmitAnswer(r.Context(), mux.Vars(r)["code"], userID, req.SelectedAnswer, req.TimeSpent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	res, err := h.engine.AdvanceQuestion(r.Context(), mux.Vars(r)["code"], userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.GetSnapshot(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, snap)
}

func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.GetScoreboard(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	}
	return userID, ok
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := KindOf(err)
	if kind != KindInternal {
		middleware.ErrorResponse(w, kind.HTTPStatus(), kind.String(), err.Error())
		return
	}

	slog.Error("game request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"error", err)

	resp := models.ErrorResponse{
		Error:   kind.String(),
		Message: "Something went wrong, please try again",
	}
	if !h.production {
		resp.Detail = err.Error()
	}
	middleware.JSONResponse(w, http.StatusInternalServerError, resp)
}

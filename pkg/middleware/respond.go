package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"quizmaster/internal/models"
)

// JSONResponse writes data as a JSON body with the given status.
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes the standard {error, message} body.
func ErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// ParseJSONBody decodes the request body (at most 1 MiB) into v.
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

// NotFound is the JSON fallback for unknown API routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusNotFound, map[string]string{
		"error":   "not_found",
		"message": "API endpoint not found",
		"path":    r.URL.Path,
		"method":  r.Method,
	})
}

// backend/internal/auth/middleware.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"quizmaster/pkg/middleware"

	"github.com/dgrijalva/jwt-go"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// WithUser stores the authenticated identity in ctx.
func WithUser(ctx context.Context, userID uint, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(userIDKey).(uint)
	return id, ok && id != 0
}

func UsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey).(string)
	return name
}

func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authorization header required")
				return
			}

			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
				middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid token format")
				return
			}

			userID, username, err := ParseToken(bearerToken[1], jwtSecret)
			if err != nil {
				middleware.ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, username)))
		})
	}
}

// ParseToken verifies an HS256 token and returns its user id and username.
func ParseToken(tokenString, jwtSecret string) (uint, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", fmt.Errorf("invalid token claims")
	}

	userID, ok := (*claims)["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, "", fmt.Errorf("invalid user id in token")
	}
	username, _ := (*claims)["username"].(string)

	return uint(userID), username, nil
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizmaster/internal/models"
	"quizmaster/internal/testutil"

	"github.com/dgrijalva/jwt-go"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(NewRepository(db), testSecret, time.Hour)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr error
	}{
		{"missing fields", models.RegisterRequest{Username: "alice"}, ErrMissingFields},
		{"short username", models.RegisterRequest{Username: "al", Email: "a@b.co", Password: "secret1"}, ErrInvalidUsername},
		{"markup only username", models.RegisterRequest{Username: "<b></b>", Email: "a@b.co", Password: "secret1"}, ErrMissingFields},
		{"bad email", models.RegisterRequest{Username: "alice", Email: "alice", Password: "secret1"}, ErrInvalidEmail},
		{"short password", models.RegisterRequest{Username: "alice", Email: "a@b.co", Password: "123"}, ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterNormalisesAndRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, models.RegisterRequest{
		Username: "  <i>alice</i> ",
		Email:    "Alice@Example.COM",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercase", user.Email)
	}
	if user.Password == "secret1" {
		t.Error("password stored in plain text")
	}

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate username error = %v, want ErrUserExists", err)
	}
	_, err = svc.Register(ctx, models.RegisterRequest{Username: "bob", Email: "ALICE@example.com", Password: "secret1"})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate email error = %v, want ErrUserExists", err)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, user, err := svc.Login(ctx, "ALICE@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user id = %d, want %d", user.ID, registered.ID)
	}

	id, name, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if id != registered.ID || name != "alice" {
		t.Errorf("ParseToken() = (%d, %q)", id, name)
	}

	if _, _, err := ParseToken(token, "wrong-secret"); err == nil {
		t.Error("ParseToken() accepted token signed with another secret")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "alice@example.com", "nope12"},
		{"unknown email", "bob@example.com", "secret1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  1,
		"username": "alice",
		"exp":      time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, _, err := ParseToken(signed, testSecret); err == nil {
		t.Error("ParseToken() accepted expired token")
	}
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewService(nil, testSecret, time.Hour)
	token, err := svc.IssueToken(&models.User{ID: 42, Username: "host"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	var gotID uint
	var gotName string
	h := JWTMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		gotName = UsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/games/ABCDEF", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			testutil.AssertStatus(t, w, tt.want)
		})
	}

	if gotID != 42 || gotName != "host" {
		t.Errorf("context identity = (%d, %q), want (42, host)", gotID, gotName)
	}
}

func TestHandlersRegisterAndLogin(t *testing.T) {
	h := NewHandler(newTestService(t))

	w := httptest.NewRecorder()
	h.Register(w, testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "secret1",
	}))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	h.Register(w, testutil.MakeRequest("POST", "/api/auth/register", models.RegisterRequest{
		Username: "carol", Email: "carol@example.com", Password: "secret1",
	}))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	h.Login(w, testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
		Email: "carol@example.com", Password: "secret1",
	}))
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.LoginResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Token == "" || resp.User.Username != "carol" {
		t.Errorf("login response = %+v", resp)
	}

	w = httptest.NewRecorder()
	h.Login(w, testutil.MakeRequest("POST", "/api/auth/login", models.LoginRequest{
		Email: "carol@example.com", Password: "wrong!",
	}))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	h.ListUsers(w, testutil.MakeRequest("GET", "/api/users", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := w.Body.String(); strings.Contains(body, "password") {
		t.Errorf("user list leaks password field: %s", body)
	}
}

func TestMeHandler(t *testing.T) {
	svc := newTestService(t)
	user, err := svc.Register(context.Background(), models.RegisterRequest{Username: "dora", Email: "dora@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	h := NewHandler(svc)

	tests := []struct {
		name string
		id   uint
		want int
	}{
		{"known user", user.ID, http.StatusOK},
		{"deleted user", user.ID + 100, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("GET", "/api/auth/me", nil)
			req = req.WithContext(WithUser(req.Context(), tt.id, "dora"))
			w := httptest.NewRecorder()
			h.Me(w, req)
			testutil.AssertStatus(t, w, tt.want)
		})
	}

	w := httptest.NewRecorder()
	h.Me(w, testutil.MakeRequest("GET", "/api/auth/me", nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizmaster/internal/models"
	"quizmaster/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SetupTestDB opens a fresh in-memory database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewSQLiteDB(dsn, false)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateTestUser inserts a user with a placeholder password hash.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// TestQuestion is a compact question fixture.
type TestQuestion struct {
	Text      string
	Options   []string
	Correct   int
	TimeLimit int
}

// CreateTestQuiz inserts a quiz owned by creatorID with the given questions in order.
func CreateTestQuiz(t *testing.T, db *gorm.DB, creatorID uint, questions ...TestQuestion) *models.Quiz {
	t.Helper()

	quiz := &models.Quiz{
		Title:       "Test Quiz",
		Description: "A test quiz",
		CreatorID:   creatorID,
	}
	for i, q := range questions {
		question := models.Question{
			Position:     i,
			Text:         q.Text,
			CorrectIndex: q.Correct,
			TimeLimit:    q.TimeLimit,
		}
		if err := question.SetOptions(q.Options); err != nil {
			t.Fatalf("Failed to encode options: %v", err)
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := db.Create(quiz).Error; err != nil {
		t.Fatalf("Failed to create test quiz: %v", err)
	}
	return quiz
}

// TwoQuestions returns a default pair of 30 second questions.
func TwoQuestions() []TestQuestion {
	return []TestQuestion{
		{Text: "Capital of France?", Options: []string{"Berlin", "Paris", "Rome"}, Correct: 1, TimeLimit: 30},
		{Text: "2 + 2?", Options: []string{"4", "5"}, Correct: 0, TimeLimit: 30},
	}
}

// MakeRequest creates an HTTP test request with an optional JSON body.
func MakeRequest(method, path string, body interface{}) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	return req
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into v.
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizmaster/internal/auth"
	"quizmaster/internal/models"
	"quizmaster/internal/testutil"
	"quizmaster/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
)

func intPtr(i int) *int { return &i }

func validRequest() models.CreateQuizRequest {
	return models.CreateQuizRequest{
		Title:       "Capitals",
		Description: "European capitals",
		Questions: []models.QuestionInput{
			{QuestionText: "Capital of France?", Options: []string{"Berlin", "Paris"}, CorrectAnswerIndex: intPtr(1), TimeLimit: 20},
			{QuestionText: "Capital of Italy?", Options: []string{"Rome", "Milan", "Turin"}, CorrectAnswerIndex: intPtr(0)},
		},
	}
}

func TestCreateQuizValidation(t *testing.T) {
	svc := NewService(NewRepository(testutil.SetupTestDB(t)), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.CreateQuizRequest)
	}{
		{"missing title", func(r *models.CreateQuizRequest) { r.Title = "  " }},
		{"no questions", func(r *models.CreateQuizRequest) { r.Questions = nil }},
		{"empty question text", func(r *models.CreateQuizRequest) { r.Questions[0].QuestionText = "" }},
		{"one option", func(r *models.CreateQuizRequest) { r.Questions[0].Options = []string{"Paris"} }},
		{"blank option", func(r *models.CreateQuizRequest) { r.Questions[0].Options = []string{"Paris", " "} }},
		{"missing correct index", func(r *models.CreateQuizRequest) { r.Questions[0].CorrectAnswerIndex = nil }},
		{"correct index out of range", func(r *models.CreateQuizRequest) { r.Questions[0].CorrectAnswerIndex = intPtr(2) }},
		{"negative correct index", func(r *models.CreateQuizRequest) { r.Questions[0].CorrectAnswerIndex = intPtr(-1) }},
		{"time limit too long", func(r *models.CreateQuizRequest) { r.Questions[0].TimeLimit = 601 }},
		{"negative time limit", func(r *models.CreateQuizRequest) { r.Questions[0].TimeLimit = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.CreateQuiz(ctx, 1, req)
			if !IsValidationError(err) {
				t.Errorf("CreateQuiz() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestCreateAndGetQuiz(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db, "host")
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	created, err := svc.CreateQuiz(ctx, user.ID, validRequest())
	if err != nil {
		t.Fatalf("CreateQuiz() error = %v", err)
	}

	got, err := svc.GetQuiz(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetQuiz() error = %v", err)
	}
	if got.CreatorID != user.ID || len(got.Questions) != 2 {
		t.Fatalf("GetQuiz() = %+v", got)
	}
	if got.Questions[0].Text != "Capital of France?" || got.Questions[1].Text != "Capital of Italy?" {
		t.Errorf("questions out of order: %q, %q", got.Questions[0].Text, got.Questions[1].Text)
	}
	if got.Questions[1].TimeLimit != models.DefaultTimeLimit {
		t.Errorf("default time limit = %d, want %d", got.Questions[1].TimeLimit, models.DefaultTimeLimit)
	}
	if opts := got.Questions[1].OptionTexts(); len(opts) != 3 || opts[0] != "Rome" {
		t.Errorf("OptionTexts() = %v", opts)
	}

	if _, err := svc.GetQuiz(ctx, 999); !errors.Is(err, ErrQuizNotFound) {
		t.Errorf("GetQuiz(999) error = %v, want ErrQuizNotFound", err)
	}
}

func TestCreateQuizSanitisesMarkup(t *testing.T) {
	svc := NewService(NewRepository(testutil.SetupTestDB(t)), nil)

	req := validRequest()
	req.Title = "<script>alert(1)</script>Capitals"
	req.Questions[0].Options = []string{"<b>Berlin</b>", "Paris"}

	quiz, err := svc.CreateQuiz(context.Background(), 1, req)
	if err != nil {
		t.Fatalf("CreateQuiz() error = %v", err)
	}
	if quiz.Title != "Capitals" {
		t.Errorf("Title = %q", quiz.Title)
	}
	if opts := quiz.Questions[0].OptionTexts(); opts[0] != "Berlin" {
		t.Errorf("option = %q", opts[0])
	}
}

func TestListSummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	testutil.CreateTestQuiz(t, db, alice.ID, testutil.TwoQuestions()...)
	testutil.CreateTestQuiz(t, db, bob.ID, testutil.TwoQuestions()[:1]...)
	testutil.CreateTestQuiz(t, db, bob.ID)

	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()

	all, err := svc.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("ListQuizzes() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListQuizzes() returned %d quizzes, want 3", len(all))
	}

	mine, err := svc.GetQuizzesByCreator(ctx, bob.ID)
	if err != nil {
		t.Fatalf("GetQuizzesByCreator() error = %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("GetQuizzesByCreator() returned %d quizzes, want 2", len(mine))
	}
	total := 0
	for _, s := range mine {
		if s.CreatorID != bob.ID {
			t.Errorf("summary creator = %d, want %d", s.CreatorID, bob.ID)
		}
		total += s.QuestionCount
	}
	if total != 1 {
		t.Errorf("question count across bob's quizzes = %d, want 1", total)
	}
}

func TestGetQuizReadsThroughCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db, "host")
	stored := testutil.CreateTestQuiz(t, db, user.ID, testutil.TwoQuestions()...)

	mr := miniredis.RunT(t)
	client := cache.NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { client.Close() })
	svc := NewService(NewRepository(db), cache.NewRedisCache(client, time.Minute))
	ctx := context.Background()

	if _, err := svc.GetQuiz(ctx, stored.ID); err != nil {
		t.Fatalf("GetQuiz() error = %v", err)
	}
	if !mr.Exists(fmt.Sprintf("quiz:%d", stored.ID)) {
		t.Fatal("quiz was not written to the cache")
	}

	// Served from the cache once the row is gone.
	if err := db.Unscoped().Where("quiz_id = ?", stored.ID).Delete(&models.Question{}).Error; err != nil {
		t.Fatalf("delete questions: %v", err)
	}
	if err := db.Unscoped().Delete(&models.Quiz{}, stored.ID).Error; err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	got, err := svc.GetQuiz(ctx, stored.ID)
	if err != nil {
		t.Fatalf("GetQuiz() from cache error = %v", err)
	}
	if len(got.Questions) != 2 || got.Questions[0].CorrectIndex != 1 {
		t.Errorf("cached quiz = %+v", got)
	}
}

func newRouter(h *Handler, userID uint) http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), userID, "tester")))
		})
	})
	r.HandleFunc("/api/quizzes", h.CreateQuiz).Methods("POST")
	r.HandleFunc("/api/quizzes", h.ListQuizzes).Methods("GET")
	r.HandleFunc("/api/quizzes/mine", h.GetMyQuizzes).Methods("GET")
	r.HandleFunc("/api/quizzes/{id}", h.GetQuiz).Methods("GET")
	return r
}

func TestHandlers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, db, "host")
	router := newRouter(NewHandler(NewService(NewRepository(db), nil)), user.ID)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.MakeRequest("POST", "/api/quizzes", validRequest()))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.Quiz
	testutil.AssertJSON(t, w, &created)
	if created.ID == 0 || created.CreatorID != user.ID {
		t.Fatalf("created quiz = %+v", created)
	}

	bad := validRequest()
	bad.Title = ""
	w = httptest.NewRecorder()
	router.ServeHTTP(w, testutil.MakeRequest("POST", "/api/quizzes", bad))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	tests := []struct {
		path string
		want int
	}{
		{"/api/quizzes", http.StatusOK},
		{"/api/quizzes/mine", http.StatusOK},
		{"/api/quizzes/1", http.StatusOK},
		{"/api/quizzes/42", http.StatusNotFound},
		{"/api/quizzes/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, testutil.MakeRequest("GET", tt.path, nil))
			testutil.AssertStatus(t, w, tt.want)
		})
	}
}

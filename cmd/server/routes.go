package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"quizmaster/internal/auth"
	"quizmaster/internal/config"
	"quizmaster/internal/game"
	"quizmaster/internal/quiz"
	"quizmaster/pkg/cache"
	"quizmaster/pkg/database"
	"quizmaster/pkg/middleware"
	"quizmaster/pkg/websocket"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

const version = "1.0.0"

type app struct {
	cfg         *config.Config
	db          *gorm.DB
	redis       *redis.Client
	hub         *websocket.Hub
	relay       *websocket.Relay
	limiter     *middleware.RateLimiter
	authHandler *auth.Handler
	quizHandler *quiz.Handler
	gameHandler *game.Handler
}

// newApp wires repositories, services and handlers. redisClient may be nil.
func newApp(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *app {
	a := &app{cfg: cfg, db: db, redis: redisClient}

	var quizCache quiz.Cache
	if redisClient != nil {
		quizCache = cache.NewRedisCache(redisClient, cfg.QuizCacheTTL)
	}

	authService := auth.NewService(auth.NewRepository(db), cfg.JWTSecret, cfg.JWTExpiresIn)
	quizService := quiz.NewService(quiz.NewRepository(db), quizCache)

	// The hub reads snapshots from the engine, which broadcasts through the hub.
	var engine *game.Engine
	a.hub = websocket.NewHub(func(ctx context.Context, code string) (interface{}, error) {
		snap, err := engine.GetSnapshot(ctx, code)
		if err != nil {
			return nil, err
		}
		return snap, nil
	}, cfg.AllowedOrigins)

	var broadcaster game.Broadcaster = a.hub
	if redisClient != nil {
		a.relay = websocket.NewRelay(redisClient, a.hub, websocket.DefaultChannel)
		broadcaster = a.relay
	}

	engine = game.NewEngine(game.NewRepository(db), quizService, broadcaster, game.Options{
		CodeLength:      cfg.GameCodeLength,
		CodeAttempts:    cfg.GameCodeAttempts,
		ScoreboardDelay: cfg.ScoreboardDelay,
	})

	a.limiter = middleware.PerMinute(cfg.AuthRatePerMinute)
	a.authHandler = auth.NewHandler(authService)
	a.quizHandler = quiz.NewHandler(quizService)
	a.gameHandler = game.NewHandler(engine, cfg.IsProduction())
	return a
}

// start launches the hub and, when Redis is configured, the cross-instance relay.
// Both stop when ctx is cancelled.
func (a *app) start(ctx context.Context) {
	go a.hub.Run(ctx)
	if a.relay != nil {
		go func() {
			if err := a.relay.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Relay stopped", "error", err)
			}
		}()
	}
}

func (a *app) close() {
	a.limiter.Stop()
}

func (a *app) routes() http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logging)

	router.HandleFunc("/api/health", a.health).Methods("GET")

	// Auth routes - no JWT required
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.Use(a.limiter.Middleware)
	authRouter.HandleFunc("/register", a.authHandler.Register).Methods("POST")
	authRouter.HandleFunc("/login", a.authHandler.Login).Methods("POST")

	// Everything else under /api requires a token
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware(a.cfg.JWTSecret))

	api.HandleFunc("/auth/me", a.authHandler.Me).Methods("GET")
	api.HandleFunc("/users", a.authHandler.ListUsers).Methods("GET")

	api.HandleFunc("/quizzes", a.quizHandler.CreateQuiz).Methods("POST")
	api.HandleFunc("/quizzes", a.quizHandler.ListQuizzes).Methods("GET")
	api.HandleFunc("/quizzes/mine", a.quizHandler.GetMyQuizzes).Methods("GET")
	api.HandleFunc("/quizzes/{id}", a.quizHandler.GetQuiz).Methods("GET")

	api.HandleFunc("/games", a.gameHandler.CreateGame).Methods("POST")
	games := api.PathPrefix("/games/{code}").Subrouter()
	games.Use(game.ValidateCode)
	games.HandleFunc("", a.gameHandler.GetGame).Methods("GET")
	games.HandleFunc("/join", a.gameHandler.JoinGame).Methods("POST")
	games.HandleFunc("/start", a.gameHandler.StartGame).Methods("POST")
	games.HandleFunc("/answer", a.gameHandler.SubmitAnswer).Methods("POST")
	games.HandleFunc("/nextquestion", a.gameHandler.NextQuestion).Methods("POST")
	games.HandleFunc("/scoreboard", a.gameHandler.GetScoreboard).Methods("GET")

	// WebSocket endpoint
	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(game.ValidateCode)
	ws.HandleFunc("/{code}", a.hub.HandleWebSocket)

	router.PathPrefix("/api/").HandlerFunc(middleware.NotFound)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   a.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return corsMiddleware.Handler(router)
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := map[string]string{"database": "ok"}

	if err := database.Ping(ctx, a.db); err != nil {
		checks["database"] = "unavailable"
		status, code = "degraded", http.StatusServiceUnavailable
	}
	if a.redis != nil {
		checks["redis"] = "ok"
		if err := a.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	middleware.JSONResponse(w, code, map[string]interface{}{
		"status":      status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": a.cfg.Environment,
		"version":     version,
		"checks":      checks,
	})
}

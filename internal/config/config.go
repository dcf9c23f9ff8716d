// backend/internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	Environment string
	LogLevel    string

	DBType     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QuizCacheTTL  time.Duration

	JWTSecret    string
	JWTExpiresIn time.Duration

	AllowedOrigins []string

	ScoreboardDelay   time.Duration
	GameCodeLength    int
	GameCodeAttempts  int
	AuthRatePerMinute int
}

// IsProduction reports whether internal error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads .env (if present), the environment and then command line flags.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment only")
	}
	return parse(args)
}

func parse(args []string) (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBType:        getEnv("DB_TYPE", "postgres"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "./quizmaster.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 5000); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.GameCodeLength, err = getEnvInt("GAME_CODE_LENGTH", 6); err != nil {
		return nil, err
	}
	if cfg.GameCodeAttempts, err = getEnvInt("GAME_CODE_ATTEMPTS", 10); err != nil {
		return nil, err
	}
	if cfg.AuthRatePerMinute, err = getEnvInt("AUTH_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.QuizCacheTTL, err = getEnvDuration("QUIZ_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWTExpiresIn, err = getEnvDuration("JWT_EXPIRES_IN", time.Hour); err != nil {
		return nil, err
	}
	if cfg.ScoreboardDelay, err = getEnvDuration("SCOREBOARD_DELAY", time.Second); err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"))

	fs := flag.NewFlagSet("quizmaster", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.DBType, "db-type", cfg.DBType, "database type (postgres or sqlite)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "sqlite database file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBType {
	case "postgres":
		if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
			return errors.New("DB_HOST, DB_USER and DB_NAME are required for postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.GameCodeLength < 4 || c.GameCodeLength > 10 {
		return fmt.Errorf("GAME_CODE_LENGTH must be between 4 and 10, got %d", c.GameCodeLength)
	}
	if c.GameCodeAttempts < 1 {
		return errors.New("GAME_CODE_ATTEMPTS must be at least 1")
	}
	if c.AuthRatePerMinute < 1 {
		return errors.New("AUTH_RATE_PER_MINUTE must be at least 1")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

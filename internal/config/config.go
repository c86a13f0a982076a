package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Environment     string
	LogLevel        slog.Level
	InterpreterPath string
	RedisURL        string
	LeaderboardDB   string
}

func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		InterpreterPath: getEnv("TW_INTERPRETER", "git-glulx-ml"),
		RedisURL:        getEnv("REDIS_URL", ""),
		LeaderboardDB:   getEnv("TW_LEADERBOARD_DB", defaultLeaderboardDB()),
	}
}

func defaultLeaderboardDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "leaderboard.db"
	}
	return filepath.Join(home, ".textworld", "leaderboard.db")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

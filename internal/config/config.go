package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel slog.Level

	Providers *ProviderConfig
	Redis     *RedisConfig
	Postgres  *PostgresConfig
	Solver    *SolverConfig
	Sweep     *SweepConfig
	Notify    *NotifyConfig
}

func Load() (*Config, error) {
	// Local development keeps keys in .env; absence is fine.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	redisConfig, err := LoadRedisConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:      port,
		LogLevel:  parseLogLevel(os.Getenv("LOG_LEVEL")),
		Providers: LoadProviderConfig(),
		Redis:     redisConfig,
		Postgres:  LoadPostgresConfig(),
		Solver:    LoadSolverConfig(),
		Sweep:     LoadSweepConfig(),
		Notify:    LoadNotifyConfig(),
	}, nil
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

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

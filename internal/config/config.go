// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"clicker-ledger/pkg/db"
)

// Storage drivers understood by the application.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort     string
	StorageDriver  string
	LogLevel       string
	AllowedOrigins []string
	DB             db.Config
	Bot            BotConfig
}

// BotConfig configures the chat front-end. An empty Token disables the bot.
type BotConfig struct {
	Token       string
	FrontendURL string
}

// Enabled reports whether the chat front-end should be started.
func (c BotConfig) Enabled() bool {
	return c.Token != ""
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first if present; variables
// already set in the environment take precedence over it.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	storage := strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory))
	if storage != StorageMemory && storage != StoragePostgres {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: expected %q or %q", storage, StorageMemory, StoragePostgres)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	return &AppConfig{
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		StorageDriver:  storage,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "clickerdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Bot: BotConfig{
			Token:       os.Getenv("BOT_TOKEN"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8000"),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (tracking store + pub/sub)
	RedisURL string

	// Lesson content store (optional; empty disables enrichment)
	DatabaseURL string

	// JWT (websocket feed auth, shared secret with the platform)
	JWTSecret string

	// CORS
	CORSOrigins string

	// Tracking hygiene
	StaleTabHours  int
	RecordTTLHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8002"),
		Env:            getEnvOrDefault("ENV", "development"),
		RedisURL:       mustGetEnv("REDIS_URL"),
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", ""),
		JWTSecret:      mustGetEnv("JWT_SECRET"),
		CORSOrigins:    getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173"),
		StaleTabHours:  getEnvAsIntOrDefault("STALE_TAB_HOURS", 24),
		RecordTTLHours: getEnvAsIntOrDefault("RECORD_TTL_HOURS", 48),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings for the gateway.
type Config struct {
	// ListenAddr is the address the gateway serves the editor UI API on.
	ListenAddr string
	// BackendURL is the base URL of the media-processing backend.
	BackendURL string
	// LogLevel is a logrus level name.
	LogLevel string
}

// Load reads configuration from the environment, with a .env file as a
// convenience for local development.
func Load() Config {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	return Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		BackendURL: getEnv("MEDIA_BACKEND_URL", "http://localhost:8000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
